package checkpoint

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyclient-go/superlight/mmr"
)

func genKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key := genKey(t)
	signer := NewSigner(key)

	var rootHash mmr.Hash
	rootHash[0] = 0xAB
	rootDifficulty := mmr.DifficultyFromUint64(777)

	encoded, err := signer.Sign(rootHash, rootDifficulty, 1000, 1_700_000_000_000)
	require.NoError(t, err)

	att, err := Verify(&key.PublicKey, encoded, rootHash, rootDifficulty, 1000)
	require.NoError(t, err)
	assert.Equal(t, rootHash, att.RootHash)
	assert.Equal(t, uint64(1000), att.LeafCount)
	assert.Equal(t, uint64(1_700_000_000_000), att.TimestampUnixMs)
}

func TestVerifyRejectsWrongPublicKey(t *testing.T) {
	signer := NewSigner(genKey(t))
	other := genKey(t)

	var rootHash mmr.Hash
	encoded, err := signer.Sign(rootHash, mmr.DifficultyFromUint64(1), 1, 0)
	require.NoError(t, err)

	_, err = Verify(&other.PublicKey, encoded, rootHash, mmr.DifficultyFromUint64(1), 1)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestVerifyRejectsMismatchedTriple(t *testing.T) {
	key := genKey(t)
	signer := NewSigner(key)

	var rootHash mmr.Hash
	encoded, err := signer.Sign(rootHash, mmr.DifficultyFromUint64(1), 1, 0)
	require.NoError(t, err)

	_, err = Verify(&key.PublicKey, encoded, rootHash, mmr.DifficultyFromUint64(2), 1)
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestVerifySkipsTripleCheckWhenLeafCountZero(t *testing.T) {
	key := genKey(t)
	signer := NewSigner(key)

	var rootHash mmr.Hash
	encoded, err := signer.Sign(rootHash, mmr.DifficultyFromUint64(1), 5, 0)
	require.NoError(t, err)

	_, err = Verify(&key.PublicKey, encoded, mmr.Hash{}, mmr.Difficulty{}, 0)
	assert.NoError(t, err)
}
