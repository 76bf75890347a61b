package proof

import "errors"

// Failure kinds surfaced by the verifier.
var (
	ErrEmptyProof        = errors.New("proof: element sequence is empty")
	ErrMissingRoot       = errors.New("proof: element sequence has no Root terminator")
	ErrInvalidWeight     = errors.New("proof: aggregate-weight witness check failed")
	ErrHashMismatch      = errors.New("proof: reconstructed root hash does not match")
	ErrDifficultyMismatch = errors.New("proof: reconstructed root difficulty does not match")
	ErrMalformedElement  = errors.New("proof: malformed element sequence")
	ErrUnderflowStack    = errors.New("proof: sibling stack underflow")

	// ErrCheckpointMismatch and ErrCheckpointSignature name the two
	// checkpoint failure kinds: an attested (root_hash, root_difficulty,
	// leaf_count) triple that disagrees with the proof's own terminator, or a
	// COSE signature that does not verify. Verify never returns them;
	// checkpoint.Verify reports these failures as checkpoint.ErrMismatch and
	// checkpoint.ErrSignatureInvalid.
	ErrCheckpointMismatch  = errors.New("proof: checkpoint does not match proof terminator")
	ErrCheckpointSignature = errors.New("proof: checkpoint signature verification failed")
)
