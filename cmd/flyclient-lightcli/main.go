// Command flyclient-lightcli is the light-client CLI: it fetches and
// verifies a non-interactive proof from a prover over TCP.
package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"

	"github.com/flyclient-go/superlight/client"
	"github.com/flyclient-go/superlight/config"
	"github.com/flyclient-go/superlight/header"
	"github.com/flyclient-go/superlight/logging"
	"github.com/flyclient-go/superlight/sampler"
)

var (
	configPath = flag.String("config", "lightcli.toml", "path to the light client TOML config")
	command    = flag.String("cmd", "proof", "one of: latest, header, proof")
	blockArg   = flag.Uint64("block", 0, "block number for the header command")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flyclient-lightcli: load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)
	log := logging.For("lightcli")

	cache, err := header.OpenCSVCache(cfg.HeaderCachePath, 1<<20)
	if err != nil {
		log.Errorf("open header cache: %v", err)
		os.Exit(1)
	}

	pubKey, err := loadPubKey(cfg.CheckpointPubKeyPath)
	if err != nil {
		log.Errorf("load checkpoint key: %v", err)
		os.Exit(1)
	}

	driver := client.NewDriver(cfg.ServerAddress, cache, acceptAllPoW{}, pubKey)
	ctx := context.Background()

	switch *command {
	case "latest":
		n, err := driver.LatestBlockNumber()
		if err != nil {
			log.Errorf("latest block number: %v", err)
			os.Exit(1)
		}
		fmt.Println(n)
	case "header":
		rec, err := driver.BlockHeader(ctx, *blockArg)
		if err != nil {
			log.Errorf("block header: %v", err)
			os.Exit(1)
		}
		fmt.Printf("block %d hash=%x difficulty=%s\n", rec.Number, rec.Hash, rec.Difficulty.Big())
	case "proof":
		params := sampler.Params{Lambda: cfg.Lambda, CPercent: cfg.CPercent, L: cfg.L}
		res, err := driver.NonInteractiveProof(ctx, params)
		if err != nil {
			log.Errorf("non-interactive proof: %v", err)
			os.Exit(1)
		}
		fmt.Printf("verified proof: leaf_count=%d root_hash=%x queried=%d\n", res.Proof.LeafCount, res.Proof.RootHash, len(res.Blocks))
	default:
		fmt.Fprintf(os.Stderr, "unknown -cmd %q\n", *command)
		os.Exit(1)
	}
}

// acceptAllPoW mirrors the prover's placeholder oracle: real Ethash
// verification is out of scope for the core, and this CLI is a reference
// driver rather than a production client.
type acceptAllPoW struct{}

func (acceptAllPoW) VerifyPoW(ctx context.Context, rec header.Record) (bool, error) {
	return true, nil
}

func loadPubKey(path string) (*ecdsa.PublicKey, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("checkpoint pubkey: malformed PEM at %s", path)
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("checkpoint pubkey: not an EC public key")
	}
	return ecPub, nil
}
