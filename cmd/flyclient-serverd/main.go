// Command flyclient-serverd is the prover daemon: it polls an upstream full
// node for headers, maintains the weighted MMR, and answers light-client
// requests over TCP.
package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flyclient-go/superlight/checkpoint"
	"github.com/flyclient-go/superlight/config"
	"github.com/flyclient-go/superlight/header"
	"github.com/flyclient-go/superlight/logging"
	"github.com/flyclient-go/superlight/mmr"
	"github.com/flyclient-go/superlight/mmr/storage"
	"github.com/flyclient-go/superlight/server"
)

var configPath = flag.String("config", "serverd.toml", "path to the prover TOML config")

func main() {
	flag.Parse()

	cfg, err := config.LoadProver(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flyclient-serverd: load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)
	log := logging.For("serverd")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	upstream := newHTTPUpstream(cfg.UpstreamRPC)
	powCheck := acceptAllPoW{}

	tree, err := openOrCreateTree(ctx, cfg.StoragePath, upstream)
	if err != nil {
		log.Errorf("open storage: %v", err)
		os.Exit(1)
	}

	cache, err := header.OpenCSVCache(cfg.HeaderCachePath, tree.LeafCount())
	if err != nil {
		log.Errorf("open header cache: %v", err)
		os.Exit(1)
	}

	signer, err := loadOrCreateSigner(cfg.CheckpointKeyPath)
	if err != nil {
		log.Errorf("checkpoint signer: %v", err)
		os.Exit(1)
	}

	writer := server.NewWriter(tree, cache, upstream, powCheck, signer, cfg)
	go writer.Run(ctx)

	listener, err := server.NewListener(cfg.ListenAddress, writer)
	if err != nil {
		log.Errorf("listen: %v", err)
		os.Exit(1)
	}
	log.Infof("listening on %s", listener.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("shutting down")
		listener.Stop()
		cancel()
	}()

	listener.Serve()
}

func openOrCreateTree(ctx context.Context, path string, upstream *httpUpstream) (*mmr.Tree, error) {
	if _, err := os.Stat(path); err == nil {
		store, leafCount, err := storage.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return mmr.OpenTree(store, leafCount)
	}

	genesis, err := upstream.FetchHeader(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch genesis header: %w", err)
	}
	store, err := storage.CreateFile(path, mmr.Node{Hash: genesis.Hash, Difficulty: genesis.Difficulty})
	if err != nil {
		return nil, err
	}
	return mmr.NewTree(store), nil
}

// loadOrCreateSigner loads a PEM-encoded P-256 private key, generating and
// persisting a fresh one on first run, if keyPath is set.
func loadOrCreateSigner(keyPath string) (*checkpoint.Signer, error) {
	if keyPath == "" {
		return nil, nil
	}
	if data, err := os.ReadFile(keyPath); err == nil {
		block, _ := pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("checkpoint key: malformed PEM at %s", keyPath)
		}
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		return checkpoint.NewSigner(key), nil
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(keyPath, pemBytes, 0o600); err != nil {
		return nil, err
	}
	return checkpoint.NewSigner(key), nil
}
