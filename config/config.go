// Package config loads the TOML configuration shared by the prover and
// light-client binaries.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Prover is flyclient-serverd's configuration.
type Prover struct {
	ListenAddress     string        `toml:"listen_address"`
	StoragePath       string        `toml:"storage_path"`
	HeaderCachePath   string        `toml:"header_cache_path"`
	UpstreamRPC       string        `toml:"upstream_rpc"`
	DefaultLambda     uint64        `toml:"default_lambda"`
	DefaultCPercent   uint64        `toml:"default_c_percent"`
	DefaultL          uint64        `toml:"default_l"`
	LogLevel          string        `toml:"log_level"`
	JobQueueSize      int           `toml:"job_queue_size"`
	PollInterval      time.Duration `toml:"poll_interval"`
	CheckpointKeyPath string        `toml:"checkpoint_key_path"`
	CheckpointEvery   uint64        `toml:"checkpoint_every"`
}

// Client is flyclient-lightcli's configuration.
type Client struct {
	ServerAddress      string `toml:"server_address"`
	HeaderCachePath    string `toml:"header_cache_path"`
	Lambda             uint64 `toml:"lambda"`
	CPercent           uint64 `toml:"c_percent"`
	L                  uint64 `toml:"l"`
	LogLevel           string `toml:"log_level"`
	CheckpointPubKeyPath string `toml:"checkpoint_pubkey_path"`
}

// DefaultProver returns sane defaults, matching the reference prototype's
// own constants (LAMBDA=50, C=50, L=100) and a bounded job queue sized the
// same as the reference's bounded channel.
func DefaultProver() Prover {
	return Prover{
		ListenAddress:   "127.0.0.1:7654",
		StoragePath:     "mmr.bin",
		HeaderCachePath: "headers.csv",
		DefaultLambda:   50,
		DefaultCPercent: 50,
		DefaultL:        100,
		LogLevel:        "NOOP",
		JobQueueSize:    1024,
		PollInterval:    5 * time.Second,
		CheckpointEvery: 10000,
	}
}

// DefaultClient returns sane defaults mirroring DefaultProver's constants.
func DefaultClient() Client {
	return Client{
		ServerAddress:   "127.0.0.1:7654",
		HeaderCachePath: "headers.csv",
		Lambda:          50,
		CPercent:        50,
		L:               100,
		LogLevel:        "NOOP",
	}
}

// LoadProver reads and decodes a prover TOML config file, starting from
// DefaultProver and overlaying whatever keys the file sets.
func LoadProver(path string) (Prover, error) {
	cfg := DefaultProver()
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}

// LoadClient reads and decodes a light-client TOML config file.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
