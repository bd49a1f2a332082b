package main

import (
	"crypto/ed25519"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"VRFOracle/internal/oracle"
)

// envPrefix prefixes every environment variable read by the daemon.
const envPrefix = "ORACLE"

// Config holds the node configuration. Fields are read from ORACLE_*
// environment variables first; command-line flags override them.
type Config struct {
	// DataPath is the directory for persistent storage.
	DataPath string `envconfig:"DATA" default:"./data"`

	// HTTPAddress is the HTTP API listen address.
	HTTPAddress string `envconfig:"HTTP" default:":8080"`

	// QUICAddress is the HTTP/3 listen address. Empty disables HTTP/3.
	QUICAddress string `envconfig:"QUIC"`

	// KeyPath is the path to the Ed25519 private key file.
	KeyPath string `envconfig:"KEY"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// SyncWrites commits every ledger mutation with a WAL sync.
	SyncWrites bool `envconfig:"SYNC_WRITES" default:"true"`

	// CacheSize is the number of randomness records kept decoded.
	CacheSize int `envconfig:"CACHE_SIZE" default:"4096"`

	// SnapshotInterval is the period of on-disk snapshots. Zero disables them.
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"1m"`

	// RestorePath is a snapshot file imported into an empty store at startup.
	RestorePath string `envconfig:"RESTORE"`

	// Bootstrap configures an uninitialized ledger with the node key as
	// governing authority.
	Bootstrap bool `envconfig:"BOOTSTRAP"`

	// BootstrapFee is the base-asset fee set by Bootstrap.
	BootstrapFee uint64 `envconfig:"BOOTSTRAP_FEE" default:"1"`

	// Authorities is the comma-separated fulfillment authority list set by
	// Bootstrap. Empty means the node key alone.
	Authorities string `envconfig:"AUTHORITIES"`

	// PrivateKey is the node's Ed25519 key.
	PrivateKey ed25519.PrivateKey `ignored:"true"`
}

// loadConfig reads the environment, then parses args over it.
func loadConfig(args []string) (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("read environment:\n%w", err)
	}

	fs := flag.NewFlagSet("oracled", flag.ContinueOnError)

	fs.StringVar(&cfg.DataPath, "data", cfg.DataPath, "Data directory path")
	fs.StringVar(&cfg.HTTPAddress, "http", cfg.HTTPAddress, "HTTP API address")
	fs.StringVar(&cfg.QUICAddress, "quic", cfg.QUICAddress, "HTTP/3 API address (empty disables)")
	fs.StringVar(&cfg.KeyPath, "key", cfg.KeyPath, "Ed25519 private key path (generates new if missing)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.SyncWrites, "sync-writes", cfg.SyncWrites, "Sync the WAL on every commit")
	fs.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "Randomness record cache size")
	fs.DurationVar(&cfg.SnapshotInterval, "snapshot-interval", cfg.SnapshotInterval, "On-disk snapshot period (0 disables)")
	fs.StringVar(&cfg.RestorePath, "restore", cfg.RestorePath, "Snapshot file to restore into an empty store")
	fs.BoolVar(&cfg.Bootstrap, "bootstrap", cfg.Bootstrap, "Configure an uninitialized ledger with the node key as authority")
	fs.Uint64Var(&cfg.BootstrapFee, "bootstrap-fee", cfg.BootstrapFee, "Base-asset fee set by -bootstrap")
	fs.StringVar(&cfg.Authorities, "authorities", cfg.Authorities, "Comma-separated fulfillment authorities set by -bootstrap")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return cfg, nil
}

// bootstrapAuthorities parses Authorities, defaulting to self.
func (c *Config) bootstrapAuthorities(self oracle.Identity) ([]oracle.Identity, error) {
	if strings.TrimSpace(c.Authorities) == "" {
		return []oracle.Identity{self}, nil
	}

	var ids []oracle.Identity

	for _, field := range strings.Split(c.Authorities, ",") {
		id, err := oracle.ParseIdentity(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("authority %q:\n%w", field, err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}
