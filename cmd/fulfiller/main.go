package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"VRFOracle/client"
	"VRFOracle/internal/fulfiller"
	"VRFOracle/internal/keyfile"
	"VRFOracle/internal/logger"
)

// Config holds the fulfiller configuration, read from FULFILLER_*
// environment variables and overridden by flags.
type Config struct {
	Node     string        `envconfig:"NODE" default:"http://localhost:8080"` // Node is the oracle node URL
	NodeKey  string        `envconfig:"NODE_KEY"`                             // NodeKey is the hex node pubkey; set to use HTTP/3
	KeyPath  string        `envconfig:"KEY" default:"./fulfiller.key"`        // KeyPath is the authority key file
	Interval time.Duration `envconfig:"INTERVAL" default:"2s"`                // Interval between polls
	LogLevel string        `envconfig:"LOG_LEVEL" default:"info"`             // LogLevel is one of debug, info, warn, error
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := &Config{}

	if err := envconfig.Process("FULFILLER", cfg); err != nil {
		return fmt.Errorf("read environment:\n%w", err)
	}

	fs := flag.NewFlagSet("fulfiller", flag.ContinueOnError)
	fs.StringVar(&cfg.Node, "node", cfg.Node, "Oracle node URL")
	fs.StringVar(&cfg.NodeKey, "node-key", cfg.NodeKey, "Hex node public key (enables HTTP/3)")
	fs.StringVar(&cfg.KeyPath, "key", cfg.KeyPath, "Authority Ed25519 key path (generates new if missing)")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Polling interval")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	logger.Init(logger.ParseLevel(cfg.LogLevel))

	key, err := keyfile.LoadOrGenerate(cfg.KeyPath)
	if err != nil {
		return fmt.Errorf("load key:\n%w", err)
	}

	wallet := client.WalletFromKey(key)
	opts := []client.Option{client.WithWallet(wallet)}

	if cfg.NodeKey != "" {
		nodeKey, err := hex.DecodeString(cfg.NodeKey)
		if err != nil {
			return fmt.Errorf("node key:\n%w", err)
		}

		opts = append(opts, client.WithHTTP3(nodeKey))
		cfg.Node = "https://" + strings.TrimPrefix(strings.TrimPrefix(cfg.Node, "http://"), "https://")
	}

	c := client.New(cfg.Node, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = c.Health(ctx)
	cancel()

	if err != nil {
		return fmt.Errorf("node unreachable:\n%w", err)
	}

	logger.Info("starting fulfiller", "authority", wallet.Identity(), "node", cfg.Node, "interval", cfg.Interval)

	w := fulfiller.New(c, wallet.Identity(), cfg.Interval)
	w.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String(), "cursor", w.Cursor())

	w.Stop()

	return nil
}
