package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"VRFOracle/internal/api"
	"VRFOracle/internal/logger"
	"VRFOracle/internal/oracle"
	"VRFOracle/internal/snapshot"
	"VRFOracle/internal/storage"
)

// Node represents a running oracle node.
type Node struct {
	cfg       *Config
	storage   *storage.Storage
	ledger    *oracle.Ledger
	api       *api.Server
	snapshots *snapshot.Manager // snapshots is nil when disabled
}

// NewNode creates and initializes a new node.
func NewNode(cfg *Config) (*Node, error) {
	n := &Node{cfg: cfg}

	steps := []func() error{
		n.initStorage,
		n.restoreSnapshot,
		n.initLedger,
		n.bootstrap,
		n.initAPI,
	}

	for _, step := range steps {
		if err := step(); err != nil {
			n.Close()
			return nil, err
		}
	}

	if cfg.SnapshotInterval > 0 {
		n.snapshots = snapshot.NewManager(n.ledger, filepath.Join(cfg.DataPath, "snapshots"), cfg.SnapshotInterval)
	}

	return n, nil
}

// initStorage initializes the Pebble storage.
func (n *Node) initStorage() error {
	if err := os.MkdirAll(n.cfg.DataPath, 0755); err != nil {
		return fmt.Errorf("create data directory:\n%w", err)
	}

	db, err := storage.Open(filepath.Join(n.cfg.DataPath, "db"), storage.Options{SyncWrites: n.cfg.SyncWrites})
	if err != nil {
		return fmt.Errorf("init storage:\n%w", err)
	}

	n.storage = db

	return nil
}

// restoreSnapshot imports RestorePath into a fresh store. A store that
// already holds a ledger is left untouched.
func (n *Node) restoreSnapshot() error {
	if n.cfg.RestorePath == "" {
		return nil
	}

	data, err := os.ReadFile(n.cfg.RestorePath)
	if err != nil {
		return fmt.Errorf("read snapshot:\n%w", err)
	}

	count, err := snapshot.Import(n.storage, data)
	if errors.Is(err, snapshot.ErrNotEmpty) {
		logger.Warn("store not empty, snapshot ignored", "path", n.cfg.RestorePath)
		return nil
	}

	if err != nil {
		return fmt.Errorf("restore snapshot:\n%w", err)
	}

	logger.Info("snapshot restored", "path", n.cfg.RestorePath, "keys", count)

	return nil
}

// initLedger opens the oracle ledger on the store.
func (n *Node) initLedger() error {
	l, err := oracle.New(n.storage, oracle.Options{
		Transferer: logTransferer{},
		CacheSize:  n.cfg.CacheSize,
	})
	if err != nil {
		return fmt.Errorf("init ledger:\n%w", err)
	}

	n.ledger = l

	return nil
}

// bootstrap configures an uninitialized ledger with the node key.
func (n *Node) bootstrap() error {
	if !n.cfg.Bootstrap {
		return nil
	}

	if n.ledger.GetAuthority().State != oracle.OwnerUninitialized {
		logger.Info("ledger already configured, skipping bootstrap")
		return nil
	}

	self := oracle.AccountFromKey(n.cfg.PrivateKey.Public().(ed25519.PublicKey))

	authorities, err := n.cfg.bootstrapAuthorities(self)
	if err != nil {
		return err
	}

	if err := n.ledger.Configure(self, self, n.cfg.BootstrapFee, authorities); err != nil {
		return fmt.Errorf("bootstrap:\n%w", err)
	}

	logger.Info("ledger bootstrapped", "authority", self, "fee", n.cfg.BootstrapFee, "authorities", len(authorities))

	return nil
}

// initAPI creates the HTTP API, with an HTTP/3 certificate derived from the
// node key when enabled.
func (n *Node) initAPI() error {
	cfg := api.Config{
		Addr:     n.cfg.HTTPAddress,
		QUICAddr: n.cfg.QUICAddress,
	}

	if cfg.QUICAddr != "" {
		cert, err := api.GenerateCertificate(n.cfg.PrivateKey)
		if err != nil {
			return fmt.Errorf("init api certificate:\n%w", err)
		}

		cfg.TLSCert = &cert
	}

	n.api = api.New(cfg, n.ledger)

	return nil
}

// Run starts the node and blocks until shutdown signal.
func (n *Node) Run() error {
	if err := n.api.Start(); err != nil {
		n.Close()
		return fmt.Errorf("start api:\n%w", err)
	}

	if n.snapshots != nil {
		n.snapshots.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	return n.Close()
}

// Close stops every component and closes the store.
func (n *Node) Close() error {
	if n.api != nil {
		if err := n.api.Stop(); err != nil {
			logger.Warn("stop api", "error", err)
		}
		n.api = nil
	}

	if n.snapshots != nil {
		n.snapshots.Stop()
		n.snapshots = nil
	}

	if n.storage == nil {
		return nil
	}

	err := n.storage.Close()
	n.storage = nil

	return err
}

// logTransferer records withdrawals for an operator to settle. The ledger
// has already validated the amount against escrow.
type logTransferer struct{}

// Transfer implements oracle.Transferer.
func (logTransferer) Transfer(_ context.Context, asset oracle.AssetID, amount uint64, recipient oracle.Identity) error {
	logger.Info("withdrawal", "asset", asset, "amount", amount, "recipient", recipient)
	return nil
}
