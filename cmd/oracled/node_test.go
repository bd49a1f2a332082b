package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"VRFOracle/internal/oracle"
	"VRFOracle/internal/snapshot"
	"VRFOracle/internal/storage"
)

func testConfig(t *testing.T, dir string) *Config {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	return &Config{
		DataPath:     dir,
		HTTPAddress:  "127.0.0.1:0",
		CacheSize:    16,
		Bootstrap:    true,
		BootstrapFee: 3,
		PrivateKey:   priv,
	}
}

func TestNodeBootstrap(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	n, err := NewNode(cfg)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	defer n.Close()

	self := oracle.AccountFromKey(cfg.PrivateKey.Public().(ed25519.PublicKey))

	if got := n.ledger.GetAuthority(); !got.Is(self) {
		t.Errorf("authority = %+v, want node key", got)
	}

	if fee, _ := n.ledger.GetFee(oracle.BaseAsset); fee != 3 {
		t.Errorf("base fee = %d, want 3", fee)
	}

	if ids := n.ledger.GetFulfillmentAuthorities(); len(ids) != 1 || ids[0] != self {
		t.Errorf("authorities = %v", ids)
	}
}

func TestNodeRestoreSnapshot(t *testing.T) {
	src := testConfig(t, t.TempDir())

	n, err := NewNode(src)
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}

	if _, err := n.ledger.Request(oracle.ContractID([32]byte{9}), oracle.Seed{1}, oracle.Payment{Asset: oracle.BaseAsset, Amount: 3}); err != nil {
		t.Fatalf("request: %v", err)
	}

	var data []byte
	err = n.ledger.View(func(db *storage.Storage) error {
		var err error
		data, err = snapshot.Export(db)
		return err
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	n.Close()

	path := filepath.Join(t.TempDir(), "restore.snapshot.zst")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	dst := testConfig(t, t.TempDir())
	dst.RestorePath = path

	restored, err := NewNode(dst)
	if err != nil {
		t.Fatalf("NewNode with restore: %v", err)
	}
	defer restored.Close()

	if got := restored.ledger.GetNumRequests(); got != 1 {
		t.Errorf("restored requests = %d, want 1", got)
	}

	// The restored ledger is already configured, so bootstrap left it alone.
	if got := restored.ledger.GetAuthority(); got != n.ledger.GetAuthority() {
		t.Errorf("authority changed by bootstrap: %+v", got)
	}
}
