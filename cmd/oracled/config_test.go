package main

import (
	"testing"
	"time"

	"VRFOracle/internal/oracle"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(nil)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.DataPath != "./data" || cfg.HTTPAddress != ":8080" || cfg.QUICAddress != "" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	if !cfg.SyncWrites || cfg.CacheSize != 4096 || cfg.SnapshotInterval != time.Minute {
		t.Errorf("unexpected storage defaults: %+v", cfg)
	}
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ORACLE_HTTP", ":9000")
	t.Setenv("ORACLE_DATA", "/env/data")
	t.Setenv("ORACLE_SNAPSHOT_INTERVAL", "30s")

	cfg, err := loadConfig([]string{"-data", "/flag/data", "-bootstrap"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.HTTPAddress != ":9000" {
		t.Errorf("http = %q, want env value", cfg.HTTPAddress)
	}

	if cfg.DataPath != "/flag/data" {
		t.Errorf("data = %q, want flag value", cfg.DataPath)
	}

	if cfg.SnapshotInterval != 30*time.Second {
		t.Errorf("snapshot interval = %v", cfg.SnapshotInterval)
	}

	if !cfg.Bootstrap {
		t.Error("bootstrap flag not applied")
	}
}

func TestLoadConfigBadEnv(t *testing.T) {
	t.Setenv("ORACLE_CACHE_SIZE", "lots")

	if _, err := loadConfig(nil); err == nil {
		t.Fatal("expected error for malformed environment value")
	}
}

func TestBootstrapAuthorities(t *testing.T) {
	self := oracle.AccountID([32]byte{1})

	cfg := &Config{}
	ids, err := cfg.bootstrapAuthorities(self)
	if err != nil || len(ids) != 1 || ids[0] != self {
		t.Fatalf("default authorities = %v, %v", ids, err)
	}

	a := oracle.AccountID([32]byte{2})
	b := oracle.ContractID([32]byte{3})
	cfg.Authorities = a.String() + ", " + b.String()

	ids, err = cfg.bootstrapAuthorities(self)
	if err != nil {
		t.Fatalf("parse authorities: %v", err)
	}

	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Errorf("authorities = %v", ids)
	}

	cfg.Authorities = "account:zz"
	if _, err := cfg.bootstrapAuthorities(self); err == nil {
		t.Error("expected error for malformed authority")
	}
}
