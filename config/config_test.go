package config_test

import (
	"path/filepath"
	"testing"

	"vaultcore/config"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddress == "" || cfg.StorageBackend != "leveldb" {
		t.Fatalf("expected defaults filled in, got %+v", cfg)
	}

	reloaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ListenAddress != cfg.ListenAddress {
		t.Fatalf("expected the written default file to round-trip, got %+v", reloaded)
	}
}

func TestIsPaused(t *testing.T) {
	cfg := &config.Config{}
	cfg.EnsureDefaults()
	cfg.Risk.Paused = []string{"lend"}

	if !cfg.IsPaused("lend") {
		t.Fatal("expected lend to be paused")
	}
	if cfg.IsPaused("swap") {
		t.Fatal("expected swap to not be paused")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := &config.Config{AllowedClientCNs: []string{"a"}}
	cfg.Risk.Paused = []string{"lend"}

	clone := cfg.Clone()
	clone.AllowedClientCNs[0] = "b"
	clone.Risk.Paused[0] = "swap"

	if cfg.AllowedClientCNs[0] != "a" {
		t.Fatalf("mutating the clone changed the original: %+v", cfg)
	}
	if cfg.Risk.Paused[0] != "lend" {
		t.Fatalf("mutating the clone's Paused changed the original: %+v", cfg)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	cfg := &config.Config{}
	cfg.EnsureDefaults()
	cfg.StorageBackend = "bolt"

	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.StorageBackend != "bolt" {
		t.Fatalf("expected StorageBackend bolt, got %q", reloaded.StorageBackend)
	}
}
