package vaultstore_test

import (
	"testing"

	"vaultcore/native/vault"
	"vaultcore/storage"
	"vaultcore/storage/vaultstore"
)

func TestPutGetVaultRoundTrip(t *testing.T) {
	store := vaultstore.New(storage.NewMemDB())
	v := vault.New(7, nil)

	if err := store.PutVault(3, v); err != nil {
		t.Fatalf("PutVault: %v", err)
	}
	services, err := store.GetVaultServices(3)
	if err != nil {
		t.Fatalf("GetVaultServices: %v", err)
	}
	if services.Lend != nil || services.Swap != nil || services.Trade != nil {
		t.Fatalf("expected no services enabled, got %+v", services)
	}
}

func TestGetVaultMissingKey(t *testing.T) {
	store := vaultstore.New(storage.NewMemDB())
	if _, err := store.GetVaultServices(42); err == nil {
		t.Fatal("expected error reading an unpersisted vault")
	}
}

func TestPutGetStatementRoundTrip(t *testing.T) {
	store := vaultstore.New(storage.NewMemDB())
	stmt := &vault.UserStatement{}

	if err := store.PutStatement("alice", stmt); err != nil {
		t.Fatalf("PutStatement: %v", err)
	}
	got, err := store.GetStatement("alice")
	if err != nil {
		t.Fatalf("GetStatement: %v", err)
	}
	if got == nil {
		t.Fatal("expected a non-nil statement")
	}
}

func TestGetStatementMissingKey(t *testing.T) {
	store := vaultstore.New(storage.NewMemDB())
	if _, err := store.GetStatement("nobody"); err == nil {
		t.Fatal("expected error reading an unpersisted statement")
	}
}
