package ledger_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vaultcore/storage/ledger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestRecordIsIdempotent(t *testing.T) {
	store, err := ledger.OpenWithDB(setupTestDB(t))
	require.NoError(t, err)

	ctx := context.Background()
	entry := ledger.Entry{
		RequestID: "req-1",
		VaultID:   1,
		UserKey:   "alice",
		Operation: "deposit",
		BaseDelta: 1_000,
		Outcome:   "ok",
		SettledAt: time.Now().UTC(),
	}
	require.NoError(t, store.Record(ctx, entry))
	require.NoError(t, store.Record(ctx, entry))

	entries, err := store.ForUser(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestForUserAndForVault(t *testing.T) {
	store, err := ledger.OpenWithDB(setupTestDB(t))
	require.NoError(t, err)

	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, store.Record(ctx, ledger.Entry{RequestID: "a", VaultID: 1, UserKey: "alice", Operation: "deposit", SettledAt: now}))
	require.NoError(t, store.Record(ctx, ledger.Entry{RequestID: "b", VaultID: 1, UserKey: "bob", Operation: "deposit", SettledAt: now}))
	require.NoError(t, store.Record(ctx, ledger.Entry{RequestID: "c", VaultID: 2, UserKey: "alice", Operation: "borrow", SettledAt: now}))

	byUser, err := store.ForUser(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, byUser, 2)

	byVault, err := store.ForVault(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, byVault, 2)
}

func TestExportParquet(t *testing.T) {
	entries := []ledger.Entry{
		{RequestID: "a", VaultID: 1, UserKey: "alice", Operation: "deposit", BaseDelta: 1_000, SettledAt: time.Now().UTC()},
		{RequestID: "b", VaultID: 1, UserKey: "alice", Operation: "borrow", BaseDelta: 500, SettledAt: time.Now().UTC()},
	}
	path := filepath.Join(t.TempDir(), "ledger.parquet")
	require.NoError(t, ledger.ExportParquet(path, entries))
}
