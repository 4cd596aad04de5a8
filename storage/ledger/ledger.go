// Package ledger is an append-only audit trail of settled vault operations
// (deposits, borrows, repays, swaps, trade opens/closes), persisted to a
// relational store for off-chain reporting — a concern the in-memory/
// LevelDB vaultstore snapshot deliberately doesn't cover, mirroring the
// teacher's use of Postgres/GORM for auxiliary relational stores alongside
// its primary key-value state.
package ledger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is one settled operation row. Quantities are stored as the raw
// smallest-unit integers the decimal package wraps; the ledger is a record
// of what happened, not a place that re-derives fixed-point semantics.
type Entry struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	RequestID  string    `gorm:"uniqueIndex;size:64"`
	VaultID    uint64    `gorm:"index"`
	UserKey    string    `gorm:"index;size:128"`
	Operation  string    `gorm:"index;size:32"`
	BaseDelta  int64
	QuoteDelta int64
	FeeAmount  uint64
	Outcome    string    `gorm:"size:16"`
	SettledAt  time.Time `gorm:"index"`
}

// TableName pins the table name so migrations don't depend on GORM's
// pluralization rules.
func (Entry) TableName() string { return "vault_ledger_entries" }

// Store wraps a *gorm.DB scoped to the ledger schema.
type Store struct {
	db *gorm.DB
}

// Open connects to a Postgres DSN and migrates the ledger table.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenWithDB wraps an already-constructed *gorm.DB, used by tests against a
// pure-Go sqlite backing instead of a live Postgres instance.
func OpenWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Record appends one settled operation to the ledger. RequestID dedupes
// retried calls: a repeat insert with the same RequestID is a no-op rather
// than a duplicate row.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.SettledAt.IsZero() {
		return gorm.ErrInvalidData
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		DoNothing: true,
	}).Create(&e).Error
}

// ForUser returns every ledger entry for userKey, most recent first, used
// by account-statement reporting.
func (s *Store) ForUser(ctx context.Context, userKey string, limit int) ([]Entry, error) {
	var entries []Entry
	q := s.db.WithContext(ctx).Where("user_key = ?", userKey).Order("settled_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ForVault returns every ledger entry for vaultID, most recent first.
func (s *Store) ForVault(ctx context.Context, vaultID uint64, limit int) ([]Entry, error) {
	var entries []Entry
	q := s.db.WithContext(ctx).Where("vault_id = ?", vaultID).Order("settled_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// parquetEntry is the column layout settled entries are exported to, read by
// the same offline-reporting tooling that reads vaultd's Postgres ledger.
type parquetEntry struct {
	RequestID  string `parquet:"name=request_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	VaultID    int64  `parquet:"name=vault_id, type=INT64"`
	UserKey    string `parquet:"name=user_key, type=BYTE_ARRAY, convertedtype=UTF8"`
	Operation  string `parquet:"name=operation, type=BYTE_ARRAY, convertedtype=UTF8"`
	BaseDelta  int64  `parquet:"name=base_delta, type=INT64"`
	QuoteDelta int64  `parquet:"name=quote_delta, type=INT64"`
	FeeAmount  int64  `parquet:"name=fee_amount, type=INT64"`
	Outcome    string `parquet:"name=outcome, type=BYTE_ARRAY, convertedtype=UTF8"`
	SettledAt  string `parquet:"name=settled_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ExportParquet writes entries to a Snappy-compressed Parquet file at path,
// for batch ingestion into an analytics warehouse outside the Postgres
// ledger itself.
func ExportParquet(path string, entries []Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ledger: create parquet: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, new(parquetEntry), 1)
	if err != nil {
		file.Close()
		return fmt.Errorf("ledger: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, e := range entries {
		row := &parquetEntry{
			RequestID:  e.RequestID,
			VaultID:    int64(e.VaultID),
			UserKey:    e.UserKey,
			Operation:  e.Operation,
			BaseDelta:  e.BaseDelta,
			QuoteDelta: e.QuoteDelta,
			FeeAmount:  int64(e.FeeAmount),
			Outcome:    e.Outcome,
			SettledAt:  e.SettledAt.Format(time.RFC3339),
		}
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			file.Close()
			return fmt.Errorf("ledger: parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return fmt.Errorf("ledger: parquet flush: %w", err)
	}
	return file.Close()
}
