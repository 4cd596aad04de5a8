package main

import (
	"context"
	"flag"
	"fmt"

	"vaultcore/storage/ledger"
)

func runExportLedger(args []string) error {
	fs := flag.NewFlagSet(exportLedgerCommand, flag.ExitOnError)
	dsn := fs.String("dsn", "", "postgres DSN for the audit ledger")
	userKey := fs.String("user", "", "export entries for this user key (mutually exclusive with -vault)")
	vaultID := fs.Uint64("vault", 0, "export entries for this vault id (mutually exclusive with -user)")
	limit := fs.Int("limit", 0, "maximum rows to export, 0 for unbounded")
	out := fs.String("out", "ledger-export.parquet", "output Parquet file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return fmt.Errorf("-dsn is required")
	}
	if *userKey == "" && *vaultID == 0 {
		return fmt.Errorf("one of -user or -vault is required")
	}
	if *userKey != "" && *vaultID != 0 {
		return fmt.Errorf("-user and -vault are mutually exclusive")
	}

	store, err := ledger.Open(*dsn)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	ctx := context.Background()
	var entries []ledger.Entry
	if *userKey != "" {
		entries, err = store.ForUser(ctx, *userKey, *limit)
	} else {
		entries, err = store.ForVault(ctx, *vaultID, *limit)
	}
	if err != nil {
		return fmt.Errorf("query ledger: %w", err)
	}

	if err := ledger.ExportParquet(*out, entries); err != nil {
		return fmt.Errorf("export parquet: %w", err)
	}
	fmt.Printf("wrote %d rows to %s\n", len(entries), *out)
	return nil
}
