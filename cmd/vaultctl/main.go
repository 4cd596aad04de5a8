// Command vaultctl is the operator-facing companion to vaultd: it exports
// ledger entries to Parquet for offline analytics and pauses services
// across a running deployment's config file, following the subcommand
// shape of the teacher's cmd/nhbctl.
package main

import (
	"fmt"
	"os"

	"vaultcore/cmd/vaultctl/internal/confirm"
)

const (
	exportLedgerCommand = "export-ledger"
	pauseCommand        = "pause"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case exportLedgerCommand:
		err = runExportLedger(os.Args[2:])
	case pauseCommand:
		err = runPause(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: vaultctl <%s|%s> [flags]\n", exportLedgerCommand, pauseCommand)
}

// confirmDestructive is used by runPause to require the operator type the
// module name back before a pause takes effect, mirroring confirm.Source's
// interactive-terminal guard.
var confirmDestructive = confirm.NewSource("VAULTCTL_CONFIRM")
