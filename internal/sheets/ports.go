package sheets

import (
	"context"

	"paysched/internal/core"
)

// Ports for the ledger export adapters. The ledger is a one-row-per-payment
// mirror of the active store; trashed and purged payments are not listed.
type (
	LedgerWriter interface {
		// Upsert writes p, replacing the row already holding p.ID if any.
		Upsert(ctx context.Context, p core.Payment) (rowRef string, err error)
		// Remove deletes the row of id. A missing row is not an error.
		Remove(ctx context.Context, id int64) error
	}

	// LedgerReader reports what the ledger currently holds, so a reconcile
	// pass can skip rows that are already up to date.
	LedgerReader interface {
		Versions(ctx context.Context) (map[int64]int64, error)
	}

	Ledger interface {
		LedgerWriter
		LedgerReader
	}
)

// Header is the first row of the ledger sheet.
var Header = []string{
	"ID", "Payee", "Amount", "Due date", "Status", "Method", "Type",
	"Original due date", "Planned date", "Deferred reason", "Notes", "Document", "Version",
}
