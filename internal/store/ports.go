// Package store defines the ports for durable per-quarter ledger storage.
package store

import (
	"context"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/core"
)

// Ports for outbound storage adapters.
type (
	// Loader reads the two persisted collections of a quarter. A quarter
	// with no prior data yields empty collections, never an error; data
	// that does not match the canonical schema is an error.
	Loader interface {
		Load(ctx context.Context, q core.Quarter) ([]core.IncomeRecord, []core.ExpenseRecord, error)
	}

	// Saver overwrites one full persisted collection of a quarter. A
	// completed save must be observable as exactly the given records;
	// partial writes must never be visible to a later Load.
	Saver interface {
		SaveIncomes(ctx context.Context, q core.Quarter, records []core.IncomeRecord) error
		SaveExpenses(ctx context.Context, q core.Quarter, records []core.ExpenseRecord) error
	}

	// Store is the full storage contract the ledger depends on.
	Store interface {
		Loader
		Saver
	}
)
