// Package ledger holds the in-memory authoritative state of the active
// quarter and mediates every mutation through the store: each add or
// confirmed delete persists the full collection before it becomes visible
// in memory.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/core"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/store"
)

const (
	ActionIncomeAdded   = "income_added"
	ActionExpenseAdded  = "expense_added"
	ActionRecordDeleted = "record_deleted"
)

// ErrNotLoaded is returned when a mutation or query runs before any
// quarter has been loaded via SwitchQuarter.
var ErrNotLoaded = errors.New("no quarter loaded")

// Event describes a completed ledger mutation for outbound notification.
type Event struct {
	Action  string
	Quarter core.Quarter
	Kind    core.RecordKind
	Index   int
	Amount  decimal.Decimal
	VATRate decimal.Decimal
}

// Notifier receives an Event after each successful mutation. Failures are
// logged by the ledger and never propagated to the caller.
type Notifier interface {
	PublishLedgerEvent(ctx context.Context, ev Event) error
}

// Ledger is the per-session aggregate. It is owned by the caller and not
// safe for concurrent use; the session model is single-threaded
// cooperative, one fully-completed action at a time.
type Ledger struct {
	store    store.Store
	notifier Notifier

	quarter  core.Quarter
	loaded   bool
	incomes  []core.IncomeRecord
	expenses []core.ExpenseRecord
	pending  *core.PendingDeletion
}

// New creates a ledger over the given store. notifier may be nil.
func New(st store.Store, notifier Notifier) *Ledger {
	return &Ledger{store: st, notifier: notifier}
}

// SwitchQuarter makes q the active quarter, discarding current state and
// loading q's partitions. Calling it again with the loaded quarter is a
// no-op with no store traffic. Any pending deletion is dropped.
func (l *Ledger) SwitchQuarter(ctx context.Context, q core.Quarter) error {
	if !q.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidQuarter, string(q))
	}
	if l.loaded && l.quarter == q {
		return nil
	}

	incomes, expenses, err := l.store.Load(ctx, q)
	if err != nil {
		return fmt.Errorf("load quarter %s: %w", q, err)
	}

	l.quarter = q
	l.loaded = true
	l.incomes = incomes
	l.expenses = expenses
	l.pending = nil

	slog.InfoContext(ctx, "Quarter loaded",
		"quarter", q.String(),
		"incomes", len(incomes),
		"expenses", len(expenses))
	return nil
}

// Quarter returns the active quarter, if one is loaded.
func (l *Ledger) Quarter() (core.Quarter, bool) {
	return l.quarter, l.loaded
}

// AddIncome validates and appends an invoice, persists the full income
// collection, and returns the updated summary. On a persist failure the
// in-memory state is unchanged.
func (l *Ledger) AddIncome(ctx context.Context, amount, vatRate decimal.Decimal) (core.Summary, error) {
	if !l.loaded {
		return core.Summary{}, ErrNotLoaded
	}
	rec := core.IncomeRecord{Amount: amount, VATRate: vatRate}
	if err := rec.Validate(); err != nil {
		return core.Summary{}, err
	}

	next := append(l.incomes[:len(l.incomes):len(l.incomes)], rec)
	if err := l.store.SaveIncomes(ctx, l.quarter, next); err != nil {
		return core.Summary{}, fmt.Errorf("persist incomes: %w", err)
	}
	l.incomes = next

	l.notify(ctx, Event{
		Action:  ActionIncomeAdded,
		Quarter: l.quarter,
		Kind:    core.KindIncome,
		Index:   len(next) - 1,
		Amount:  amount,
		VATRate: vatRate,
	})
	return l.Summary(), nil
}

// AddExpense validates and appends an expense, persists the full expense
// collection, and returns the updated summary.
func (l *Ledger) AddExpense(ctx context.Context, amount decimal.Decimal) (core.Summary, error) {
	if !l.loaded {
		return core.Summary{}, ErrNotLoaded
	}
	rec := core.ExpenseRecord{Amount: amount}
	if err := rec.Validate(); err != nil {
		return core.Summary{}, err
	}

	next := append(l.expenses[:len(l.expenses):len(l.expenses)], rec)
	if err := l.store.SaveExpenses(ctx, l.quarter, next); err != nil {
		return core.Summary{}, fmt.Errorf("persist expenses: %w", err)
	}
	l.expenses = next

	l.notify(ctx, Event{
		Action:  ActionExpenseAdded,
		Quarter: l.quarter,
		Kind:    core.KindExpense,
		Index:   len(next) - 1,
		Amount:  amount,
	})
	return l.Summary(), nil
}

// Incomes returns a snapshot copy of the income records in insertion order.
func (l *Ledger) Incomes() []core.IncomeRecord {
	return append([]core.IncomeRecord(nil), l.incomes...)
}

// Expenses returns a snapshot copy of the expense records in insertion order.
func (l *Ledger) Expenses() []core.ExpenseRecord {
	return append([]core.ExpenseRecord(nil), l.expenses...)
}

// RequestDelete stores the confirmation token for removing the record at
// index. Indices are positional and ephemeral: a later deletion shifts
// subsequent indices down, which is why the token is resolved against
// current state at confirm time. The index is bounds-checked here, at
// request time; a new request replaces any previous token.
func (l *Ledger) RequestDelete(kind core.RecordKind, index int) error {
	if !l.loaded {
		return ErrNotLoaded
	}
	if !kind.Valid() {
		return fmt.Errorf("invalid record kind: %q", string(kind))
	}
	length := len(l.expenses)
	if kind == core.KindIncome {
		length = len(l.incomes)
	}
	if index < 0 || index >= length {
		return fmt.Errorf("%w: %s %d of %d", core.ErrIndexOutOfRange, kind, index, length)
	}
	l.pending = &core.PendingDeletion{Kind: kind, Index: index}
	return nil
}

// Pending returns the current pending deletion, if any.
func (l *Ledger) Pending() (core.PendingDeletion, bool) {
	if l.pending == nil {
		return core.PendingDeletion{}, false
	}
	return *l.pending, true
}

// ConfirmDelete resolves the pending token against current state: it
// removes the record, persists the shrunk collection, and clears the
// token. A token whose index no longer exists (the collection shrank since
// the request) is discarded as a safe no-op. Without a token it reports
// core.ErrNoPendingDeletion and mutates nothing.
func (l *Ledger) ConfirmDelete(ctx context.Context) error {
	if l.pending == nil {
		return core.ErrNoPendingDeletion
	}
	p := *l.pending

	switch p.Kind {
	case core.KindIncome:
		if p.Index >= len(l.incomes) {
			// Stale token, the collection shrank since the request.
			l.pending = nil
			return nil
		}
		next := removeIncome(l.incomes, p.Index)
		if err := l.store.SaveIncomes(ctx, l.quarter, next); err != nil {
			return fmt.Errorf("persist incomes: %w", err)
		}
		l.incomes = next
	case core.KindExpense:
		if p.Index >= len(l.expenses) {
			l.pending = nil
			return nil
		}
		next := removeExpense(l.expenses, p.Index)
		if err := l.store.SaveExpenses(ctx, l.quarter, next); err != nil {
			return fmt.Errorf("persist expenses: %w", err)
		}
		l.expenses = next
	}

	l.pending = nil
	l.notify(ctx, Event{
		Action:  ActionRecordDeleted,
		Quarter: l.quarter,
		Kind:    p.Kind,
		Index:   p.Index,
	})
	return nil
}

// CancelDelete discards the pending token without touching any record.
func (l *Ledger) CancelDelete() {
	l.pending = nil
}

// Summary computes the accrued tax position of the current state.
func (l *Ledger) Summary() core.Summary {
	return core.ComputeSummary(l.incomes, l.expenses)
}

func (l *Ledger) notify(ctx context.Context, ev Event) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.PublishLedgerEvent(ctx, ev); err != nil {
		// The mutation is already persisted; a lost event never fails it.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"action", ev.Action,
			"quarter", ev.Quarter.String(),
			"error", err)
	}
}

func removeIncome(in []core.IncomeRecord, i int) []core.IncomeRecord {
	out := make([]core.IncomeRecord, 0, len(in)-1)
	out = append(out, in[:i]...)
	return append(out, in[i+1:]...)
}

func removeExpense(in []core.ExpenseRecord, i int) []core.ExpenseRecord {
	out := make([]core.ExpenseRecord, 0, len(in)-1)
	out = append(out, in[:i]...)
	return append(out, in[i+1:]...)
}
