// Package sqlite persists quarter partitions in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/core"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads both partitions of the quarter, concurrently.
func (s *Store) Load(ctx context.Context, q core.Quarter) ([]core.IncomeRecord, []core.ExpenseRecord, error) {
	var (
		incomes  []core.IncomeRecord
		expenses []core.ExpenseRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = s.loadIncomes(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.loadExpenses(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return incomes, expenses, nil
}

func (s *Store) loadIncomes(ctx context.Context, q core.Quarter) ([]core.IncomeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount, vat_rate FROM incomes WHERE quarter = ? ORDER BY position`,
		q.Suffix())
	if err != nil {
		return nil, fmt.Errorf("query incomes: %w", err)
	}
	defer rows.Close()

	out := []core.IncomeRecord{}
	for rows.Next() {
		var amountStr, rateStr string
		if err := rows.Scan(&amountStr, &rateStr); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("incomes %s: bad amount %q", q, amountStr)
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil || !core.ValidVATRate(rate) {
			return nil, fmt.Errorf("incomes %s: bad vat rate %q", q, rateStr)
		}
		out = append(out, core.IncomeRecord{Amount: amount, VATRate: rate})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incomes: %w", err)
	}
	return out, nil
}

func (s *Store) loadExpenses(ctx context.Context, q core.Quarter) ([]core.ExpenseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount FROM expenses WHERE quarter = ? ORDER BY position`,
		q.Suffix())
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	out := []core.ExpenseRecord{}
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("expenses %s: bad amount %q", q, amountStr)
		}
		out = append(out, core.ExpenseRecord{Amount: amount})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// SaveIncomes replaces the income partition of the quarter inside one
// transaction, so a reader sees either the old or the new collection.
func (s *Store) SaveIncomes(ctx context.Context, q core.Quarter, records []core.IncomeRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM incomes WHERE quarter = ?`, q.Suffix()); err != nil {
			return fmt.Errorf("clear incomes: %w", err)
		}
		for i, r := range records {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO incomes (quarter, position, amount, vat_rate) VALUES (?, ?, ?, ?)`,
				q.Suffix(), i, r.Amount.String(), r.VATRate.String())
			if err != nil {
				return fmt.Errorf("insert income %d: %w", i, err)
			}
		}
		return nil
	})
}

// SaveExpenses replaces the expense partition of the quarter, same contract
// as SaveIncomes.
func (s *Store) SaveExpenses(ctx context.Context, q core.Quarter, records []core.ExpenseRecord) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE quarter = ?`, q.Suffix()); err != nil {
			return fmt.Errorf("clear expenses: %w", err)
		}
		for i, r := range records {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO expenses (quarter, position, amount) VALUES (?, ?, ?)`,
				q.Suffix(), i, r.Amount.String())
			if err != nil {
				return fmt.Errorf("insert expense %d: %w", i, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
