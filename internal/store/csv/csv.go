// Package csv persists quarter partitions as the original CSV file layout:
// ingresos_<Q>.csv with columns Importe,IVA and gastos_<Q>.csv with a
// single Importe column, all under one data directory.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/core"
)

var (
	incomeHeader  = []string{"Importe", "IVA"}
	expenseHeader = []string{"Importe"}
)

type Store struct {
	dir string
}

// New creates a CSV store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) incomePath(q core.Quarter) string {
	return filepath.Join(s.dir, fmt.Sprintf("ingresos_%s.csv", q.Suffix()))
}

func (s *Store) expensePath(q core.Quarter) string {
	return filepath.Join(s.dir, fmt.Sprintf("gastos_%s.csv", q.Suffix()))
}

func (s *Store) Load(_ context.Context, q core.Quarter) ([]core.IncomeRecord, []core.ExpenseRecord, error) {
	incomes, err := loadIncomes(s.incomePath(q))
	if err != nil {
		return nil, nil, err
	}
	expenses, err := loadExpenses(s.expensePath(q))
	if err != nil {
		return nil, nil, err
	}
	return incomes, expenses, nil
}

func (s *Store) SaveIncomes(_ context.Context, q core.Quarter, records []core.IncomeRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, incomeHeader)
	for _, r := range records {
		rows = append(rows, []string{r.Amount.String(), r.VATRate.String()})
	}
	return writeAtomic(s.incomePath(q), rows)
}

func (s *Store) SaveExpenses(_ context.Context, q core.Quarter, records []core.ExpenseRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, expenseHeader)
	for _, r := range records {
		rows = append(rows, []string{r.Amount.String()})
	}
	return writeAtomic(s.expensePath(q), rows)
}

func loadIncomes(path string) ([]core.IncomeRecord, error) {
	rows, err := readRows(path, incomeHeader)
	if err != nil {
		return nil, err
	}
	out := make([]core.IncomeRecord, 0, len(rows))
	for i, row := range rows {
		amount, err := decimal.NewFromString(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad Importe %q", filepath.Base(path), i+2, row[0])
		}
		rate, err := decimal.NewFromString(row[1])
		if err != nil || !core.ValidVATRate(rate) {
			return nil, fmt.Errorf("%s row %d: bad IVA %q", filepath.Base(path), i+2, row[1])
		}
		out = append(out, core.IncomeRecord{Amount: amount, VATRate: rate})
	}
	return out, nil
}

func loadExpenses(path string) ([]core.ExpenseRecord, error) {
	rows, err := readRows(path, expenseHeader)
	if err != nil {
		return nil, err
	}
	out := make([]core.ExpenseRecord, 0, len(rows))
	for i, row := range rows {
		amount, err := decimal.NewFromString(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad Importe %q", filepath.Base(path), i+2, row[0])
		}
		out = append(out, core.ExpenseRecord{Amount: amount})
	}
	return out, nil
}

// readRows returns the data rows of a partition file. A missing file is a
// valid empty partition; a wrong header or column count is a hard error, no
// silent coercion.
func readRows(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		// Header-less empty file, treat as empty partition.
		return nil, nil
	}
	for i, col := range header {
		if rows[0][i] != col {
			return nil, fmt.Errorf("%s: unexpected header %v, want %v", filepath.Base(path), rows[0], header)
		}
	}
	return rows[1:], nil
}

// writeAtomic writes rows to a temp file in the same directory and renames
// it over the target, so a reader never observes a partial save.
func writeAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
