package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmptyDatabase(t *testing.T) {
	s := newStore(t)
	incomes, expenses, err := s.Load(context.Background(), core.Q4)
	if err != nil {
		t.Fatal(err)
	}
	if len(incomes) != 0 || len(expenses) != 0 {
		t.Fatalf("expected empty collections, got %d/%d", len(incomes), len(expenses))
	}
}

func TestRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	incomes := []core.IncomeRecord{
		{Amount: decimal.RequireFromString("1000"), VATRate: core.VATStandard},
		{Amount: decimal.RequireFromString("500.50"), VATRate: core.VATReduced},
	}
	expenses := []core.ExpenseRecord{
		{Amount: decimal.RequireFromString("400")},
	}

	if err := s.SaveIncomes(ctx, core.Q1, incomes); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveExpenses(ctx, core.Q1, expenses); err != nil {
		t.Fatal(err)
	}

	gotIncomes, gotExpenses, err := s.Load(ctx, core.Q1)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotIncomes) != 2 || len(gotExpenses) != 1 {
		t.Fatalf("unexpected counts: %d incomes, %d expenses", len(gotIncomes), len(gotExpenses))
	}
	for i := range incomes {
		if !gotIncomes[i].Amount.Equal(incomes[i].Amount) || !gotIncomes[i].VATRate.Equal(incomes[i].VATRate) {
			t.Fatalf("income %d mismatch: %+v", i, gotIncomes[i])
		}
	}
	if !gotExpenses[0].Amount.Equal(expenses[0].Amount) {
		t.Fatalf("expense mismatch: %+v", gotExpenses[0])
	}
}

func TestSaveReplacesPartition(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	three := []core.ExpenseRecord{
		{Amount: decimal.NewFromInt(1)},
		{Amount: decimal.NewFromInt(2)},
		{Amount: decimal.NewFromInt(3)},
	}
	if err := s.SaveExpenses(ctx, core.Q2, three); err != nil {
		t.Fatal(err)
	}
	// Drop the middle element, as a confirmed deletion does.
	two := []core.ExpenseRecord{three[0], three[2]}
	if err := s.SaveExpenses(ctx, core.Q2, two); err != nil {
		t.Fatal(err)
	}

	_, got, err := s.Load(ctx, core.Q2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(got))
	}
	if !got[0].Amount.Equal(decimal.NewFromInt(1)) || !got[1].Amount.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("order not preserved: %+v", got)
	}
}

func TestQuarterIsolation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.SaveIncomes(ctx, core.Q1, []core.IncomeRecord{
		{Amount: decimal.NewFromInt(100), VATRate: core.VATReduced},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveIncomes(ctx, core.Q3, []core.IncomeRecord{
		{Amount: decimal.NewFromInt(7), VATRate: core.VATStandard},
	}); err != nil {
		t.Fatal(err)
	}

	q1, _, err := s.Load(ctx, core.Q1)
	if err != nil {
		t.Fatal(err)
	}
	if len(q1) != 1 || !q1[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("Q1 partition polluted: %+v", q1)
	}
}
