package csv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoadMissingFilesIsEmpty(t *testing.T) {
	s := newStore(t)
	incomes, expenses, err := s.Load(context.Background(), core.Q1)
	if err != nil {
		t.Fatalf("missing files must not fail: %v", err)
	}
	if len(incomes) != 0 || len(expenses) != 0 {
		t.Fatalf("expected empty collections, got %d/%d", len(incomes), len(expenses))
	}
}

func TestRoundTripPreservesOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	incomes := []core.IncomeRecord{
		{Amount: decimal.RequireFromString("1000"), VATRate: core.VATStandard},
		{Amount: decimal.RequireFromString("500.50"), VATRate: core.VATReduced},
		{Amount: decimal.RequireFromString("0"), VATRate: core.VATStandard},
	}
	expenses := []core.ExpenseRecord{
		{Amount: decimal.RequireFromString("400")},
		{Amount: decimal.RequireFromString("12.34")},
	}

	if err := s.SaveIncomes(ctx, core.Q2, incomes); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveExpenses(ctx, core.Q2, expenses); err != nil {
		t.Fatal(err)
	}

	gotIncomes, gotExpenses, err := s.Load(ctx, core.Q2)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotIncomes) != len(incomes) {
		t.Fatalf("expected %d incomes, got %d", len(incomes), len(gotIncomes))
	}
	for i := range incomes {
		if !gotIncomes[i].Amount.Equal(incomes[i].Amount) || !gotIncomes[i].VATRate.Equal(incomes[i].VATRate) {
			t.Fatalf("income %d mismatch: %+v vs %+v", i, gotIncomes[i], incomes[i])
		}
	}
	if len(gotExpenses) != len(expenses) {
		t.Fatalf("expected %d expenses, got %d", len(expenses), len(gotExpenses))
	}
	for i := range expenses {
		if !gotExpenses[i].Amount.Equal(expenses[i].Amount) {
			t.Fatalf("expense %d mismatch", i)
		}
	}
}

func TestSaveOverwritesWholeCollection(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := []core.IncomeRecord{
		{Amount: decimal.NewFromInt(1), VATRate: core.VATReduced},
		{Amount: decimal.NewFromInt(2), VATRate: core.VATReduced},
	}
	if err := s.SaveIncomes(ctx, core.Q1, first); err != nil {
		t.Fatal(err)
	}
	second := first[:1]
	if err := s.SaveIncomes(ctx, core.Q1, second); err != nil {
		t.Fatal(err)
	}

	got, _, err := s.Load(ctx, core.Q1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected overwrite to 1 record, got %d", len(got))
	}
}

func TestQuartersDoNotLeak(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.SaveExpenses(ctx, core.Q1, []core.ExpenseRecord{{Amount: decimal.NewFromInt(9)}}); err != nil {
		t.Fatal(err)
	}

	_, q2Expenses, err := s.Load(ctx, core.Q2)
	if err != nil {
		t.Fatal(err)
	}
	if len(q2Expenses) != 0 {
		t.Fatalf("Q2 must not see Q1 records")
	}
}

func TestLoadRejectsMalformedData(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad header", "Cantidad,IVA\n100,0.21\n"},
		{"bad amount", "Importe,IVA\nabc,0.21\n"},
		{"bad rate", "Importe,IVA\n100,0.15\n"},
		{"wrong columns", "Importe,IVA\n100\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			s, err := New(dir)
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(dir, "ingresos_1T.csv")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, err := s.Load(context.Background(), core.Q1); err == nil {
				t.Fatalf("expected load error for %s", tc.name)
			}
		})
	}
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveExpenses(context.Background(), core.Q3, []core.ExpenseRecord{{Amount: decimal.NewFromInt(1)}}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "gastos_3T.csv" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
