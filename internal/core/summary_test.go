package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func income(amount int64, rate decimal.Decimal) IncomeRecord {
	return IncomeRecord{Amount: decimal.NewFromInt(amount), VATRate: rate}
}

func expense(amount int64) ExpenseRecord {
	return ExpenseRecord{Amount: decimal.NewFromInt(amount)}
}

func assertEq(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", name, want, got)
	}
}

func TestComputeSummaryEmpty(t *testing.T) {
	s := ComputeSummary(nil, nil)
	assertEq(t, "TotalIncome", s.TotalIncome, "0")
	assertEq(t, "VATDue", s.VATDue, "0")
	assertEq(t, "TotalDue", s.TotalDue, "0")
}

func TestComputeSummaryIncomeOnly(t *testing.T) {
	incomes := []IncomeRecord{
		income(1000, VATStandard),
		income(500, VATReduced),
	}
	s := ComputeSummary(incomes, nil)

	assertEq(t, "TotalIncome", s.TotalIncome, "1500")
	assertEq(t, "TotalVATCharged", s.TotalVATCharged, "260") // 1000*0.21 + 500*0.10
	assertEq(t, "IncomeTaxOnIncome", s.IncomeTaxOnIncome, "300")
	assertEq(t, "VATDue", s.VATDue, "260")
	assertEq(t, "IncomeTaxDue", s.IncomeTaxDue, "300")
	assertEq(t, "TotalDue", s.TotalDue, "560")
}

func TestComputeSummaryWithExpenses(t *testing.T) {
	incomes := []IncomeRecord{
		income(1000, VATStandard),
		income(500, VATReduced),
	}
	expenses := []ExpenseRecord{expense(400)}
	s := ComputeSummary(incomes, expenses)

	assertEq(t, "TotalExpenses", s.TotalExpenses, "400")
	assertEq(t, "VATOnExpenses", s.VATOnExpenses, "84")
	assertEq(t, "DeductibleIncomeTax", s.DeductibleIncomeTax, "80")
	assertEq(t, "VATDue", s.VATDue, "176")             // 260 - 84
	assertEq(t, "IncomeTaxDue", s.IncomeTaxDue, "220") // (1500-400)*0.20
	assertEq(t, "TotalDue", s.TotalDue, "396")
}

func TestComputeSummaryVATCreditNotClamped(t *testing.T) {
	incomes := []IncomeRecord{income(100, VATReduced)}
	expenses := []ExpenseRecord{expense(1000)}
	s := ComputeSummary(incomes, expenses)

	assertEq(t, "VATDue", s.VATDue, "-200") // 10 - 210
	if !s.VATDue.IsNegative() {
		t.Fatalf("VAT credit position must keep its sign")
	}
}

// The direct IRPF derivation and the per-side difference coincide while
// both rates are 0.20.
func TestComputeSummaryIRPFDerivationsAgree(t *testing.T) {
	incomes := []IncomeRecord{income(1234, VATStandard), income(55, VATReduced)}
	expenses := []ExpenseRecord{expense(321), expense(7)}
	s := ComputeSummary(incomes, expenses)

	diff := s.IncomeTaxOnIncome.Sub(s.DeductibleIncomeTax)
	if !s.IncomeTaxDue.Equal(diff) {
		t.Fatalf("expected %s, got %s", diff, s.IncomeTaxDue)
	}
}

func TestComputeSummaryDoesNotMutateInputs(t *testing.T) {
	incomes := []IncomeRecord{income(10, VATReduced)}
	expenses := []ExpenseRecord{expense(5)}
	_ = ComputeSummary(incomes, expenses)

	assertEq(t, "income amount", incomes[0].Amount, "10")
	assertEq(t, "expense amount", expenses[0].Amount, "5")
}
