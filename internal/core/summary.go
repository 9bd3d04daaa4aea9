package core

import "github.com/shopspring/decimal"

// Summary is the accrued tax position of a quarter. All values carry full
// precision; VATDue keeps its sign, a negative value is a credit position.
type Summary struct {
	TotalIncome       decimal.Decimal
	TotalVATCharged   decimal.Decimal
	IncomeTaxOnIncome decimal.Decimal

	TotalExpenses       decimal.Decimal
	VATOnExpenses       decimal.Decimal
	DeductibleIncomeTax decimal.Decimal

	VATDue       decimal.Decimal
	IncomeTaxDue decimal.Decimal
	TotalDue     decimal.Decimal
}

// ComputeSummary aggregates the quarter's records into the accrued summary.
// It is pure: no I/O, no mutation of its inputs.
//
// IncomeTaxDue is derived directly as (income - expenses) * IncomeTaxRate.
// It equals IncomeTaxOnIncome - DeductibleIncomeTax only while the expense
// deduction rate and the income rate are both 0.20; the direct form is the
// authoritative one should the rates ever diverge.
func ComputeSummary(incomes []IncomeRecord, expenses []ExpenseRecord) Summary {
	var s Summary

	for _, r := range incomes {
		s.TotalIncome = s.TotalIncome.Add(r.Amount)
		s.TotalVATCharged = s.TotalVATCharged.Add(r.Amount.Mul(r.VATRate))
	}
	s.IncomeTaxOnIncome = s.TotalIncome.Mul(IncomeTaxRate)

	for _, r := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(r.Amount)
	}
	s.VATOnExpenses = s.TotalExpenses.Mul(ExpenseVATRate)
	s.DeductibleIncomeTax = s.TotalExpenses.Mul(IncomeTaxRate)

	// VATDue may go negative; a refund position must stay visible.
	s.VATDue = s.TotalVATCharged.Sub(s.VATOnExpenses)
	s.IncomeTaxDue = s.TotalIncome.Sub(s.TotalExpenses).Mul(IncomeTaxRate)
	s.TotalDue = s.VATDue.Add(s.IncomeTaxDue)

	return s
}
