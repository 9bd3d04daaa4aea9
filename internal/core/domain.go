package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Q1 Quarter = "1T"
	Q2 Quarter = "2T"
	Q3 Quarter = "3T"
	Q4 Quarter = "4T"

	KindIncome  RecordKind = "ingreso"
	KindExpense RecordKind = "gasto"
)

type (
	// Quarter selects one of the four fiscal reporting periods. Its string
	// value doubles as the storage partition suffix (ingresos_1T.csv, ...).
	Quarter string

	// RecordKind distinguishes the two record collections of a ledger.
	RecordKind string

	// IncomeRecord is a single invoice: taxable base plus the VAT rate
	// charged on it. Immutable once created except via deletion.
	IncomeRecord struct {
		Amount  decimal.Decimal
		VATRate decimal.Decimal
	}

	// ExpenseRecord is a single deductible expense. VAT and income-tax
	// deduction rates on expenses are global constants, not per record.
	ExpenseRecord struct {
		Amount decimal.Decimal
	}

	// PendingDeletion is the transient confirmation token gating a removal.
	// At most one exists per ledger; it is never persisted.
	PendingDeletion struct {
		Kind  RecordKind
		Index int
	}
)

var (
	// VATReduced and VATStandard are the only rates an invoice may carry.
	VATReduced  = decimal.New(10, -2) // 0.10
	VATStandard = decimal.New(21, -2) // 0.21

	// ExpenseVATRate is the fixed VAT rate assumed on every expense.
	ExpenseVATRate = VATStandard

	// IncomeTaxRate is the IRPF withholding rate, applied to income and
	// deductible against expenses at the same rate.
	IncomeTaxRate = decimal.New(20, -2) // 0.20
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidVATRate    = errors.New("invalid vat rate")
	ErrInvalidQuarter    = errors.New("invalid quarter")
	ErrIndexOutOfRange   = errors.New("record index out of range")
	ErrNoPendingDeletion = errors.New("no pending deletion")
)

// Quarters lists all valid quarters in fiscal order.
func Quarters() []Quarter {
	return []Quarter{Q1, Q2, Q3, Q4}
}

// ParseQuarter accepts the storage tag ("1T"), the short form ("Q1") or a
// bare digit ("1"), case-insensitively.
func ParseQuarter(s string) (Quarter, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "1T", "Q1", "1":
		return Q1, nil
	case "2T", "Q2", "2":
		return Q2, nil
	case "3T", "Q3", "3":
		return Q3, nil
	case "4T", "Q4", "4":
		return Q4, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQuarter, s)
}

func (q Quarter) Valid() bool {
	switch q {
	case Q1, Q2, Q3, Q4:
		return true
	}
	return false
}

// Suffix returns the partition tag used in file and sheet names.
func (q Quarter) Suffix() string {
	return string(q)
}

func (q Quarter) String() string {
	return string(q)
}

func (k RecordKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (k RecordKind) String() string {
	return string(k)
}

// ValidVATRate reports whether rate is one of the two modeled rates.
func ValidVATRate(rate decimal.Decimal) bool {
	return rate.Equal(VATReduced) || rate.Equal(VATStandard)
}

func (r IncomeRecord) Validate() error {
	if r.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !ValidVATRate(r.VATRate) {
		return ErrInvalidVATRate
	}
	return nil
}

func (r ExpenseRecord) Validate() error {
	if r.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
