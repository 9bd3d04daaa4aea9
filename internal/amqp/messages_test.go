package amqp

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/core"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/ledger"
)

func TestLedgerEventMessageRoundTrip(t *testing.T) {
	ev := ledger.Event{
		Action:  ledger.ActionIncomeAdded,
		Quarter: core.Q2,
		Kind:    core.KindIncome,
		Index:   3,
		Amount:  decimal.RequireFromString("1234.56"),
		VATRate: core.VATReduced,
	}

	msg := NewLedgerEventMessage(ev)
	if msg.Quarter != "2T" || msg.Kind != "ingreso" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Amount != "1234.56" || msg.VATRate != "0.1" {
		t.Fatalf("decimal fields lost precision: %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Fatalf("timestamp must be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := LedgerEventMessageFromJSON(body)
	if err != nil {
		t.Fatal(err)
	}
	if got.Action != msg.Action || got.Quarter != msg.Quarter || got.Index != msg.Index || got.Amount != msg.Amount {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, msg)
	}
}

func TestDeletionMessageOmitsAmount(t *testing.T) {
	ev := ledger.Event{
		Action:  ledger.ActionRecordDeleted,
		Quarter: core.Q1,
		Kind:    core.KindExpense,
		Index:   0,
	}
	msg := NewLedgerEventMessage(ev)
	if msg.Amount != "" || msg.VATRate != "" {
		t.Fatalf("deletion events carry no amount: %+v", msg)
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, forbidden := range []string{`"amount"`, `"vat_rate"`} {
		if strings.Contains(string(body), forbidden) {
			t.Fatalf("expected %s to be omitted: %s", forbidden, body)
		}
	}
}

func TestLedgerEventMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := LedgerEventMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error")
	}
}
