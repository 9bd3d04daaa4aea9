package amqp

import (
	"encoding/json"
	"time"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/ledger"
)

// LedgerEventMessage is the wire form of a ledger mutation, published so
// external consumers (audit trail, sync jobs) can follow the quarter's
// history. Amounts travel as decimal strings.
type LedgerEventMessage struct {
	Action    string    `json:"action"`
	Quarter   string    `json:"quarter"`
	Kind      string    `json:"kind"`
	Index     int       `json:"index"`
	Amount    string    `json:"amount,omitempty"`
	VATRate   string    `json:"vat_rate,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEventMessage converts a ledger event into its wire form.
func NewLedgerEventMessage(ev ledger.Event) *LedgerEventMessage {
	msg := &LedgerEventMessage{
		Action:    ev.Action,
		Quarter:   ev.Quarter.String(),
		Kind:      ev.Kind.String(),
		Index:     ev.Index,
		Timestamp: time.Now(),
	}
	if !ev.Amount.IsZero() || ev.Action != ledger.ActionRecordDeleted {
		msg.Amount = ev.Amount.String()
	}
	if !ev.VATRate.IsZero() {
		msg.VATRate = ev.VATRate.String()
	}
	return msg
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
