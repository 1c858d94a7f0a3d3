package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionCompleted is emitted after a ledger operation commits.
type TransactionCompleted struct {
	ReferenceID   string `json:"reference_id"`
	Type          string `json:"type"`
	AccountNumber string `json:"account_number"`
	// CounterpartyNumber is set for transfers only.
	CounterpartyNumber string          `json:"counterparty_number,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	PostedAt           time.Time       `json:"posted_at"`
}

// Publisher delivers committed-transaction events to interested consumers.
// Publishing is best effort: a failure is logged by the caller, never used
// to unwind a committed ledger operation.
type Publisher interface {
	Publish(event TransactionCompleted) error
	Close() error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(TransactionCompleted) error { return nil }
func (NopPublisher) Close() error                       { return nil }
