package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeFee         TransactionType = "FEE"
	TransactionTypeInterest    TransactionType = "INTEREST"
	TransactionTypePayment     TransactionType = "PAYMENT"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal,
		TransactionTypeTransferIn, TransactionTypeTransferOut,
		TransactionTypeFee, TransactionTypeInterest, TransactionTypePayment:
		return true
	}
	return false
}

// Sign returns +1 for entry types that increase the balance and -1 for
// those that decrease it.
func (t TransactionType) Sign() int {
	switch t {
	case TransactionTypeDeposit, TransactionTypeTransferIn, TransactionTypeInterest:
		return 1
	default:
		return -1
	}
}

// Transaction is a single immutable ledger entry. Entries are append-only
// and owned by exactly one account, referenced by number rather than a
// live object association.
type Transaction struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"account_number"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	// ReferenceID correlates related entries; the two legs of a transfer
	// share one reference id.
	ReferenceID string    `json:"reference_id"`
	PostedAt    time.Time `json:"posted_at"`
	// BalanceAfter is the account balance immediately after this entry was
	// applied. It is a snapshot taken at posting time, never recomputed.
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// SignedAmount is the balance delta this entry contributed.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type.Sign() < 0 {
		return t.Amount.Neg()
	}
	return t.Amount
}

type TransactionRepository interface {
	// Append inserts a new entry and fills in its generated id.
	Append(entry *Transaction) error
	GetByID(id int64) (*Transaction, error)
	// ListByAccount returns entries newest first along with the total
	// number of entries the account has.
	ListByAccount(accountNumber string, limit, offset int) ([]Transaction, int64, error)
	SumAmountByTypeAndDateRange(t TransactionType, start, end time.Time) (decimal.Decimal, error)
}
