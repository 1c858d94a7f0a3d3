package domain

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the product category of an account.
type AccountType string

const (
	AccountTypeChecking    AccountType = "CHECKING"
	AccountTypeSavings     AccountType = "SAVINGS"
	AccountTypeMoneyMarket AccountType = "MONEY_MARKET"
	AccountTypeCD          AccountType = "CD"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeMoneyMarket, AccountTypeCD:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account. CLOSED is terminal:
// accounts are never hard-deleted, only closed.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
	AccountStatusClosed   AccountStatus = "CLOSED"
	AccountStatusFrozen   AccountStatus = "FROZEN"
)

func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusClosed, AccountStatusFrozen:
		return true
	}
	return false
}

// CanTransitionTo reports whether a status change is allowed. CLOSED
// accepts no further transitions.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s == AccountStatusClosed {
		return false
	}
	return s != next
}

var accountNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidAccountNumber reports whether s is a well-formed account number:
// exactly 10 ASCII digits.
func ValidAccountNumber(s string) bool {
	return accountNumberPattern.MatchString(s)
}

// Account is a balance-carrying account record. Balance is mutated only by
// the ledger engine and always equals the sum of signed amounts of the
// account's posted transactions.
type Account struct {
	AccountNumber string          `json:"account_number"`
	AccountHolder string          `json:"account_holder"`
	AccountType   AccountType     `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	Status        AccountStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type AccountRepository interface {
	Create(account *Account) error
	GetByNumber(number string) (*Account, error)
	// GetByNumberForUpdate reads the account under a row lock so the
	// read-modify-write of the balance serializes with concurrent writers.
	GetByNumberForUpdate(number string) (*Account, error)
	UpdateBalance(number string, newBalance decimal.Decimal) error
	UpdateStatus(number string, status AccountStatus) error
	UpdateHolder(number string, holder string) error
	List() ([]Account, error)
	ListByStatus(status AccountStatus) ([]Account, error)
	CountByStatus(status AccountStatus) (int64, error)
}
