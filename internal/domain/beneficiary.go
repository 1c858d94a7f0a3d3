package domain

import "time"

// Beneficiary is a saved payee in an account's address book. The link is
// one-directional: the owning account keeps the entry, the beneficiary
// account is referenced by number only and need not be held at this bank.
type Beneficiary struct {
	ID int64 `json:"id"`
	// OwnerNumber is the account the entry belongs to.
	OwnerNumber   string    `json:"owner_number"`
	Name          string    `json:"name"`
	AccountNumber string    `json:"account_number"`
	Email         string    `json:"email,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type BeneficiaryRepository interface {
	// Create inserts the entry and fills in its generated id.
	Create(beneficiary *Beneficiary) error
	GetByID(id int64) (*Beneficiary, error)
	ListByOwner(ownerNumber string) ([]Beneficiary, error)
	// Delete removes the entry only when it belongs to ownerNumber.
	Delete(id int64, ownerNumber string) error
}
