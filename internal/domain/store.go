package domain

// Store is the unit-of-work boundary for the ledger. Repositories obtained
// inside WithTransaction share one database transaction: every write made
// through them commits or rolls back together.
type Store interface {
	Accounts() AccountRepository
	Transactions() TransactionRepository
	Beneficiaries() BeneficiaryRepository
	WithTransaction(fn func(Store) error) error
}
