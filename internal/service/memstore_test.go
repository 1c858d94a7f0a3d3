package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/events"
)

// memStore is an in-memory domain.Store. WithTransaction serializes
// atomic units with a mutex and restores a snapshot on error, mirroring
// the commit-or-rollback contract of the SQL store.
type memStore struct {
	mu            sync.Mutex
	accounts      map[string]*domain.Account
	entries       []domain.Transaction
	nextID        int64
	beneficiaries []domain.Beneficiary
	nextBenID     int64

	// opening records balances seeded directly by addAccount, which have
	// no corresponding entry.
	opening map[string]decimal.Decimal

	// failAppend forces the entry insertion to fail, for testing that the
	// whole unit rolls back.
	failAppend bool
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  make(map[string]*domain.Account),
		opening:   make(map[string]decimal.Decimal),
		nextID:    1,
		nextBenID: 1,
	}
}

func (s *memStore) Accounts() domain.AccountRepository          { return &memAccounts{s} }
func (s *memStore) Transactions() domain.TransactionRepository  { return &memTransactions{s} }
func (s *memStore) Beneficiaries() domain.BeneficiaryRepository { return &memBeneficiaries{s} }

func (s *memStore) WithTransaction(fn func(domain.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapAccounts := make(map[string]*domain.Account, len(s.accounts))
	for k, v := range s.accounts {
		cp := *v
		snapAccounts[k] = &cp
	}
	snapEntries := append([]domain.Transaction(nil), s.entries...)
	snapNextID := s.nextID
	snapBeneficiaries := append([]domain.Beneficiary(nil), s.beneficiaries...)
	snapNextBenID := s.nextBenID

	if err := fn(s); err != nil {
		s.accounts = snapAccounts
		s.entries = snapEntries
		s.nextID = snapNextID
		s.beneficiaries = snapBeneficiaries
		s.nextBenID = snapNextBenID
		return err
	}
	return nil
}

func (s *memStore) addAccount(number string, balance decimal.Decimal, status domain.AccountStatus) {
	s.opening[number] = balance
	s.accounts[number] = &domain.Account{
		AccountNumber: number,
		AccountHolder: "Holder " + number,
		AccountType:   domain.AccountTypeChecking,
		Balance:       balance,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

func (s *memStore) entriesFor(number string) []domain.Transaction {
	var out []domain.Transaction
	for _, e := range s.entries {
		if e.AccountNumber == number {
			out = append(out, e)
		}
	}
	return out
}

type memAccounts struct{ s *memStore }

func (r *memAccounts) Create(account *domain.Account) error {
	if _, ok := r.s.accounts[account.AccountNumber]; ok {
		return errors.ErrDuplicateAccount
	}
	cp := *account
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	r.s.accounts[account.AccountNumber] = &cp
	return nil
}

func (r *memAccounts) GetByNumber(number string) (*domain.Account, error) {
	account, ok := r.s.accounts[number]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (r *memAccounts) GetByNumberForUpdate(number string) (*domain.Account, error) {
	return r.GetByNumber(number)
}

func (r *memAccounts) UpdateBalance(number string, newBalance decimal.Decimal) error {
	account, ok := r.s.accounts[number]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.Balance = newBalance
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memAccounts) UpdateHolder(number string, holder string) error {
	account, ok := r.s.accounts[number]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.AccountHolder = holder
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memAccounts) UpdateStatus(number string, status domain.AccountStatus) error {
	account, ok := r.s.accounts[number]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.Status = status
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memAccounts) List() ([]domain.Account, error) {
	numbers := make([]string, 0, len(r.s.accounts))
	for n := range r.s.accounts {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)

	out := make([]domain.Account, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, *r.s.accounts[n])
	}
	return out, nil
}

func (r *memAccounts) ListByStatus(status domain.AccountStatus) ([]domain.Account, error) {
	all, _ := r.List()
	var out []domain.Account
	for _, a := range all {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAccounts) CountByStatus(status domain.AccountStatus) (int64, error) {
	matches, _ := r.ListByStatus(status)
	return int64(len(matches)), nil
}

type memTransactions struct{ s *memStore }

func (r *memTransactions) Append(entry *domain.Transaction) error {
	if r.s.failAppend {
		return errors.NewAppError(errors.InternalError, "append failed")
	}
	entry.ID = r.s.nextID
	r.s.nextID++
	r.s.entries = append(r.s.entries, *entry)
	return nil
}

func (r *memTransactions) GetByID(id int64) (*domain.Transaction, error) {
	for i := range r.s.entries {
		if r.s.entries[i].ID == id {
			cp := r.s.entries[i]
			return &cp, nil
		}
	}
	return nil, errors.ErrTransactionNotFound
}

func (r *memTransactions) ListByAccount(accountNumber string, limit, offset int) ([]domain.Transaction, int64, error) {
	all := r.s.entriesFor(accountNumber)
	// Newest first.
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memTransactions) SumAmountByTypeAndDateRange(t domain.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.s.entries {
		if e.Type == t && !e.PostedAt.Before(start) && !e.PostedAt.After(end) {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

type memBeneficiaries struct{ s *memStore }

func (r *memBeneficiaries) Create(beneficiary *domain.Beneficiary) error {
	for _, b := range r.s.beneficiaries {
		if b.OwnerNumber == beneficiary.OwnerNumber && b.AccountNumber == beneficiary.AccountNumber {
			return errors.ErrDuplicateBeneficiary
		}
	}
	beneficiary.ID = r.s.nextBenID
	r.s.nextBenID++
	beneficiary.CreatedAt = time.Now().UTC()
	r.s.beneficiaries = append(r.s.beneficiaries, *beneficiary)
	return nil
}

func (r *memBeneficiaries) GetByID(id int64) (*domain.Beneficiary, error) {
	for i := range r.s.beneficiaries {
		if r.s.beneficiaries[i].ID == id {
			cp := r.s.beneficiaries[i]
			return &cp, nil
		}
	}
	return nil, errors.ErrBeneficiaryNotFound
}

func (r *memBeneficiaries) ListByOwner(ownerNumber string) ([]domain.Beneficiary, error) {
	var out []domain.Beneficiary
	for _, b := range r.s.beneficiaries {
		if b.OwnerNumber == ownerNumber {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memBeneficiaries) Delete(id int64, ownerNumber string) error {
	for i := range r.s.beneficiaries {
		if r.s.beneficiaries[i].ID == id && r.s.beneficiaries[i].OwnerNumber == ownerNumber {
			r.s.beneficiaries = append(r.s.beneficiaries[:i], r.s.beneficiaries[i+1:]...)
			return nil
		}
	}
	return errors.ErrBeneficiaryNotFound
}

// seqRefID returns a deterministic reference id generator.
func seqRefID() RefIDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("ref-%04d", n)
	}
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TransactionCompleted
}

func (p *recordingPublisher) Publish(event events.TransactionCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []events.TransactionCompleted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.TransactionCompleted(nil), p.events...)
}
