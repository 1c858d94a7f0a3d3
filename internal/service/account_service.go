package service

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type AccountService struct {
	store  domain.Store
	refID  RefIDGenerator
	now    func() time.Time
	logger *slog.Logger
}

func NewAccountService(store domain.Store, refID RefIDGenerator, logger *slog.Logger) *AccountService {
	if refID == nil {
		refID = UUIDRefID
	}
	return &AccountService{
		store:  store,
		refID:  refID,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// CreateAccount opens an ACTIVE account. A positive initial deposit is
// folded into the account's first transaction, created in the same atomic
// unit as the account row itself.
func (s *AccountService) CreateAccount(number, holder string, accountType domain.AccountType, initialDeposit decimal.Decimal) (*domain.Account, error) {
	if !domain.ValidAccountNumber(number) {
		return nil, errors.ErrInvalidAccountNumber
	}
	if holder == "" {
		return nil, errors.NewAppError(errors.InvalidArgument, "account holder is required")
	}
	if !accountType.IsValid() {
		return nil, errors.NewAppErrorf(errors.InvalidArgument, "unknown account type: %s", accountType)
	}
	if initialDeposit.IsNegative() {
		return nil, errors.ErrInvalidAmount
	}

	account := &domain.Account{
		AccountNumber: number,
		AccountHolder: holder,
		AccountType:   accountType,
		Balance:       initialDeposit,
		Status:        domain.AccountStatusActive,
	}

	err := s.store.WithTransaction(func(tx domain.Store) error {
		if err := tx.Accounts().Create(account); err != nil {
			return err
		}

		if initialDeposit.IsPositive() {
			entry := &domain.Transaction{
				AccountNumber: number,
				Type:          domain.TransactionTypeDeposit,
				Amount:        initialDeposit,
				Description:   "Initial deposit",
				ReferenceID:   s.refID(),
				PostedAt:      s.now(),
				BalanceAfter:  initialDeposit,
			}
			return tx.Transactions().Append(entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account opened", "account_number", number, "account_type", accountType)
	return account, nil
}

func (s *AccountService) GetAccount(number string) (*domain.Account, error) {
	if !domain.ValidAccountNumber(number) {
		return nil, errors.ErrInvalidAccountNumber
	}
	return s.store.Accounts().GetByNumber(number)
}

func (s *AccountService) ListAccounts() ([]domain.Account, error) {
	return s.store.Accounts().List()
}

func (s *AccountService) ListAccountsByStatus(status domain.AccountStatus) ([]domain.Account, error) {
	if !status.IsValid() {
		return nil, errors.NewAppErrorf(errors.InvalidArgument, "unknown account status: %s", status)
	}
	return s.store.Accounts().ListByStatus(status)
}

// UpdateAccountHolder renames the holder of an account. The account
// number and posted history are immutable; the holder name is the only
// detail an account keeps that may change.
func (s *AccountService) UpdateAccountHolder(number, holder string) (*domain.Account, error) {
	if !domain.ValidAccountNumber(number) {
		return nil, errors.ErrInvalidAccountNumber
	}
	if holder == "" {
		return nil, errors.NewAppError(errors.InvalidArgument, "account holder is required")
	}

	var account *domain.Account
	err := s.store.WithTransaction(func(tx domain.Store) error {
		current, err := tx.Accounts().GetByNumberForUpdate(number)
		if err != nil {
			return err
		}
		if err := tx.Accounts().UpdateHolder(number, holder); err != nil {
			return err
		}
		current.AccountHolder = holder
		account = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account holder updated", "account_number", number)
	return account, nil
}

// UpdateAccountStatus moves an account to a new lifecycle state. CLOSED is
// terminal; once closed an account accepts no further transitions.
func (s *AccountService) UpdateAccountStatus(number string, status domain.AccountStatus) (*domain.Account, error) {
	if !domain.ValidAccountNumber(number) {
		return nil, errors.ErrInvalidAccountNumber
	}
	if !status.IsValid() {
		return nil, errors.NewAppErrorf(errors.InvalidArgument, "unknown account status: %s", status)
	}

	var account *domain.Account
	err := s.store.WithTransaction(func(tx domain.Store) error {
		current, err := tx.Accounts().GetByNumberForUpdate(number)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(status) {
			return errors.NewAppErrorf(errors.InvalidState,
				"account %s cannot transition from %s to %s", number, current.Status, status)
		}
		if err := tx.Accounts().UpdateStatus(number, status); err != nil {
			return err
		}
		current.Status = status
		account = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// CloseAccount soft-deletes an account by marking it CLOSED. History stays
// readable; the account is never removed.
func (s *AccountService) CloseAccount(number string) error {
	_, err := s.UpdateAccountStatus(number, domain.AccountStatusClosed)
	if err != nil {
		return err
	}
	s.logger.Info("Account closed", "account_number", number)
	return nil
}
