package service

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/events"
)

// RefIDGenerator produces opaque correlation tokens for ledger entries.
// Injected rather than called ad hoc so tests can make reference ids
// deterministic.
type RefIDGenerator func() string

// UUIDRefID is the default generator.
func UUIDRefID() string {
	return uuid.New().String()
}

// LedgerService applies money-movement operations to accounts. Every
// mutating operation runs as one atomic unit of work: the balance update
// and the entry insertion commit together or not at all. The service
// never retries on contention; that is the caller's policy.
//
// Callers get a fresh reference id per call. There is no caller-supplied
// idempotency key at this level, so a blindly retried call double-posts;
// the HTTP layer's idempotency middleware is the guard for that.
type LedgerService struct {
	store     domain.Store
	refID     RefIDGenerator
	now       func() time.Time
	publisher events.Publisher
	logger    *slog.Logger
}

func NewLedgerService(store domain.Store, refID RefIDGenerator, publisher events.Publisher, logger *slog.Logger) *LedgerService {
	if refID == nil {
		refID = UUIDRefID
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &LedgerService{
		store:     store,
		refID:     refID,
		now:       func() time.Time { return time.Now().UTC() },
		publisher: publisher,
		logger:    logger,
	}
}

// publishCompleted announces a committed operation. Best effort: the
// ledger state is already durable, so a broker failure is only logged.
func (s *LedgerService) publishCompleted(entry *domain.Transaction, counterparty string) {
	event := events.TransactionCompleted{
		ReferenceID:        entry.ReferenceID,
		Type:               string(entry.Type),
		AccountNumber:      entry.AccountNumber,
		CounterpartyNumber: counterparty,
		Amount:             entry.Amount,
		PostedAt:           entry.PostedAt,
	}
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Error("Failed to publish transaction event", "reference_id", entry.ReferenceID, "error", err)
	}
}

// Deposit credits amount to the account and posts one DEPOSIT entry.
func (s *LedgerService) Deposit(accountNumber string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if err := validateMovement(accountNumber, amount); err != nil {
		return nil, err
	}

	var entry *domain.Transaction
	err := s.store.WithTransaction(func(tx domain.Store) error {
		account, err := tx.Accounts().GetByNumberForUpdate(accountNumber)
		if err != nil {
			return err
		}
		if account.Status != domain.AccountStatusActive {
			return notActive(account)
		}

		newBalance := account.Balance.Add(amount)
		if err := tx.Accounts().UpdateBalance(accountNumber, newBalance); err != nil {
			return err
		}

		entry = &domain.Transaction{
			AccountNumber: accountNumber,
			Type:          domain.TransactionTypeDeposit,
			Amount:        amount,
			Description:   description,
			ReferenceID:   s.refID(),
			PostedAt:      s.now(),
			BalanceAfter:  newBalance,
		}
		return tx.Transactions().Append(entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deposit processed", "account_number", accountNumber, "amount", amount, "reference_id", entry.ReferenceID)
	s.publishCompleted(entry, "")
	return entry, nil
}

// Withdraw debits amount from the account and posts one WITHDRAWAL entry.
// The balance check happens under the same row lock as the debit, so two
// concurrent withdrawals cannot both spend the same funds.
func (s *LedgerService) Withdraw(accountNumber string, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if err := validateMovement(accountNumber, amount); err != nil {
		return nil, err
	}

	var entry *domain.Transaction
	err := s.store.WithTransaction(func(tx domain.Store) error {
		account, err := tx.Accounts().GetByNumberForUpdate(accountNumber)
		if err != nil {
			return err
		}
		if account.Status != domain.AccountStatusActive {
			return notActive(account)
		}
		if account.Balance.LessThan(amount) {
			return errors.ErrInsufficientFunds
		}

		newBalance := account.Balance.Sub(amount)
		if err := tx.Accounts().UpdateBalance(accountNumber, newBalance); err != nil {
			return err
		}

		entry = &domain.Transaction{
			AccountNumber: accountNumber,
			Type:          domain.TransactionTypeWithdrawal,
			Amount:        amount,
			Description:   description,
			ReferenceID:   s.refID(),
			PostedAt:      s.now(),
			BalanceAfter:  newBalance,
		}
		return tx.Transactions().Append(entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Withdrawal processed", "account_number", accountNumber, "amount", amount, "reference_id", entry.ReferenceID)
	s.publishCompleted(entry, "")
	return entry, nil
}

// TransferResult holds the two legs of a completed transfer.
type TransferResult struct {
	Outgoing *domain.Transaction
	Incoming *domain.Transaction
}

// Transfer moves amount between two accounts as one atomic unit: both
// balance mutations and both entries commit together or none do. The two
// entries share one reference id and one timestamp.
//
// Rows are locked in ascending account-number order regardless of
// transfer direction, so opposing concurrent transfers between the same
// pair cannot deadlock. A transfer to the same account is permitted: it
// nets to zero and still posts both entries.
func (s *LedgerService) Transfer(fromNumber, toNumber string, amount decimal.Decimal, description string) (*TransferResult, error) {
	if err := validateMovement(fromNumber, amount); err != nil {
		return nil, err
	}
	if !domain.ValidAccountNumber(toNumber) {
		return nil, errors.ErrInvalidAccountNumber
	}

	referenceID := s.refID()
	postedAt := s.now()

	var result TransferResult
	err := s.store.WithTransaction(func(tx domain.Store) error {
		source, dest, err := lockPair(tx.Accounts(), fromNumber, toNumber)
		if err != nil {
			return err
		}

		if source.Status != domain.AccountStatusActive {
			return notActive(source)
		}
		if dest.Status != domain.AccountStatusActive {
			return notActive(dest)
		}

		// Debit leg first: validated and computed before the credit.
		if source.Balance.LessThan(amount) {
			return errors.ErrInsufficientFunds
		}

		sourceBalance := source.Balance.Sub(amount)
		if err := tx.Accounts().UpdateBalance(fromNumber, sourceBalance); err != nil {
			return err
		}

		result.Outgoing = &domain.Transaction{
			AccountNumber: fromNumber,
			Type:          domain.TransactionTypeTransferOut,
			Amount:        amount,
			Description:   transferDescription("Transfer to "+toNumber, description),
			ReferenceID:   referenceID,
			PostedAt:      postedAt,
			BalanceAfter:  sourceBalance,
		}
		if err := tx.Transactions().Append(result.Outgoing); err != nil {
			return err
		}

		// Credit leg. For a self-transfer the destination balance starts
		// from the already-debited source balance, so the pair nets out.
		destBalance := dest.Balance.Add(amount)
		if fromNumber == toNumber {
			destBalance = sourceBalance.Add(amount)
		}
		if err := tx.Accounts().UpdateBalance(toNumber, destBalance); err != nil {
			return err
		}

		result.Incoming = &domain.Transaction{
			AccountNumber: toNumber,
			Type:          domain.TransactionTypeTransferIn,
			Amount:        amount,
			Description:   transferDescription("Transfer from "+fromNumber, description),
			ReferenceID:   referenceID,
			PostedAt:      postedAt,
			BalanceAfter:  destBalance,
		}
		return tx.Transactions().Append(result.Incoming)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transfer processed",
		"from_account", fromNumber,
		"to_account", toNumber,
		"amount", amount,
		"reference_id", referenceID)
	s.publishCompleted(result.Outgoing, toNumber)
	return &result, nil
}

// TransactionPage is one page of an account's entries, newest first.
type TransactionPage struct {
	Transactions []domain.Transaction
	Total        int64
	Page         int
	PageSize     int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetTransactionsForAccount lists posted entries for an account, newest
// first. Pages are 1-based.
func (s *LedgerService) GetTransactionsForAccount(accountNumber string, page, pageSize int) (*TransactionPage, error) {
	if !domain.ValidAccountNumber(accountNumber) {
		return nil, errors.ErrInvalidAccountNumber
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	// Confirms existence; a CLOSED account keeps its history readable.
	if _, err := s.store.Accounts().GetByNumber(accountNumber); err != nil {
		return nil, err
	}

	entries, total, err := s.store.Transactions().ListByAccount(accountNumber, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	return &TransactionPage{
		Transactions: entries,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
	}, nil
}

// GetTransaction returns a single entry by id.
func (s *LedgerService) GetTransaction(id int64) (*domain.Transaction, error) {
	return s.store.Transactions().GetByID(id)
}

// DailySummary aggregates one calendar day of activity.
type DailySummary struct {
	Date             string          `json:"date"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	ActiveAccounts   int64           `json:"active_accounts"`
}

// GetDailySummary sums DEPOSIT and WITHDRAWAL amounts posted on the given
// day and counts currently ACTIVE accounts. Types with no entries report
// zero, never absent. Pure read, no locks taken.
func (s *LedgerService) GetDailySummary(date time.Time) (*DailySummary, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Microsecond)

	deposits, err := s.store.Transactions().SumAmountByTypeAndDateRange(domain.TransactionTypeDeposit, start, end)
	if err != nil {
		return nil, err
	}

	withdrawals, err := s.store.Transactions().SumAmountByTypeAndDateRange(domain.TransactionTypeWithdrawal, start, end)
	if err != nil {
		return nil, err
	}

	activeAccounts, err := s.store.Accounts().CountByStatus(domain.AccountStatusActive)
	if err != nil {
		return nil, err
	}

	return &DailySummary{
		Date:             start.Format("2006-01-02"),
		TotalDeposits:    deposits,
		TotalWithdrawals: withdrawals,
		ActiveAccounts:   activeAccounts,
	}, nil
}

func validateMovement(accountNumber string, amount decimal.Decimal) error {
	if !domain.ValidAccountNumber(accountNumber) {
		return errors.ErrInvalidAccountNumber
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.ErrInvalidAmount
	}
	return nil
}

func notActive(account *domain.Account) error {
	return errors.NewAppErrorf(errors.InvalidState,
		"account %s is not active, current status: %s", account.AccountNumber, account.Status)
}

// lockPair acquires row locks for both transfer accounts in ascending
// account-number order, independent of transfer direction.
func lockPair(repo domain.AccountRepository, fromNumber, toNumber string) (source, dest *domain.Account, err error) {
	if fromNumber == toNumber {
		source, err = repo.GetByNumberForUpdate(fromNumber)
		return source, source, err
	}

	first, second := fromNumber, toNumber
	if second < first {
		first, second = second, first
	}

	firstAcc, err := repo.GetByNumberForUpdate(first)
	if err != nil {
		return nil, nil, err
	}
	secondAcc, err := repo.GetByNumberForUpdate(second)
	if err != nil {
		return nil, nil, err
	}

	if first == fromNumber {
		return firstAcc, secondAcc, nil
	}
	return secondAcc, firstAcc, nil
}

func transferDescription(prefix, description string) string {
	if description == "" {
		return prefix
	}
	return prefix + ": " + description
}
