package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// Postgres error codes that indicate the atomic unit could not be
// serialized before the lock timeout and the caller may retry.
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

func isContention(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		switch string(pqErr.Code) {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return true
		}
	}
	return false
}

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewAccountRepository(db SQLExecutor, logger *slog.Logger) domain.AccountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
	}
}

const accountColumns = `account_number, account_holder, account_type, balance, status, created_at, updated_at`

func (r *accountRepository) Create(account *domain.Account) error {
	query := `
		INSERT INTO accounts (account_number, account_holder, account_type, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now().UTC()
	_, err := r.db.Exec(
		query,
		account.AccountNumber,
		account.AccountHolder,
		string(account.AccountType),
		account.Balance.String(),
		string(account.Status),
		now,
		now,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			r.logger.Warn("Duplicate account creation attempt", "account_number", account.AccountNumber)
			return errors.ErrDuplicateAccount
		}
		r.logger.Error("Failed to create account", "account_number", account.AccountNumber, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create account").WithDetails(err.Error())
	}

	account.CreatedAt = now
	account.UpdatedAt = now
	r.logger.Info("Account created", "account_number", account.AccountNumber)
	return nil
}

func (r *accountRepository) GetByNumber(number string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts WHERE account_number = $1
	`

	return r.scanAccount(query, number)
}

func (r *accountRepository) GetByNumberForUpdate(number string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts WHERE account_number = $1 FOR UPDATE
	`

	return r.scanAccount(query, number)
}

func (r *accountRepository) scanAccount(query string, number string) (*domain.Account, error) {
	var account domain.Account
	var balanceStr, accountType, status string

	err := r.db.QueryRow(query, number).Scan(
		&account.AccountNumber,
		&account.AccountHolder,
		&accountType,
		&balanceStr,
		&status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Account not found", "account_number", number)
			return nil, errors.ErrAccountNotFound
		}
		if isContention(err) {
			return nil, errors.ErrContention.WithDetails(err.Error())
		}
		r.logger.Error("Failed to get account", "account_number", number, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get account").WithDetails(err.Error())
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "account_number", number, "balance_str", balanceStr, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}

	account.Balance = balance
	account.AccountType = domain.AccountType(accountType)
	account.Status = domain.AccountStatus(status)
	return &account, nil
}

func (r *accountRepository) UpdateBalance(number string, newBalance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = $2
		WHERE account_number = $3
	`

	result, err := r.db.Exec(query, newBalance.String(), time.Now().UTC(), number)
	if err != nil {
		if isContention(err) {
			return errors.ErrContention.WithDetails(err.Error())
		}
		r.logger.Error("Failed to update account balance", "account_number", number, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update account balance").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("No account found to update", "account_number", number)
		return errors.ErrAccountNotFound
	}

	return nil
}

func (r *accountRepository) UpdateStatus(number string, status domain.AccountStatus) error {
	query := `
		UPDATE accounts
		SET status = $1, updated_at = $2
		WHERE account_number = $3
	`

	result, err := r.db.Exec(query, string(status), time.Now().UTC(), number)
	if err != nil {
		r.logger.Error("Failed to update account status", "account_number", number, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update account status").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}

	r.logger.Info("Account status updated", "account_number", number, "status", status)
	return nil
}

func (r *accountRepository) UpdateHolder(number string, holder string) error {
	query := `
		UPDATE accounts
		SET account_holder = $1, updated_at = $2
		WHERE account_number = $3
	`

	result, err := r.db.Exec(query, holder, time.Now().UTC(), number)
	if err != nil {
		r.logger.Error("Failed to update account holder", "account_number", number, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update account holder").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		return errors.ErrAccountNotFound
	}

	return nil
}

func (r *accountRepository) List() ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts ORDER BY account_number
	`

	return r.scanAccounts(query)
}

func (r *accountRepository) ListByStatus(status domain.AccountStatus) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts WHERE status = $1 ORDER BY account_number
	`

	return r.scanAccounts(query, string(status))
}

func (r *accountRepository) scanAccounts(query string, args ...interface{}) ([]domain.Account, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list accounts").WithDetails(err.Error())
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		var balanceStr, accountType, status string

		if err := rows.Scan(
			&account.AccountNumber,
			&account.AccountHolder,
			&accountType,
			&balanceStr,
			&status,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan account").WithDetails(err.Error())
		}

		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
		}

		account.Balance = balance
		account.AccountType = domain.AccountType(accountType)
		account.Status = domain.AccountStatus(status)
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate accounts").WithDetails(err.Error())
	}

	return accounts, nil
}

func (r *accountRepository) CountByStatus(status domain.AccountStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM accounts WHERE status = $1`

	var count int64
	if err := r.db.QueryRow(query, string(status)).Scan(&count); err != nil {
		r.logger.Error("Failed to count accounts", "status", status, "error", err)
		return 0, errors.NewAppError(errors.InternalError, "failed to count accounts").WithDetails(err.Error())
	}

	return count, nil
}
