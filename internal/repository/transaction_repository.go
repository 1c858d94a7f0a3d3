package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewTransactionRepository(db SQLExecutor, logger *slog.Logger) domain.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *transactionRepository) Append(entry *domain.Transaction) error {
	query := `
		INSERT INTO transactions
		(account_number, transaction_type, amount, description, reference_id, posted_at, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		entry.AccountNumber,
		string(entry.Type),
		entry.Amount.String(),
		entry.Description,
		entry.ReferenceID,
		entry.PostedAt,
		entry.BalanceAfter.String(),
	).Scan(&entry.ID)

	if err != nil {
		if isContention(err) {
			return errors.ErrContention.WithDetails(err.Error())
		}
		r.logger.Error("Failed to append transaction entry",
			"account_number", entry.AccountNumber,
			"type", entry.Type,
			"amount", entry.Amount,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to append transaction entry").WithDetails(err.Error())
	}

	r.logger.Info("Transaction entry appended",
		"transaction_id", entry.ID,
		"account_number", entry.AccountNumber,
		"type", entry.Type,
		"reference_id", entry.ReferenceID)
	return nil
}

const transactionColumns = `id, account_number, transaction_type, amount, description, reference_id, posted_at, balance_after`

func (r *transactionRepository) GetByID(id int64) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions WHERE id = $1
	`

	row := r.db.QueryRow(query, id)

	entry, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrTransactionNotFound
		}
		r.logger.Error("Failed to get transaction", "transaction_id", id, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get transaction").WithDetails(err.Error())
	}

	return entry, nil
}

func (r *transactionRepository) ListByAccount(accountNumber string, limit, offset int) ([]domain.Transaction, int64, error) {
	countQuery := `SELECT COUNT(*) FROM transactions WHERE account_number = $1`

	var total int64
	if err := r.db.QueryRow(countQuery, accountNumber).Scan(&total); err != nil {
		r.logger.Error("Failed to count transactions", "account_number", accountNumber, "error", err)
		return nil, 0, errors.NewAppError(errors.InternalError, "failed to count transactions").WithDetails(err.Error())
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_number = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(query, accountNumber, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transactions", "account_number", accountNumber, "error", err)
		return nil, 0, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	var entries []domain.Transaction
	for rows.Next() {
		entry, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, errors.NewAppError(errors.InternalError, "failed to scan transaction").WithDetails(err.Error())
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewAppError(errors.InternalError, "failed to iterate transactions").WithDetails(err.Error())
	}

	return entries, total, nil
}

func (r *transactionRepository) SumAmountByTypeAndDateRange(t domain.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE transaction_type = $1 AND posted_at BETWEEN $2 AND $3
	`

	var sumStr string
	if err := r.db.QueryRow(query, string(t), start, end).Scan(&sumStr); err != nil {
		r.logger.Error("Failed to sum transactions", "type", t, "error", err)
		return decimal.Zero, errors.NewAppError(errors.InternalError, "failed to sum transactions").WithDetails(err.Error())
	}

	sum, err := decimal.NewFromString(sumStr)
	if err != nil {
		return decimal.Zero, errors.NewAppError(errors.InternalError, "failed to parse sum").WithDetails(err.Error())
	}

	return sum, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var entry domain.Transaction
	var amountStr, balanceAfterStr, transactionType string
	var description sql.NullString

	if err := row.Scan(
		&entry.ID,
		&entry.AccountNumber,
		&transactionType,
		&amountStr,
		&description,
		&entry.ReferenceID,
		&entry.PostedAt,
		&balanceAfterStr,
	); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, err
	}

	balanceAfter, err := decimal.NewFromString(balanceAfterStr)
	if err != nil {
		return nil, err
	}

	entry.Type = domain.TransactionType(transactionType)
	entry.Amount = amount
	entry.BalanceAfter = balanceAfter
	entry.Description = description.String
	return &entry, nil
}
