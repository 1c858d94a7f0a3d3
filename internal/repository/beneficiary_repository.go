package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

type beneficiaryRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func NewBeneficiaryRepository(db SQLExecutor, logger *slog.Logger) domain.BeneficiaryRepository {
	return &beneficiaryRepository{
		db:     db,
		logger: logger,
	}
}

const beneficiaryColumns = `id, owner_number, name, account_number, email, description, created_at`

func (r *beneficiaryRepository) Create(beneficiary *domain.Beneficiary) error {
	query := `
		INSERT INTO beneficiaries (owner_number, name, account_number, email, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now().UTC()
	err := r.db.QueryRow(
		query,
		beneficiary.OwnerNumber,
		beneficiary.Name,
		beneficiary.AccountNumber,
		beneficiary.Email,
		beneficiary.Description,
		now,
	).Scan(&beneficiary.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUniqueViolation {
			r.logger.Warn("Duplicate beneficiary", "owner_number", beneficiary.OwnerNumber, "account_number", beneficiary.AccountNumber)
			return errors.ErrDuplicateBeneficiary
		}
		r.logger.Error("Failed to create beneficiary", "owner_number", beneficiary.OwnerNumber, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to create beneficiary").WithDetails(err.Error())
	}

	beneficiary.CreatedAt = now
	r.logger.Info("Beneficiary created", "beneficiary_id", beneficiary.ID, "owner_number", beneficiary.OwnerNumber)
	return nil
}

func (r *beneficiaryRepository) GetByID(id int64) (*domain.Beneficiary, error) {
	query := `
		SELECT ` + beneficiaryColumns + `
		FROM beneficiaries WHERE id = $1
	`

	beneficiary, err := scanBeneficiary(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.ErrBeneficiaryNotFound
		}
		r.logger.Error("Failed to get beneficiary", "beneficiary_id", id, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get beneficiary").WithDetails(err.Error())
	}

	return beneficiary, nil
}

func (r *beneficiaryRepository) ListByOwner(ownerNumber string) ([]domain.Beneficiary, error) {
	query := `
		SELECT ` + beneficiaryColumns + `
		FROM beneficiaries
		WHERE owner_number = $1
		ORDER BY name, id
	`

	rows, err := r.db.Query(query, ownerNumber)
	if err != nil {
		r.logger.Error("Failed to list beneficiaries", "owner_number", ownerNumber, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list beneficiaries").WithDetails(err.Error())
	}
	defer rows.Close()

	var beneficiaries []domain.Beneficiary
	for rows.Next() {
		beneficiary, err := scanBeneficiary(rows)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan beneficiary").WithDetails(err.Error())
		}
		beneficiaries = append(beneficiaries, *beneficiary)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate beneficiaries").WithDetails(err.Error())
	}

	return beneficiaries, nil
}

func (r *beneficiaryRepository) Delete(id int64, ownerNumber string) error {
	query := `DELETE FROM beneficiaries WHERE id = $1 AND owner_number = $2`

	result, err := r.db.Exec(query, id, ownerNumber)
	if err != nil {
		r.logger.Error("Failed to delete beneficiary", "beneficiary_id", id, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to delete beneficiary").WithDetails(err.Error())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		return errors.ErrBeneficiaryNotFound
	}

	r.logger.Info("Beneficiary deleted", "beneficiary_id", id, "owner_number", ownerNumber)
	return nil
}

func scanBeneficiary(row rowScanner) (*domain.Beneficiary, error) {
	var beneficiary domain.Beneficiary
	var email, description sql.NullString

	if err := row.Scan(
		&beneficiary.ID,
		&beneficiary.OwnerNumber,
		&beneficiary.Name,
		&beneficiary.AccountNumber,
		&email,
		&description,
		&beneficiary.CreatedAt,
	); err != nil {
		return nil, err
	}

	beneficiary.Email = email.String
	beneficiary.Description = description.String
	return &beneficiary, nil
}
