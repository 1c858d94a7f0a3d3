package service

import (
	"log/slog"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

// BeneficiaryService manages each account's saved-payee book. Entries are
// address-book data only: adding a beneficiary never moves money and the
// ledger does not require transfers to go to a saved beneficiary.
type BeneficiaryService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewBeneficiaryService(store domain.Store, logger *slog.Logger) *BeneficiaryService {
	return &BeneficiaryService{
		store:  store,
		logger: logger,
	}
}

// AddBeneficiary saves a payee under the owning account. The beneficiary
// account number must be well formed but may belong to another bank, so
// its existence is not checked.
func (s *BeneficiaryService) AddBeneficiary(ownerNumber, name, accountNumber, email, description string) (*domain.Beneficiary, error) {
	if !domain.ValidAccountNumber(ownerNumber) {
		return nil, errors.ErrInvalidAccountNumber
	}
	if name == "" {
		return nil, errors.NewAppError(errors.InvalidArgument, "beneficiary name is required")
	}
	if !domain.ValidAccountNumber(accountNumber) {
		return nil, errors.ErrInvalidAccountNumber
	}

	beneficiary := &domain.Beneficiary{
		OwnerNumber:   ownerNumber,
		Name:          name,
		AccountNumber: accountNumber,
		Email:         email,
		Description:   description,
	}

	err := s.store.WithTransaction(func(tx domain.Store) error {
		if _, err := tx.Accounts().GetByNumber(ownerNumber); err != nil {
			return err
		}
		return tx.Beneficiaries().Create(beneficiary)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Beneficiary added", "owner_number", ownerNumber, "account_number", accountNumber)
	return beneficiary, nil
}

func (s *BeneficiaryService) ListBeneficiaries(ownerNumber string) ([]domain.Beneficiary, error) {
	if !domain.ValidAccountNumber(ownerNumber) {
		return nil, errors.ErrInvalidAccountNumber
	}
	if _, err := s.store.Accounts().GetByNumber(ownerNumber); err != nil {
		return nil, err
	}
	return s.store.Beneficiaries().ListByOwner(ownerNumber)
}

// GetBeneficiary reads one entry from the owner's book. Like removal, a
// foreign id reads as not found.
func (s *BeneficiaryService) GetBeneficiary(ownerNumber string, id int64) (*domain.Beneficiary, error) {
	if !domain.ValidAccountNumber(ownerNumber) {
		return nil, errors.ErrInvalidAccountNumber
	}

	beneficiary, err := s.store.Beneficiaries().GetByID(id)
	if err != nil {
		return nil, err
	}
	if beneficiary.OwnerNumber != ownerNumber {
		return nil, errors.ErrBeneficiaryNotFound
	}
	return beneficiary, nil
}

// RemoveBeneficiary deletes an entry from the owner's book. An id that
// belongs to a different account reads as not found, the owner cannot
// touch another account's entries.
func (s *BeneficiaryService) RemoveBeneficiary(ownerNumber string, id int64) error {
	if !domain.ValidAccountNumber(ownerNumber) {
		return errors.ErrInvalidAccountNumber
	}

	if err := s.store.Beneficiaries().Delete(id, ownerNumber); err != nil {
		return err
	}

	s.logger.Info("Beneficiary removed", "owner_number", ownerNumber, "beneficiary_id", id)
	return nil
}
