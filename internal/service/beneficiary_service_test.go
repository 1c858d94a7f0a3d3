package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
)

func newTestBeneficiaries(store *memStore) *BeneficiaryService {
	return NewBeneficiaryService(store, testLogger())
}

func TestAddBeneficiary(t *testing.T) {
	store := newMemStore()
	store.addAccount("1000000001", dec("100"), domain.AccountStatusActive)
	svc := newTestBeneficiaries(store)

	beneficiary, err := svc.AddBeneficiary("1000000001", "Bob", "2000000002", "bob@example.com", "landlord")
	require.NoError(t, err)

	assert.NotZero(t, beneficiary.ID)
	assert.Equal(t, "1000000001", beneficiary.OwnerNumber)
	assert.Equal(t, "2000000002", beneficiary.AccountNumber)
	assert.False(t, beneficiary.CreatedAt.IsZero())
}

func TestAddBeneficiaryValidation(t *testing.T) {
	store := newMemStore()
	store.addAccount("1000000001", dec("100"), domain.AccountStatusActive)
	svc := newTestBeneficiaries(store)

	tests := []struct {
		name          string
		owner         string
		benName       string
		accountNumber string
		wantCode      errors.ErrorCode
	}{
		{"bad owner number", "12345", "Bob", "2000000002", errors.InvalidArgument},
		{"empty name", "1000000001", "", "2000000002", errors.InvalidArgument},
		{"bad beneficiary number", "1000000001", "Bob", "abc", errors.InvalidArgument},
		{"unknown owner", "9999999999", "Bob", "2000000002", errors.NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddBeneficiary(tt.owner, tt.benName, tt.accountNumber, "", "")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.AsAppError(err).Code)
		})
	}

	assert.Empty(t, store.beneficiaries)
}

func TestAddBeneficiaryDuplicate(t *testing.T) {
	store := newMemStore()
	store.addAccount("1000000001", dec("100"), domain.AccountStatusActive)
	svc := newTestBeneficiaries(store)

	_, err := svc.AddBeneficiary("1000000001", "Bob", "2000000002", "", "")
	require.NoError(t, err)

	// Same payee number under the same owner is rejected, under a
	// different owner it is fine.
	_, err = svc.AddBeneficiary("1000000001", "Robert", "2000000002", "", "")
	require.Error(t, err)
	assert.Equal(t, errors.Conflict, errors.AsAppError(err).Code)

	store.addAccount("1000000002", dec("100"), domain.AccountStatusActive)
	_, err = svc.AddBeneficiary("1000000002", "Bob", "2000000002", "", "")
	require.NoError(t, err)
}

func TestListBeneficiariesByOwner(t *testing.T) {
	store := newMemStore()
	store.addAccount("1000000001", dec("100"), domain.AccountStatusActive)
	store.addAccount("1000000002", dec("100"), domain.AccountStatusActive)
	svc := newTestBeneficiaries(store)

	_, err := svc.AddBeneficiary("1000000001", "Zoe", "2000000001", "", "")
	require.NoError(t, err)
	_, err = svc.AddBeneficiary("1000000001", "Amy", "2000000002", "", "")
	require.NoError(t, err)
	_, err = svc.AddBeneficiary("1000000002", "Bob", "2000000003", "", "")
	require.NoError(t, err)

	list, err := svc.ListBeneficiaries("1000000001")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Amy", list[0].Name)
	assert.Equal(t, "Zoe", list[1].Name)

	_, err = svc.ListBeneficiaries("9999999999")
	require.Error(t, err)
	assert.Equal(t, errors.NotFound, errors.AsAppError(err).Code)
}

func TestGetBeneficiaryScopedToOwner(t *testing.T) {
	store := newMemStore()
	store.addAccount("1000000001", dec("100"), domain.AccountStatusActive)
	svc := newTestBeneficiaries(store)

	created, err := svc.AddBeneficiary("1000000001", "Bob", "2000000002", "", "")
	require.NoError(t, err)

	got, err := svc.GetBeneficiary("1000000001", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)

	// Reading through another owner behaves like a missing entry.
	_, err = svc.GetBeneficiary("1000000002", created.ID)
	require.Error(t, err)
	assert.Equal(t, errors.NotFound, errors.AsAppError(err).Code)
}

func TestRemoveBeneficiaryScopedToOwner(t *testing.T) {
	store := newMemStore()
	store.addAccount("1000000001", dec("100"), domain.AccountStatusActive)
	store.addAccount("1000000002", dec("100"), domain.AccountStatusActive)
	svc := newTestBeneficiaries(store)

	beneficiary, err := svc.AddBeneficiary("1000000001", "Bob", "2000000002", "", "")
	require.NoError(t, err)

	// Another account cannot remove an entry it does not own.
	err = svc.RemoveBeneficiary("1000000002", beneficiary.ID)
	require.Error(t, err)
	assert.Equal(t, errors.NotFound, errors.AsAppError(err).Code)

	require.NoError(t, svc.RemoveBeneficiary("1000000001", beneficiary.ID))

	list, err := svc.ListBeneficiaries("1000000001")
	require.NoError(t, err)
	assert.Empty(t, list)

	err = svc.RemoveBeneficiary("1000000001", beneficiary.ID)
	require.Error(t, err)
	assert.Equal(t, errors.NotFound, errors.AsAppError(err).Code)
}

func TestAddBeneficiaryNeverTouchesBalances(t *testing.T) {
	store := newMemStore()
	store.addAccount("1000000001", dec("100"), domain.AccountStatusActive)
	svc := newTestBeneficiaries(store)

	_, err := svc.AddBeneficiary("1000000001", "Bob", "2000000002", "", "")
	require.NoError(t, err)

	assert.True(t, store.accounts["1000000001"].Balance.Equal(dec("100")))
	assert.Empty(t, store.entries)
}
