package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type CreateAccountRequest struct {
	AccountNumber  string `json:"account_number"`
	AccountHolder  string `json:"account_holder"`
	AccountType    string `json:"account_type"`
	InitialDeposit string `json:"initial_deposit,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateAccountRequest struct {
	AccountHolder string `json:"account_holder"`
}

type AccountResponse struct {
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
	AccountType   string `json:"account_type"`
	Balance       string `json:"balance"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountNumber: a.AccountNumber,
		AccountHolder: a.AccountHolder,
		AccountType:   string(a.AccountType),
		Balance:       a.Balance.String(),
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid request body"))
		return
	}

	initialDeposit := decimal.Zero
	if req.InitialDeposit != "" {
		var err error
		initialDeposit, err = decimal.NewFromString(req.InitialDeposit)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid initial_deposit format"))
			return
		}
	}

	account, err := h.accountService.CreateAccount(
		req.AccountNumber,
		req.AccountHolder,
		domain.AccountType(req.AccountType),
		initialDeposit,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	account, err := h.accountService.GetAccount(vars["account_number"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	var accounts []domain.Account
	var err error

	if status := r.URL.Query().Get("status"); status != "" {
		accounts, err = h.accountService.ListAccountsByStatus(domain.AccountStatus(status))
	} else {
		accounts, err = h.accountService.ListAccounts()
	}
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, toAccountResponse(&accounts[i]))
	}

	writeJSON(w, http.StatusOK, responses)
}

// UpdateAccount changes the mutable account details, currently just the
// holder name.
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid request body"))
		return
	}

	account, err := h.accountService.UpdateAccountHolder(vars["account_number"], req.AccountHolder)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *AccountHandler) UpdateAccountStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid request body"))
		return
	}

	account, err := h.accountService.UpdateAccountStatus(vars["account_number"], domain.AccountStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// CloseAccount is a soft delete: the account is marked CLOSED and kept.
func (h *AccountHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.accountService.CloseAccount(vars["account_number"]); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
