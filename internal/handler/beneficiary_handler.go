package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type BeneficiaryHandler struct {
	beneficiaryService *service.BeneficiaryService
}

func NewBeneficiaryHandler(beneficiaryService *service.BeneficiaryService) *BeneficiaryHandler {
	return &BeneficiaryHandler{
		beneficiaryService: beneficiaryService,
	}
}

type CreateBeneficiaryRequest struct {
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	Email         string `json:"email,omitempty"`
	Description   string `json:"description,omitempty"`
}

type BeneficiaryResponse struct {
	ID            int64  `json:"id"`
	OwnerNumber   string `json:"owner_number"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	Email         string `json:"email,omitempty"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toBeneficiaryResponse(b *domain.Beneficiary) BeneficiaryResponse {
	return BeneficiaryResponse{
		ID:            b.ID,
		OwnerNumber:   b.OwnerNumber,
		Name:          b.Name,
		AccountNumber: b.AccountNumber,
		Email:         b.Email,
		Description:   b.Description,
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *BeneficiaryHandler) AddBeneficiary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req CreateBeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid request body"))
		return
	}

	beneficiary, err := h.beneficiaryService.AddBeneficiary(
		vars["account_number"],
		req.Name,
		req.AccountNumber,
		req.Email,
		req.Description,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBeneficiaryResponse(beneficiary))
}

func (h *BeneficiaryHandler) ListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	beneficiaries, err := h.beneficiaryService.ListBeneficiaries(vars["account_number"])
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]BeneficiaryResponse, 0, len(beneficiaries))
	for i := range beneficiaries {
		responses = append(responses, toBeneficiaryResponse(&beneficiaries[i]))
	}

	writeJSON(w, http.StatusOK, responses)
}

func (h *BeneficiaryHandler) GetBeneficiary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid beneficiary id"))
		return
	}

	beneficiary, err := h.beneficiaryService.GetBeneficiary(vars["account_number"], id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBeneficiaryResponse(beneficiary))
}

func (h *BeneficiaryHandler) RemoveBeneficiary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid beneficiary id"))
		return
	}

	if err := h.beneficiaryService.RemoveBeneficiary(vars["account_number"], id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
