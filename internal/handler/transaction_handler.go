package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/errors"
	"bank-ledger/internal/service"
)

type TransactionHandler struct {
	ledgerService    *service.LedgerService
	reportingService *service.ReportingService
}

func NewTransactionHandler(ledgerService *service.LedgerService, reportingService *service.ReportingService) *TransactionHandler {
	return &TransactionHandler{
		ledgerService:    ledgerService,
		reportingService: reportingService,
	}
}

type MovementRequest struct {
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
}

type TransferRequest struct {
	FromAccountNumber string `json:"from_account_number"`
	ToAccountNumber   string `json:"to_account_number"`
	Amount            string `json:"amount"`
	Description       string `json:"description,omitempty"`
}

type TransactionResponse struct {
	ID            int64  `json:"id"`
	AccountNumber string `json:"account_number"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
	ReferenceID   string `json:"reference_id"`
	PostedAt      string `json:"posted_at"`
	BalanceAfter  string `json:"balance_after"`
}

type TransferResponse struct {
	ReferenceID string              `json:"reference_id"`
	Outgoing    TransactionResponse `json:"outgoing"`
	Incoming    TransactionResponse `json:"incoming"`
}

type TransactionPageResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		AccountNumber: t.AccountNumber,
		Type:          string(t.Type),
		Amount:        t.Amount.String(),
		Description:   t.Description,
		ReferenceID:   t.ReferenceID,
		PostedAt:      t.PostedAt.UTC().Format(time.RFC3339Nano),
		BalanceAfter:  t.BalanceAfter.String(),
	}
}

func parseAmount(w http.ResponseWriter, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid amount format").WithDetails(err.Error()))
		return decimal.Zero, false
	}
	return amount, true
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid request body"))
		return
	}

	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	entry, err := h.ledgerService.Deposit(req.AccountNumber, amount, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(entry))
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid request body"))
		return
	}

	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	entry, err := h.ledgerService.Withdraw(req.AccountNumber, amount, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(entry))
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid request body"))
		return
	}

	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}

	result, err := h.ledgerService.Transfer(req.FromAccountNumber, req.ToAccountNumber, amount, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TransferResponse{
		ReferenceID: result.Outgoing.ReferenceID,
		Outgoing:    toTransactionResponse(result.Outgoing),
		Incoming:    toTransactionResponse(result.Incoming),
	})
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := h.ledgerService.GetTransactionsForAccount(vars["account_number"], page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(result.Transactions))
	for i := range result.Transactions {
		responses = append(responses, toTransactionResponse(&result.Transactions[i]))
	}

	writeJSON(w, http.StatusOK, TransactionPageResponse{
		Transactions: responses,
		Total:        result.Total,
		Page:         result.Page,
		PageSize:     result.PageSize,
	})
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid transaction id"))
		return
	}

	entry, err := h.ledgerService.GetTransaction(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(entry))
}

func (h *TransactionHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid date, expected YYYY-MM-DD"))
		return
	}

	summary, err := h.ledgerService.GetDailySummary(date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *TransactionHandler) TransactionReport(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start_date")
	endStr := r.URL.Query().Get("end_date")

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid start_date, expected YYYY-MM-DD"))
		return
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "invalid end_date, expected YYYY-MM-DD"))
		return
	}
	if end.Before(start) {
		writeError(w, errors.NewAppError(errors.InvalidArgument, "end_date is before start_date"))
		return
	}

	report, err := h.reportingService.TransactionReport(start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=transaction-report.csv")
	w.WriteHeader(http.StatusOK)
	w.Write(report)
}
