package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
)

// ReportingService builds read-only aggregations over posted entries. It
// never mutates ledger state.
type ReportingService struct {
	store  domain.Store
	now    func() time.Time
	logger *slog.Logger
}

func NewReportingService(store domain.Store, logger *slog.Logger) *ReportingService {
	return &ReportingService{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// TransactionReport renders CSV totals per entry type plus account
// statistics for the inclusive date range [start, end].
func (s *ReportingService) TransactionReport(startDate, endDate time.Time) ([]byte, error) {
	start := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, time.UTC).
		Add(24*time.Hour - time.Microsecond)

	txRepo := s.store.Transactions()
	totals := make(map[domain.TransactionType]decimal.Decimal)
	for _, t := range []domain.TransactionType{
		domain.TransactionTypeDeposit,
		domain.TransactionTypeWithdrawal,
		domain.TransactionTypeTransferIn,
		domain.TransactionTypeTransferOut,
	} {
		sum, err := txRepo.SumAmountByTypeAndDateRange(t, start, end)
		if err != nil {
			return nil, err
		}
		totals[t] = sum
	}

	accounts, err := s.store.Accounts().List()
	if err != nil {
		return nil, err
	}
	activeAccounts, err := s.store.Accounts().CountByStatus(domain.AccountStatusActive)
	if err != nil {
		return nil, err
	}

	netMovement := totals[domain.TransactionTypeDeposit].
		Add(totals[domain.TransactionTypeTransferIn]).
		Sub(totals[domain.TransactionTypeWithdrawal]).
		Sub(totals[domain.TransactionTypeTransferOut])

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Transaction Report\n")
	fmt.Fprintf(&buf, "Report Period: %s to %s\n", start.Format("2006-01-02"), endDate.Format("2006-01-02"))
	fmt.Fprintf(&buf, "Generated on: %s\n\n", s.now().Format(time.RFC3339))

	fmt.Fprintf(&buf, "Account Statistics\n")
	fmt.Fprintf(&buf, "Total Accounts,%d\n", len(accounts))
	fmt.Fprintf(&buf, "Active Accounts,%d\n\n", activeAccounts)

	fmt.Fprintf(&buf, "Transaction Statistics\n")
	fmt.Fprintf(&buf, "Total Deposits,%s\n", totals[domain.TransactionTypeDeposit])
	fmt.Fprintf(&buf, "Total Withdrawals,%s\n", totals[domain.TransactionTypeWithdrawal])
	fmt.Fprintf(&buf, "Total Transfers In,%s\n", totals[domain.TransactionTypeTransferIn])
	fmt.Fprintf(&buf, "Total Transfers Out,%s\n", totals[domain.TransactionTypeTransferOut])
	fmt.Fprintf(&buf, "Net Movement,%s\n", netMovement)

	return buf.Bytes(), nil
}

// RunDaily generates yesterday's report shortly after each midnight UTC
// until ctx is cancelled. Failures are logged and the loop continues.
func (s *ReportingService) RunDaily(ctx context.Context) {
	for {
		now := s.now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		yesterday := s.now().AddDate(0, 0, -1)
		report, err := s.TransactionReport(yesterday, yesterday)
		if err != nil {
			s.logger.Error("Daily report generation failed", "error", err)
			continue
		}
		s.logger.Info("Daily report generated", "date", yesterday.Format("2006-01-02"), "size_bytes", len(report))
	}
}
