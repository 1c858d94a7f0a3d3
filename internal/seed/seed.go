package seed

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/shopspring/decimal"

	"bank-ledger/internal/domain"
	"bank-ledger/internal/service"
)

const (
	accountCount           = 10
	transactionsPerAccount = 5
	baseAccountNumber      = 1000000000
)

var accountTypes = []domain.AccountType{
	domain.AccountTypeChecking,
	domain.AccountTypeSavings,
	domain.AccountTypeMoneyMarket,
	domain.AccountTypeCD,
}

var holders = []string{
	"John Smith", "Jane Doe", "Robert Johnson", "Emily Davis", "Michael Wilson",
	"Sarah Brown", "David Miller", "Lisa Garcia", "James Martinez", "Jennifer Taylor",
}

// Run creates a handful of demo accounts with a few posted transactions
// each. It is a no-op when accounts already exist.
func Run(accounts *service.AccountService, ledger *service.LedgerService, logger *slog.Logger) error {
	existing, err := accounts.ListAccounts()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("Database already contains accounts, skipping demo data", "count", len(existing))
		return nil
	}

	logger.Info("Seeding demo data", "accounts", accountCount)

	rng := rand.New(rand.NewSource(1))
	numbers := make([]string, 0, accountCount)

	for i := 0; i < accountCount; i++ {
		number := fmt.Sprintf("%010d", baseAccountNumber+i)
		initialDeposit := decimal.NewFromInt(int64(1000 + rng.Intn(9000)))

		if _, err := accounts.CreateAccount(number, holders[i%len(holders)], accountTypes[rng.Intn(len(accountTypes))], initialDeposit); err != nil {
			return err
		}
		numbers = append(numbers, number)
	}

	for _, number := range numbers {
		for i := 0; i < transactionsPerAccount; i++ {
			amount := decimal.NewFromInt(int64(10 + rng.Intn(490)))

			var err error
			switch rng.Intn(3) {
			case 0:
				_, err = ledger.Deposit(number, amount, "Demo deposit")
			case 1:
				_, err = ledger.Withdraw(number, amount, "Demo withdrawal")
			default:
				other := numbers[rng.Intn(len(numbers))]
				_, err = ledger.Transfer(number, other, amount, "Demo transfer")
			}

			// Demo balances are random; a bounced withdrawal is expected.
			if err != nil {
				logger.Debug("Skipped demo transaction", "account_number", number, "error", err)
			}
		}
	}

	logger.Info("Demo data seeded")
	return nil
}
