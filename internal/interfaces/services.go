package interfaces

import (
	"context"

	"github.com/cmorneau/maple/internal/models"
)

// RateService maintains the currency rate table and converts amounts
// into the home currency.
type RateService interface {
	// ToHome converts an amount from ccy into the home currency.
	ToHome(amount float64, ccy models.Currency) float64

	// Rates returns a copy of the current rate table.
	Rates() map[models.Currency]float64

	// Refresh pulls fresh rates from the upstream provider. Failure leaves
	// the current table in place.
	Refresh(ctx context.Context) error

	// Seed installs a cached table from a previous run. Seeded rates are
	// not treated as live.
	Seed(rates map[models.Currency]float64)
}

// QuoteService resolves symbols and prices for portfolio holdings.
type QuoteService interface {
	// Search returns symbol matches for a query, empty on upstream failure.
	Search(ctx context.Context, query string) []models.SymbolMatch

	// Price returns the current price for a symbol, zero-price on failure.
	Price(ctx context.Context, symbol string) *models.Quote

	// RefreshHoldings reprices the given holdings in place and reports
	// whether any price changed. Stale responses from overlapping refreshes
	// are discarded.
	RefreshHoldings(ctx context.Context, userID string, holdings []models.Holding) (bool, error)
}

// FinanceService is the core engine: it owns per-user ledgers and applies
// every mutation through them.
type FinanceService interface {
	// Ledger returns the user's full snapshot.
	Ledger(ctx context.Context, userID string) (*models.Ledger, error)

	// NetWorth aggregates all holdings into home-currency totals.
	NetWorth(ctx context.Context, userID string) (*models.NetWorthSummary, error)

	// Accounts
	AddAccount(ctx context.Context, userID string, acct models.Account) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID, id string, acct models.Account) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, id string) error

	// Debts
	AddDebt(ctx context.Context, userID string, debt models.Debt) (*models.Debt, error)
	UpdateDebt(ctx context.Context, userID, id string, debt models.Debt) (*models.Debt, error)
	DeleteDebt(ctx context.Context, userID, id string) error

	// Belongings
	AddBelonging(ctx context.Context, userID string, b models.Belonging) (*models.Belonging, error)
	UpdateBelonging(ctx context.Context, userID, id string, b models.Belonging) (*models.Belonging, error)
	DeleteBelonging(ctx context.Context, userID, id string) error

	// Portfolio
	Portfolio(ctx context.Context, userID string) ([]models.Holding, models.PortfolioSummary, error)
	AddTrade(ctx context.Context, userID string, req models.TradeRequest) (*models.Holding, error)
	UpdateHolding(ctx context.Context, userID, id string, h models.Holding) (*models.Holding, error)
	DeleteHolding(ctx context.Context, userID, id string) error
	RefreshPortfolio(ctx context.Context, userID string) error
	AllocationChartPNG(ctx context.Context, userID string) ([]byte, error)

	// TFSA
	TFSA(ctx context.Context, userID string) ([]models.TFSAYear, *models.RoomSummary, error)
	AddTFSAYear(ctx context.Context, userID string, year int) (*models.TFSAYear, error)
	DeleteTFSAYear(ctx context.Context, userID string, year int) error
	AddContribution(ctx context.Context, userID string, year int, amount float64) (*models.TFSAYear, error)
	AddWithdrawal(ctx context.Context, userID string, year int, amount float64) (*models.TFSAYear, error)
	DeleteContribution(ctx context.Context, userID string, year, index int) (*models.TFSAYear, error)
	DeleteWithdrawal(ctx context.Context, userID string, year, index int) (*models.TFSAYear, error)

	// Profile
	Profile(ctx context.Context, userID string) (*models.ProfileState, error)
	SaveProfile(ctx context.Context, userID string, p models.Profile) (*models.Profile, error)

	// DeleteUserData removes everything stored for the user: ledger
	// snapshot, profile, and user record.
	DeleteUserData(ctx context.Context, userID string) error

	// Flush forces any pending debounced saves to storage.
	Flush(ctx context.Context) error
}
