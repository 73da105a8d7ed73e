package finance

import (
	"context"
	"math"

	"github.com/cmorneau/maple/internal/models"
)

// NetWorth aggregates every entity list into home-currency totals,
// recomputed from scratch on each call. Account balances convert through
// the rate table; debts count as non-negative magnitudes; portfolio and
// belonging values are already home-currency figures.
func (s *Service) NetWorth(ctx context.Context, userID string) (*models.NetWorthSummary, error) {
	summary := &models.NetWorthSummary{Currency: string(models.HomeCurrency)}

	err := s.withLedger(ctx, userID, false, func(l *models.Ledger) error {
		for _, acct := range l.Accounts {
			summary.AccountsTotal += s.rates.ToHome(acct.Balance, acct.Currency)
		}
		for _, debt := range l.Debts {
			summary.DebtsTotal += math.Abs(debt.Balance)
		}
		for _, h := range l.Portfolio {
			summary.PortfolioTotal += h.Value
		}
		for _, b := range l.Belongings {
			summary.BelongingsTotal += b.Value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.NetWorth = summary.AccountsTotal + summary.PortfolioTotal +
		summary.BelongingsTotal - summary.DebtsTotal

	// Rounding happens only here, at presentation.
	summary.AccountsTotal = models.Round2(summary.AccountsTotal)
	summary.DebtsTotal = models.Round2(summary.DebtsTotal)
	summary.PortfolioTotal = models.Round2(summary.PortfolioTotal)
	summary.BelongingsTotal = models.Round2(summary.BelongingsTotal)
	summary.NetWorth = models.Round2(summary.NetWorth)

	return summary, nil
}
