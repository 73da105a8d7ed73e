// Package rates maintains the currency conversion table for the home currency.
package rates

import (
	"context"
	"sync"

	"github.com/cmorneau/maple/internal/common"
	"github.com/cmorneau/maple/internal/interfaces"
	"github.com/cmorneau/maple/internal/models"
)

// Service implements RateService. It starts on the built-in fallback table
// and swaps in live rates whenever a refresh succeeds. A failed refresh
// never clobbers the table, so conversions always have something to work
// with.
type Service struct {
	client interfaces.RateClient
	logger *common.Logger

	mu    sync.RWMutex
	rates map[models.Currency]float64
	live  bool
}

// NewService creates a rate service seeded with the fallback table.
// client may be nil; the service then stays on fallbacks permanently.
func NewService(client interfaces.RateClient, logger *common.Logger) *Service {
	rates := make(map[models.Currency]float64, len(models.FallbackRates))
	for ccy, r := range models.FallbackRates {
		rates[ccy] = r
	}
	return &Service{
		client: client,
		logger: logger,
		rates:  rates,
	}
}

// ToHome converts an amount from ccy into the home currency by dividing by
// the table rate. A missing or zero rate converts at identity rather than
// failing the whole aggregation.
func (s *Service) ToHome(amount float64, ccy models.Currency) float64 {
	ccy = models.NormalizeCurrency(ccy)

	s.mu.RLock()
	rate := s.rates[ccy]
	s.mu.RUnlock()

	if rate == 0 {
		return amount
	}
	return amount / rate
}

// Rates returns a copy of the current table.
func (s *Service) Rates() map[models.Currency]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.Currency]float64, len(s.rates))
	for ccy, r := range s.rates {
		out[ccy] = r
	}
	return out
}

// Live reports whether the table currently holds upstream rates rather
// than the built-in fallbacks.
func (s *Service) Live() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// Seed installs a table cached by a previous run. Cached rates beat the
// hardcoded fallbacks but are not marked live until a refresh succeeds in
// this process.
func (s *Service) Seed(rates map[models.Currency]float64) {
	if len(rates) == 0 {
		return
	}
	copied := make(map[models.Currency]float64, len(rates))
	for ccy, r := range rates {
		copied[ccy] = r
	}

	s.mu.Lock()
	s.rates = copied
	s.mu.Unlock()
}

// Refresh pulls fresh rates from the provider. On failure the existing
// table stays in place and the error is returned for logging.
func (s *Service) Refresh(ctx context.Context) error {
	if s.client == nil {
		return nil
	}

	fresh, err := s.client.GetRates(ctx, models.HomeCurrency)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rate refresh failed, keeping current table")
		return err
	}
	if len(fresh) == 0 {
		s.logger.Warn().Msg("Rate refresh returned no rates, keeping current table")
		return nil
	}

	s.mu.Lock()
	s.rates = fresh
	s.live = true
	s.mu.Unlock()

	s.logger.Info().Int("currencies", len(fresh)).Msg("Currency rates refreshed")
	return nil
}

// Ensure Service implements RateService
var _ interfaces.RateService = (*Service)(nil)
