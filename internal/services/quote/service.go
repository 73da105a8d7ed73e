// Package quote resolves symbols and prices for portfolio holdings.
package quote

import (
	"context"
	"sync"

	"github.com/cmorneau/maple/internal/common"
	"github.com/cmorneau/maple/internal/interfaces"
	"github.com/cmorneau/maple/internal/models"
)

// Service implements QuoteService. Search and single-symbol pricing degrade
// to empty results on upstream failure; bulk repricing tracks a per-user
// sequence so a slow refresh that finishes after a newer one started cannot
// apply stale prices.
type Service struct {
	search interfaces.SymbolSearchClient
	quotes interfaces.QuoteClient
	logger *common.Logger

	mu   sync.Mutex
	seqs map[string]uint64 // userID -> latest refresh sequence
}

// NewService creates a quote service. Either client may be nil; the
// corresponding operation then degrades to its empty result.
func NewService(search interfaces.SymbolSearchClient, quotes interfaces.QuoteClient, logger *common.Logger) *Service {
	return &Service{
		search: search,
		quotes: quotes,
		logger: logger,
		seqs:   make(map[string]uint64),
	}
}

// Search returns symbol matches for a query. Upstream failure or a query
// shorter than two characters yields an empty list.
func (s *Service) Search(ctx context.Context, query string) []models.SymbolMatch {
	if s.search == nil || len(query) < 2 {
		return []models.SymbolMatch{}
	}

	matches, err := s.search.SearchSymbols(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("Symbol search failed")
		return []models.SymbolMatch{}
	}
	if matches == nil {
		matches = []models.SymbolMatch{}
	}
	return matches
}

// Price returns the current quote for a symbol, zero-price on any failure.
func (s *Service) Price(ctx context.Context, symbol string) *models.Quote {
	if s.quotes == nil {
		return &models.Quote{Symbol: models.YahooSymbol(symbol)}
	}

	quote, err := s.quotes.GetCurrentPrice(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
		return &models.Quote{Symbol: models.YahooSymbol(symbol)}
	}
	return quote
}

// begin registers a new refresh for the user and returns its sequence.
func (s *Service) begin(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[userID]++
	return s.seqs[userID]
}

// current reports whether seq is still the user's latest refresh.
func (s *Service) current(userID string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seqs[userID] == seq
}

// RefreshHoldings fetches a fresh price for every holding and applies the
// results in place, reporting whether any price changed. A holding whose
// fetch fails or returns zero keeps its previous price. If a newer refresh
// for the same user starts while this one is in flight, the whole result
// set is discarded.
func (s *Service) RefreshHoldings(ctx context.Context, userID string, holdings []models.Holding) (bool, error) {
	if s.quotes == nil || len(holdings) == 0 {
		return false, nil
	}

	seq := s.begin(userID)

	prices := make(map[string]float64, len(holdings))
	for i := range holdings {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		quote, err := s.quotes.GetCurrentPrice(ctx, holdings[i].Symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", holdings[i].Symbol).Msg("Price refresh failed for holding")
			continue
		}
		if quote.Price > 0 {
			prices[holdings[i].Symbol] = quote.Price
		}
	}

	// Superseded by a newer refresh: its prices are at least as fresh.
	if !s.current(userID, seq) {
		s.logger.Debug().Str("user", userID).Uint64("seq", seq).Msg("Discarding superseded price refresh")
		return false, nil
	}

	changed := false
	for i := range holdings {
		price, ok := prices[holdings[i].Symbol]
		if !ok || price == holdings[i].CurrentPrice {
			continue
		}
		holdings[i].CurrentPrice = price
		holdings[i].Reprice()
		changed = true
	}

	return changed, nil
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
