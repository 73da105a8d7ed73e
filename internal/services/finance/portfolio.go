package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cmorneau/maple/internal/models"
)

// Portfolio returns the holdings and their totals.
func (s *Service) Portfolio(ctx context.Context, userID string) ([]models.Holding, models.PortfolioSummary, error) {
	var holdings []models.Holding
	err := s.withLedger(ctx, userID, false, func(l *models.Ledger) error {
		holdings = append([]models.Holding{}, l.Portfolio...)
		return nil
	})
	if err != nil {
		return nil, models.PortfolioSummary{}, err
	}
	return holdings, models.SummarizePortfolio(holdings), nil
}

// AddTrade folds a buy into the portfolio. A trade for a symbol already
// held merges into the existing position (weighted-average cost); otherwise
// it opens a new one. The current price comes from the quote service; a
// failed fetch prices the position at the trade price.
func (s *Service) AddTrade(ctx context.Context, userID string, req models.TradeRequest) (*models.Holding, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("%w: trade symbol is required", ErrRejected)
	}
	if !models.IsFinite(req.Shares) || req.Shares <= 0 {
		return nil, fmt.Errorf("%w: trade shares must be positive", ErrRejected)
	}
	if !models.IsFinite(req.Price) || req.Price < 0 {
		return nil, fmt.Errorf("%w: trade price must be non-negative", ErrRejected)
	}

	symbol := models.YahooSymbol(req.Symbol)

	currentPrice := req.Price
	if quote := s.quotes.Price(ctx, symbol); quote.Price > 0 {
		currentPrice = quote.Price
	}

	trade := models.Trade{Shares: req.Shares, Price: req.Price}

	var result models.Holding
	err := s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		now := time.Now()
		if i := l.HoldingBySymbol(symbol); i >= 0 {
			merged := models.MergeTrade(&l.Portfolio[i], trade, currentPrice)
			merged.UpdatedAt = now
			l.Portfolio[i] = merged
			result = merged
			return nil
		}

		h := models.MergeTrade(nil, trade, currentPrice)
		h.ID = uuid.NewString()
		h.Symbol = symbol
		h.Name = req.Name
		if h.Name == "" {
			h.Name = symbol
		}
		h.CreatedAt = now
		h.UpdatedAt = now
		l.Portfolio = append(l.Portfolio, h)
		result = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateHolding edits shares and average cost directly, recomputing value
// from the held current price without a fresh quote.
func (s *Service) UpdateHolding(ctx context.Context, userID, id string, h models.Holding) (*models.Holding, error) {
	if !models.IsFinite(h.Shares) || h.Shares <= 0 {
		return nil, fmt.Errorf("%w: holding shares must be positive", ErrRejected)
	}
	if !models.IsFinite(h.AvgCost) || h.AvgCost < 0 {
		return nil, fmt.Errorf("%w: holding avg cost must be non-negative", ErrRejected)
	}

	var updated models.Holding
	err := s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		for i := range l.Portfolio {
			if l.Portfolio[i].ID != id {
				continue
			}
			l.Portfolio[i].Shares = h.Shares
			l.Portfolio[i].AvgCost = models.Round2(h.AvgCost)
			l.Portfolio[i].Reprice()
			l.Portfolio[i].UpdatedAt = time.Now()
			updated = l.Portfolio[i]
			return nil
		}
		return fmt.Errorf("%w: holding %s", ErrNotFound, id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) DeleteHolding(ctx context.Context, userID, id string) error {
	return s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		for i := range l.Portfolio {
			if l.Portfolio[i].ID == id {
				l.Portfolio = append(l.Portfolio[:i], l.Portfolio[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: holding %s", ErrNotFound, id)
	})
}

// RefreshPortfolio reprices every holding from the quote feed. Holdings
// whose fetch fails keep their previous price; a refresh superseded by a
// newer one applies nothing.
func (s *Service) RefreshPortfolio(ctx context.Context, userID string) error {
	holdings, _, err := s.Portfolio(ctx, userID)
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		return nil
	}

	changed, err := s.quotes.RefreshHoldings(ctx, userID, holdings)
	if err != nil || !changed {
		return err
	}

	// Apply refreshed prices back by symbol; positions traded meanwhile
	// keep their own price.
	priced := make(map[string]models.Holding, len(holdings))
	for _, h := range holdings {
		priced[h.Symbol] = h
	}

	return s.withLedger(ctx, userID, true, func(l *models.Ledger) error {
		now := time.Now()
		for i := range l.Portfolio {
			fresh, ok := priced[l.Portfolio[i].Symbol]
			if !ok || fresh.CurrentPrice == l.Portfolio[i].CurrentPrice {
				continue
			}
			l.Portfolio[i].CurrentPrice = fresh.CurrentPrice
			l.Portfolio[i].Reprice()
			l.Portfolio[i].UpdatedAt = now
		}
		return nil
	})
}
