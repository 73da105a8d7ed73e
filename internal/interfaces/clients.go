// Package interfaces defines service contracts for Maple
package interfaces

import (
	"context"

	"github.com/cmorneau/maple/internal/models"
)

// SymbolSearchClient finds tradable symbols matching a free-text query.
type SymbolSearchClient interface {
	// SearchSymbols returns matches for the query. Upstream failure is an
	// error here; the quote service degrades it to an empty result.
	SearchSymbols(ctx context.Context, query string) ([]models.SymbolMatch, error)
}

// QuoteClient retrieves the latest traded price for a symbol.
type QuoteClient interface {
	// GetCurrentPrice returns the last close and its currency. A symbol with
	// no usable price data yields a zero-price quote, not an error.
	GetCurrentPrice(ctx context.Context, symbol string) (*models.Quote, error)
}

// RateClient retrieves currency conversion rates for a base currency.
type RateClient interface {
	// GetRates returns the rate per currency code relative to base.
	GetRates(ctx context.Context, base models.Currency) (map[models.Currency]float64, error)
}
