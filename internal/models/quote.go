package models

import "strings"

// SymbolMatch is a single symbol-search result.
type SymbolMatch struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type,omitempty"`
}

// Quote is the latest traded price for a symbol. A zero price means the
// upstream feed had nothing usable; callers must tolerate it.
type Quote struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
}

// YahooSymbol converts a Finnhub-style "TD:TO" symbol to the Yahoo dot form
// "TD.TO". Symbols without an exchange suffix pass through unchanged.
func YahooSymbol(symbol string) string {
	if base, exch, ok := strings.Cut(symbol, ":"); ok {
		return base + "." + exch
	}
	return symbol
}
