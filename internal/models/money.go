// Package models defines data structures for Maple
package models

import "math"

// Currency identifies a supported balance currency.
type Currency string

const (
	CurrencyCAD Currency = "CAD"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// HomeCurrency is the reporting currency all totals are expressed in.
const HomeCurrency = CurrencyCAD

// validCurrencies lists the closed set of accepted currencies.
var validCurrencies = map[Currency]bool{
	CurrencyCAD: true,
	CurrencyUSD: true,
	CurrencyEUR: true,
}

// ValidCurrency returns true if c is a supported currency.
func ValidCurrency(c Currency) bool {
	return validCurrencies[c]
}

// NormalizeCurrency maps an empty currency to the home currency.
// Unknown currencies are returned unchanged for the caller to reject.
func NormalizeCurrency(c Currency) Currency {
	if c == "" {
		return HomeCurrency
	}
	return c
}

// FallbackRates are the conversion rates used until a live refresh succeeds.
// Rates are quoted as units of the foreign currency per home-currency dollar
// divisor: toHome(amount, ccy) = amount / rate(ccy).
var FallbackRates = map[Currency]float64{
	CurrencyCAD: 1,
	CurrencyUSD: 1.35,
	CurrencyEUR: 1.48,
}

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// IsFinite reports whether v is a usable monetary amount (not NaN or ±Inf).
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
