package models

import "time"

// Ledger is the complete per-user snapshot of entity lists the computation
// engine operates on. It is the unit of persistence: loaded whole, mutated
// in memory through defined operations, and saved whole (merge-style upsert).
// TFSA records are kept sorted by year ascending.
type Ledger struct {
	UserID     string      `json:"user_id"`
	Accounts   []Account   `json:"accounts"`
	Debts      []Debt      `json:"debts"`
	Portfolio  []Holding   `json:"portfolio"`
	Belongings []Belonging `json:"belongings"`
	TFSA       []TFSAYear  `json:"tfsa"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewLedger returns an empty ledger for a user. Absence of a stored record
// is represented as all-empty lists, not an error.
func NewLedger(userID string) *Ledger {
	return &Ledger{
		UserID:     userID,
		Accounts:   []Account{},
		Debts:      []Debt{},
		Portfolio:  []Holding{},
		Belongings: []Belonging{},
		TFSA:       []TFSAYear{},
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// HoldingBySymbol returns the index of the holding with the given symbol,
// or -1. Symbols are unique within a portfolio.
func (l *Ledger) HoldingBySymbol(symbol string) int {
	for i := range l.Portfolio {
		if l.Portfolio[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

// TFSAYearIndex returns the index of the record for year, or -1.
func (l *Ledger) TFSAYearIndex(year int) int {
	for i := range l.TFSA {
		if l.TFSA[i].Year == year {
			return i
		}
	}
	return -1
}

// NetWorthSummary holds the category totals and net figure, all expressed
// in the home currency.
type NetWorthSummary struct {
	AccountsTotal   float64 `json:"accounts_total"`
	DebtsTotal      float64 `json:"debts_total"` // non-negative magnitude
	PortfolioTotal  float64 `json:"portfolio_total"`
	BelongingsTotal float64 `json:"belongings_total"`
	NetWorth        float64 `json:"net_worth"`
	Currency        string  `json:"currency"`
}
