package models

import "time"

// Holding represents a portfolio position. A portfolio holds at most one
// Holding per symbol; buying the same symbol again merges into the existing
// position (weighted-average cost, not lot tracking).
type Holding struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Symbol       string    `json:"symbol"`
	Shares       float64   `json:"shares"`
	AvgCost      float64   `json:"avg_cost"`
	CurrentPrice float64   `json:"current_price"`
	Value        float64   `json:"value"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Trade is a single buy to fold into a position.
type Trade struct {
	Shares float64 `json:"shares"`
	Price  float64 `json:"price"`
}

// TradeRequest is a buy submitted through the API. Symbol identifies the
// position to merge into; Name labels a newly opened position.
type TradeRequest struct {
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Shares float64 `json:"shares"`
	Price  float64 `json:"price"`
}

// MergeTrade folds a trade into an existing position. With a nil existing
// holding the trade opens the position at its own price as cost basis.
// Otherwise the cost basis becomes the volume-weighted average of the old
// position and the trade, rounded to cents; individual lots are not retained.
// Value is marked to currentPrice in both cases.
func MergeTrade(existing *Holding, trade Trade, currentPrice float64) Holding {
	if existing == nil {
		return Holding{
			Shares:       trade.Shares,
			AvgCost:      trade.Price,
			CurrentPrice: currentPrice,
			Value:        Round2(currentPrice * trade.Shares),
		}
	}

	newShares := existing.Shares + trade.Shares
	totalCost := existing.Shares*existing.AvgCost + trade.Shares*trade.Price

	merged := *existing
	merged.Shares = newShares
	merged.AvgCost = Round2(totalCost / newShares)
	merged.CurrentPrice = currentPrice
	merged.Value = Round2(currentPrice * newShares)
	return merged
}

// Reprice recomputes the holding's value from its held current price.
// Used after a direct shares/cost edit — no fresh quote is fetched.
func (h *Holding) Reprice() {
	h.Value = Round2(h.CurrentPrice * h.Shares)
}

// GainLoss reports the unrealized gain and percentage for a holding.
// A zero cost basis reports a flat 0% rather than dividing by zero.
func (h Holding) GainLoss() (gain, percent float64) {
	costBasis := h.AvgCost * h.Shares
	gain = Round2((h.CurrentPrice - h.AvgCost) * h.Shares)
	if costBasis != 0 {
		percent = Round2(gain / costBasis * 100)
	}
	return gain, percent
}

// PortfolioSummary aggregates holdings into portfolio-level totals.
type PortfolioSummary struct {
	TotalValue float64 `json:"total_value"`
	TotalCost  float64 `json:"total_cost"`
	TotalGain  float64 `json:"total_gain"`
	TotalPct   float64 `json:"total_pct"`
}

// SummarizePortfolio computes portfolio totals from scratch.
func SummarizePortfolio(holdings []Holding) PortfolioSummary {
	var s PortfolioSummary
	for _, h := range holdings {
		s.TotalValue += h.Value
		s.TotalCost += h.Shares * h.AvgCost
	}
	s.TotalGain = Round2(s.TotalValue - s.TotalCost)
	if s.TotalCost != 0 {
		s.TotalPct = Round2(s.TotalGain / s.TotalCost * 100)
	}
	return s
}
