// Package pnl computes unrealized profit and loss. Every function here is
// pure: positions in, numbers out, no I/O.
package pnl

import (
	"github.com/shopspring/decimal"

	"tick_trader/internal/models"
)

// Summary aggregates the unrealized P&L across the positions that have a
// current market price.
type Summary struct {
	PositionsEvaluated int
	TotalUnrealizedPnL float64
}

// PriceIndex folds the market summary into a ticker -> current price lookup.
// Duplicate tickers resolve last-write-wins.
func PriceIndex(summary []models.MarketSummaryEntry) map[string]float64 {
	prices := make(map[string]float64, len(summary))
	for _, entry := range summary {
		prices[entry.Ticker] = entry.CurrentPrice
	}
	return prices
}

// Evaluate computes (current - purchase) * quantity for each position with a
// matching summary entry. Positions without one are excluded from both the
// total and the count; CASH normally drops out this way, with no special
// casing of the ticker itself.
func Evaluate(positions []models.Position, summary []models.MarketSummaryEntry) Summary {
	prices := PriceIndex(summary)

	var s Summary
	total := decimal.Zero
	for _, pos := range positions {
		current, ok := prices[pos.Ticker]
		if !ok {
			continue
		}
		total = total.Add(unrealized(current, pos.PurchasePrice, pos.Quantity))
		s.PositionsEvaluated++
	}
	s.TotalUnrealizedPnL = total.Round(2).InexactFloat64()
	return s
}

// Snapshot derives the persisted per-ticker view from a positions list and
// the current market summary. A ticker with no summary entry is priced at
// its purchase price, which pins its unrealized P&L to zero.
func Snapshot(positions []models.Position, summary []models.MarketSummaryEntry) []models.PositionSnapshot {
	prices := PriceIndex(summary)

	snapshots := make([]models.PositionSnapshot, 0, len(positions))
	for _, pos := range positions {
		current, ok := prices[pos.Ticker]
		if !ok {
			current = pos.PurchasePrice
		}
		snapshots = append(snapshots, models.PositionSnapshot{
			Ticker:        pos.Ticker,
			Quantity:      pos.Quantity,
			PurchasePrice: pos.PurchasePrice,
			CurrentPrice:  current,
			UnrealizedPnL: unrealized(current, pos.PurchasePrice, pos.Quantity).Round(2).InexactFloat64(),
		})
	}
	return snapshots
}

func unrealized(current, purchase, quantity float64) decimal.Decimal {
	return decimal.NewFromFloat(current).
		Sub(decimal.NewFromFloat(purchase)).
		Mul(decimal.NewFromFloat(quantity))
}
