package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tick_trader/internal/models"
)

func TestEvaluate(t *testing.T) {
	positions := []models.Position{
		{Ticker: "AAPL", Quantity: 10, PurchasePrice: 180.0},
	}
	summary := []models.MarketSummaryEntry{
		{Ticker: "AAPL", CurrentPrice: 182.5, Category: "high"},
	}

	s := Evaluate(positions, summary)
	assert.Equal(t, 1, s.PositionsEvaluated)
	assert.Equal(t, 25.0, s.TotalUnrealizedPnL)
}

// A position without a summary entry contributes to neither accumulator.
// CASH drops out this way in practice because nothing quotes it.
func TestEvaluateSkipsUnquotedPositions(t *testing.T) {
	positions := []models.Position{
		{Ticker: "AAPL", Quantity: 10, PurchasePrice: 180.0},
		{Ticker: "MSFT", Quantity: 5, PurchasePrice: 410.0},
		{Ticker: "CASH", Quantity: 1000, PurchasePrice: 1.0},
	}
	summary := []models.MarketSummaryEntry{
		{Ticker: "AAPL", CurrentPrice: 182.5, Category: "high"},
	}

	s := Evaluate(positions, summary)
	assert.Equal(t, 1, s.PositionsEvaluated)
	assert.Equal(t, 25.0, s.TotalUnrealizedPnL)
}

// A quoted CASH entry is not special-cased: behavior is driven purely by
// whether a summary entry exists.
func TestEvaluateDoesNotSpecialCaseCash(t *testing.T) {
	positions := []models.Position{
		{Ticker: "CASH", Quantity: 100, PurchasePrice: 1.0},
	}
	summary := []models.MarketSummaryEntry{
		{Ticker: "CASH", CurrentPrice: 1.5, Category: "low"},
	}

	s := Evaluate(positions, summary)
	assert.Equal(t, 1, s.PositionsEvaluated)
	assert.Equal(t, 50.0, s.TotalUnrealizedPnL)
}

func TestEvaluateRoundsTotal(t *testing.T) {
	positions := []models.Position{
		{Ticker: "AAPL", Quantity: 3, PurchasePrice: 10.10},
	}
	summary := []models.MarketSummaryEntry{
		{Ticker: "AAPL", CurrentPrice: 10.21, Category: "low"},
	}

	// 0.11 * 3 would pick up float dust without decimal arithmetic.
	s := Evaluate(positions, summary)
	assert.Equal(t, 0.33, s.TotalUnrealizedPnL)
}

func TestPriceIndexLastWriteWins(t *testing.T) {
	prices := PriceIndex([]models.MarketSummaryEntry{
		{Ticker: "AAPL", CurrentPrice: 100},
		{Ticker: "AAPL", CurrentPrice: 105},
	})
	assert.Equal(t, 105.0, prices["AAPL"])
}

func TestSnapshot(t *testing.T) {
	positions := []models.Position{
		{Ticker: "AAPL", Quantity: 10, PurchasePrice: 180.0},
		{Ticker: "CASH", Quantity: 1000, PurchasePrice: 1.0},
	}
	summary := []models.MarketSummaryEntry{
		{Ticker: "AAPL", CurrentPrice: 182.5, Category: "high"},
	}

	snapshots := Snapshot(positions, summary)
	require.Len(t, snapshots, 2)

	assert.Equal(t, models.PositionSnapshot{
		Ticker:        "AAPL",
		Quantity:      10,
		PurchasePrice: 180.0,
		CurrentPrice:  182.5,
		UnrealizedPnL: 25.0,
	}, snapshots[0])

	// No quote for CASH: current price defaults to purchase price, which
	// pins the unrealized P&L to zero.
	assert.Equal(t, models.PositionSnapshot{
		Ticker:        "CASH",
		Quantity:      1000,
		PurchasePrice: 1.0,
		CurrentPrice:  1.0,
		UnrealizedPnL: 0,
	}, snapshots[1])
}
