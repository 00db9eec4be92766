package models

import "encoding/json"

// CashTicker is the sentinel position representing uninvested funds. Its
// quantity is the dollar amount available for new buys; it is never the
// subject of a recommendation.
const CashTicker = "CASH"

// Recommendation actions.
const (
	ActionSell = "SELL"
	ActionStay = "STAY"
	ActionBuy  = "BUY"
)

// Position is a held quantity of a ticker at a recorded purchase price.
type Position struct {
	Ticker        string  `json:"ticker"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
}

// MarketSummaryEntry carries the current price and risk category for one
// tradable ticker.
type MarketSummaryEntry struct {
	Ticker       string  `json:"ticker"`
	CurrentPrice float64 `json:"current_price"`
	Category     string  `json:"category"`
}

// Day is a market-history day marker. The feed sends it either as a plain
// integer (simulation day number) or a date string, and it must round-trip
// in whichever form it arrived.
type Day struct {
	Number int
	Date   string
	IsDate bool
}

func (d *Day) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		d.IsDate = true
		return json.Unmarshal(b, &d.Date)
	}
	return json.Unmarshal(b, &d.Number)
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsDate {
		return json.Marshal(d.Date)
	}
	return json.Marshal(d.Number)
}

// MarketHistoryEntry is one historical price observation. History is a soft
// trend signal only, never authoritative.
type MarketHistoryEntry struct {
	Ticker string  `json:"ticker"`
	Price  float64 `json:"price"`
	Day    Day     `json:"day"`
}

// TickPayload is the validated body of one inbound tick. The field names
// mirror the wire format, mixed casing included.
type TickPayload struct {
	Positions     []Position           `json:"Positions"`
	MarketSummary []MarketSummaryEntry `json:"Market_Summary"`
	MarketHistory []MarketHistoryEntry `json:"market_history"`
	Day           string               `json:"DAY,omitempty"`
}

// Recommendation is the structured SELL/STAY/BUY decision for one ticker,
// produced fresh each tick.
type Recommendation struct {
	Action   string `json:"action"`
	Ticker   string `json:"ticker"`
	Quantity int    `json:"quantity"`
}

// PositionSnapshot is the persisted per-ticker view, derived from a position
// and the current market summary at write time.
type PositionSnapshot struct {
	Ticker        string  `json:"ticker"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
	CurrentPrice  float64 `json:"current_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// HistoryEntry is one appended trading-log record. Quantity is written only
// when the recommended quantity was greater than zero.
type HistoryEntry struct {
	Date     string  `json:"date"`
	Ticker   string  `json:"ticker"`
	Action   string  `json:"action"`
	Price    float64 `json:"price"`
	Note     string  `json:"note"`
	Quantity int     `json:"quantity,omitempty"`
}

// TickSummary is the accounting section of a tick response.
type TickSummary struct {
	PositionsEvaluated int     `json:"positions_evaluated"`
	UnrealizedPnL      float64 `json:"unrealized_pnl"`
}

// TickResult is the response body for a processed tick. Decisions is
// reserved and always empty; recommendation detail goes to the trading log,
// not the response.
type TickResult struct {
	Result    string           `json:"result"`
	Summary   TickSummary      `json:"summary"`
	Decisions []Recommendation `json:"decisions"`
}
