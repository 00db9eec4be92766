package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

const validPayload = `{
	"Positions": [
		{"ticker": "AAPL", "quantity": 10, "purchase_price": 180.0},
		{"ticker": "CASH", "quantity": 1000, "purchase_price": 1.0}
	],
	"Market_Summary": [
		{"ticker": "AAPL", "current_price": 182.5, "category": "high"}
	],
	"market_history": [
		{"ticker": "AAPL", "price": 179.8, "day": 1},
		{"ticker": "AAPL", "price": 181.2, "day": "2024-03-02"}
	]
}`

func TestTickValid(t *testing.T) {
	payload, err := Tick(decode(t, validPayload))
	require.NoError(t, err)

	require.Len(t, payload.Positions, 2)
	assert.Equal(t, "AAPL", payload.Positions[0].Ticker)
	assert.Equal(t, 10.0, payload.Positions[0].Quantity)
	assert.Equal(t, 180.0, payload.Positions[0].PurchasePrice)

	require.Len(t, payload.MarketSummary, 1)
	assert.Equal(t, 182.5, payload.MarketSummary[0].CurrentPrice)
	assert.Equal(t, "high", payload.MarketSummary[0].Category)

	require.Len(t, payload.MarketHistory, 2)
	assert.False(t, payload.MarketHistory[0].Day.IsDate)
	assert.Equal(t, 1, payload.MarketHistory[0].Day.Number)
	assert.True(t, payload.MarketHistory[1].Day.IsDate)
	assert.Equal(t, "2024-03-02", payload.MarketHistory[1].Day.Date)

	assert.Empty(t, payload.Day)
}

func TestTickValidWithDay(t *testing.T) {
	doc := decode(t, validPayload).(map[string]any)
	doc["DAY"] = "2024-03-03"

	payload, err := Tick(doc)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", payload.Day)
}

func TestTickRejections(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		message string
	}{
		{
			name:    "not an object",
			raw:     `[1, 2]`,
			message: "Payload must be a JSON object",
		},
		{
			name:    "missing positions",
			raw:     `{"Market_Summary": [], "market_history": []}`,
			message: "Missing required field: Positions",
		},
		{
			name:    "positions not a list",
			raw:     `{"Positions": {}}`,
			message: "Positions must be a list",
		},
		{
			name:    "positions empty",
			raw:     `{"Positions": []}`,
			message: "Positions must be a non-empty list",
		},
		{
			name:    "position not an object",
			raw:     `{"Positions": ["AAPL"]}`,
			message: "Position at index 0 must be an object",
		},
		{
			name:    "position missing ticker",
			raw:     `{"Positions": [{"ticker": "AAPL", "quantity": 1, "purchase_price": 1}, {"quantity": 1, "purchase_price": 1}]}`,
			message: "Position at index 1 missing 'ticker'",
		},
		{
			name:    "position ticker not a string",
			raw:     `{"Positions": [{"ticker": 7, "quantity": 1, "purchase_price": 1}]}`,
			message: "Position at index 0: 'ticker' must be a string",
		},
		{
			name:    "position quantity not a number",
			raw:     `{"Positions": [{"ticker": "AAPL", "quantity": "ten", "purchase_price": 1}]}`,
			message: "Position at index 0: 'quantity' must be a number",
		},
		{
			name:    "position quantity boolean",
			raw:     `{"Positions": [{"ticker": "AAPL", "quantity": true, "purchase_price": 1}]}`,
			message: "Position at index 0: 'quantity' must be a number",
		},
		{
			name:    "missing market summary",
			raw:     `{"Positions": [{"ticker": "AAPL", "quantity": 1, "purchase_price": 1}]}`,
			message: "Missing required field: Market_Summary",
		},
		{
			name:    "market summary empty",
			raw:     `{"Positions": [{"ticker": "AAPL", "quantity": 1, "purchase_price": 1}], "Market_Summary": []}`,
			message: "Market Summary must be a non-empty list",
		},
		{
			name:    "market summary missing category",
			raw:     `{"Positions": [{"ticker": "AAPL", "quantity": 1, "purchase_price": 1}], "Market_Summary": [{"ticker": "AAPL", "current_price": 1}]}`,
			message: "Market_Summary at index 0 missing 'category'",
		},
		{
			name:    "missing market history",
			raw:     `{"Positions": [{"ticker": "AAPL", "quantity": 1, "purchase_price": 1}], "Market_Summary": [{"ticker": "AAPL", "current_price": 1, "category": "low"}]}`,
			message: "Missing required field: market_history",
		},
		{
			name:    "history day fractional",
			raw:     `{"Positions": [{"ticker": "AAPL", "quantity": 1, "purchase_price": 1}], "Market_Summary": [{"ticker": "AAPL", "current_price": 1, "category": "low"}], "market_history": [{"ticker": "AAPL", "price": 1, "day": 1.5}]}`,
			message: "market_history at index 0: 'day' must be a string or integer",
		},
		{
			name:    "history day null",
			raw:     `{"Positions": [{"ticker": "AAPL", "quantity": 1, "purchase_price": 1}], "Market_Summary": [{"ticker": "AAPL", "current_price": 1, "category": "low"}], "market_history": [{"ticker": "AAPL", "price": 1, "day": null}]}`,
			message: "market_history at index 0: 'day' must be a string or integer",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := Tick(decode(t, tc.raw))
			require.Error(t, err)
			assert.Nil(t, payload)
			assert.Equal(t, tc.message, err.Error())
		})
	}
}

func TestTickRejectsNonStringDay(t *testing.T) {
	doc := decode(t, validPayload).(map[string]any)
	doc["DAY"] = 7

	_, err := Tick(doc)
	require.Error(t, err)
	assert.Equal(t, "DAY must be a string in 'yyyy-mm-dd' format", err.Error())
}

// The checks run in document order and stop at the first violation, so a
// payload broken in several sections reports only the earliest one.
func TestTickFailsFast(t *testing.T) {
	_, err := Tick(decode(t, `{"Positions": [], "Market_Summary": [], "market_history": "nope", "DAY": 1}`))
	require.Error(t, err)
	assert.Equal(t, "Positions must be a non-empty list", err.Error())
}
