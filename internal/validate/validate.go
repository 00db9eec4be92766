// Package validate gates inbound tick payloads. Checks run in a fixed order
// and stop at the first violation, so callers get one specific message per
// bad payload. A payload that passes comes back as typed records; nothing
// downstream touches raw JSON maps.
package validate

import (
	"errors"
	"fmt"
	"math"

	"tick_trader/internal/models"
)

// Tick validates a decoded JSON document against the tick payload shape and
// builds the typed payload. Only structure and types are checked; ticker
// consistency across sections is not.
func Tick(doc any) (*models.TickPayload, error) {
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("Payload must be a JSON object")
	}

	var payload models.TickPayload

	positions, err := requireList(root, "Positions", "Positions")
	if err != nil {
		return nil, err
	}
	for i, el := range positions {
		pos, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("Position at index %d must be an object", i)
		}
		p := models.Position{}
		if p.Ticker, err = requireString(pos, "ticker", "Position", i); err != nil {
			return nil, err
		}
		if p.Quantity, err = requireNumber(pos, "quantity", "Position", i); err != nil {
			return nil, err
		}
		if p.PurchasePrice, err = requireNumber(pos, "purchase_price", "Position", i); err != nil {
			return nil, err
		}
		payload.Positions = append(payload.Positions, p)
	}

	summary, err := requireList(root, "Market_Summary", "Market Summary")
	if err != nil {
		return nil, err
	}
	for i, el := range summary {
		item, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("Market_Summary item at index %d must be an object", i)
		}
		s := models.MarketSummaryEntry{}
		if s.Ticker, err = requireString(item, "ticker", "Market_Summary", i); err != nil {
			return nil, err
		}
		if s.CurrentPrice, err = requireNumber(item, "current_price", "Market_Summary", i); err != nil {
			return nil, err
		}
		if s.Category, err = requireString(item, "category", "Market_Summary", i); err != nil {
			return nil, err
		}
		payload.MarketSummary = append(payload.MarketSummary, s)
	}

	history, err := requireList(root, "market_history", "market_history")
	if err != nil {
		return nil, err
	}
	for i, el := range history {
		item, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("market_history item at index %d must be an object", i)
		}
		h := models.MarketHistoryEntry{}
		if h.Ticker, err = requireString(item, "ticker", "market_history", i); err != nil {
			return nil, err
		}
		if h.Price, err = requireNumber(item, "price", "market_history", i); err != nil {
			return nil, err
		}
		day, present := item["day"]
		if !present {
			return nil, fmt.Errorf("market_history at index %d missing 'day'", i)
		}
		switch v := day.(type) {
		case string:
			h.Day = models.Day{Date: v, IsDate: true}
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("market_history at index %d: 'day' must be a string or integer", i)
			}
			h.Day = models.Day{Number: int(v)}
		default:
			return nil, fmt.Errorf("market_history at index %d: 'day' must be a string or integer", i)
		}
		payload.MarketHistory = append(payload.MarketHistory, h)
	}

	if day, present := root["DAY"]; present {
		s, ok := day.(string)
		if !ok {
			return nil, errors.New("DAY must be a string in 'yyyy-mm-dd' format")
		}
		payload.Day = s
	}

	return &payload, nil
}

// requireList enforces presence, list-ness and non-emptiness of a top-level
// section. emptyName differs from the field name in one historical message
// ("Market Summary"), kept for compatibility with existing clients.
func requireList(root map[string]any, field, emptyName string) ([]any, error) {
	raw, present := root[field]
	if !present {
		return nil, fmt.Errorf("Missing required field: %s", field)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a list", field)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%s must be a non-empty list", emptyName)
	}
	return list, nil
}

func requireString(obj map[string]any, field, section string, idx int) (string, error) {
	raw, present := obj[field]
	if !present {
		return "", fmt.Errorf("%s at index %d missing '%s'", section, idx, field)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s at index %d: '%s' must be a string", section, idx, field)
	}
	return s, nil
}

func requireNumber(obj map[string]any, field, section string, idx int) (float64, error) {
	raw, present := obj[field]
	if !present {
		return 0, fmt.Errorf("%s at index %d missing '%s'", section, idx, field)
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%s at index %d: '%s' must be a number", section, idx, field)
	}
	return f, nil
}
