// Package broker forwards normalized recommendations to the remote trade
// execution service, the system of record for what the portfolio actually
// holds after a tick.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tick_trader/internal/config"
	"tick_trader/internal/models"
)

// TradeExecutor submits trades and reports the updated positions. A nil
// position list with a nil error means the service accepted the trades but
// returned no holdings; the caller decides what to persist then.
type TradeExecutor interface {
	Execute(ctx context.Context, tradeID string, recommendations []models.Recommendation) ([]models.Position, error)
}

// Client is the HTTP TradeExecutor.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.Execution, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type tradeRequest struct {
	ID     string                  `json:"id"`
	Trades []models.Recommendation `json:"trades"`
}

type tradeResponse struct {
	Positions []models.Position `json:"Positions"`
}

// Execute POSTs the trade batch to /make_trade. Any non-200 status or
// transport failure comes back as an error; the orchestrator treats those
// as soft failures.
func (c *Client) Execute(ctx context.Context, tradeID string, recommendations []models.Recommendation) ([]models.Position, error) {
	body, err := json.Marshal(tradeRequest{ID: tradeID, Trades: recommendations})
	if err != nil {
		return nil, fmt.Errorf("marshal trade request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/make_trade", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trade request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("trade failed: %d: %s", resp.StatusCode, string(detail))
	}

	var parsed tradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode trade response: %w", err)
	}
	return parsed.Positions, nil
}
