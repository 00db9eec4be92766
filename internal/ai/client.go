// Package ai asks the LLM to classify each held position as SELL, STAY or
// BUY. The model answers through a structured tool call; the narrative text
// around it is kept only for logging.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tick_trader/internal/config"
	"tick_trader/internal/models"
)

const toolName = "set_recommendations"

// Recommender produces trade recommendations for a tick payload. The error
// covers transport and provider failures only; a model that answers without
// a usable tool call yields an empty list and a nil error, and the caller
// picks the fallback policy either way.
type Recommender interface {
	Evaluate(ctx context.Context, payload *models.TickPayload) (string, []models.Recommendation, error)
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	system      string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewClient builds a recommendation client from static configuration. The
// risk strategy block is spliced into the system instruction once, here.
func NewClient(cfg config.LLM, apiKey, riskStrategy string) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		system:      systemPrompt(riskStrategy),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), 1),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Tools       []chatTool    `json:"tools"`
	ToolChoice  string        `json:"tool_choice"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Evaluate sends the payload to the model and returns the narrative text
// plus the normalized recommendations from the first matching tool call.
// There are no internal retries.
func (c *Client) Evaluate(ctx context.Context, payload *models.TickPayload) (string, []models.Recommendation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}

	payloadJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("marshal payload: %w", err)
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.system},
			{Role: "user", Content: "Here is the complete simulation payload. Use ONLY this data:\n\n" + string(payloadJSON)},
		},
		Temperature: c.temperature,
		Tools: []chatTool{{
			Type: "function",
			Function: toolFunction{
				Name:        toolName,
				Description: "Submit the final list of trade recommendations for this simulation.",
				Parameters:  json.RawMessage(toolParameters),
			},
		}},
		ToolChoice: "auto",
	})
	if err != nil {
		return "", nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", nil, fmt.Errorf("llm api error %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", nil, fmt.Errorf("decode llm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil, fmt.Errorf("llm response has no choices")
	}

	message := parsed.Choices[0].Message
	narrative := strings.TrimSpace(message.Content)

	for _, call := range message.ToolCalls {
		if call.Type != "function" || call.Function.Name != toolName {
			continue
		}
		return narrative, parseRecommendations(call.Function.Arguments), nil
	}
	return narrative, nil, nil
}

// parseRecommendations decodes the tool-call arguments. Unparseable
// arguments yield an empty list; a malformed item never aborts the batch.
func parseRecommendations(arguments string) []models.Recommendation {
	var args struct {
		Recommendations []map[string]any `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil
	}

	recs := make([]models.Recommendation, 0, len(args.Recommendations))
	for _, item := range args.Recommendations {
		recs = append(recs, normalize(item))
	}
	return recs
}

// normalize coerces one tool-call item into shape: action uppercased, ticker
// trimmed, quantity forced to an integer. A field that cannot be coerced
// becomes its zero value; the item itself is kept.
func normalize(item map[string]any) models.Recommendation {
	return models.Recommendation{
		Action:   strings.ToUpper(coerceString(item["action"])),
		Ticker:   strings.TrimSpace(coerceString(item["ticker"])),
		Quantity: coerceInt(item["quantity"]),
	}
}

func coerceString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func coerceInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return int(f)
	default:
		return 0
	}
}
