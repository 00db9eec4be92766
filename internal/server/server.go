// Package server is the HTTP front end: API-key auth, the tick endpoint,
// the health check and the dashboard data feed. Handlers translate between
// the wire and the tick pipeline; no trading logic lives here.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tick_trader/internal/models"
	"tick_trader/internal/storage"
	"tick_trader/internal/validate"
)

// Analyzer runs one validated tick.
type Analyzer interface {
	Analyze(ctx context.Context, tradeID string, payload *models.TickPayload) models.TickResult
}

// Handler holds the HTTP dependencies.
type Handler struct {
	logger    *zap.Logger
	apiKey    string
	analyzer  Analyzer
	positions storage.PositionsStore
	history   storage.HistoryStore
}

func NewHandler(logger *zap.Logger, apiKey string, analyzer Analyzer, positions storage.PositionsStore, history storage.HistoryStore) *Handler {
	return &Handler{
		logger:    logger,
		apiKey:    apiKey,
		analyzer:  analyzer,
		positions: positions,
		history:   history,
	}
}

// Routes builds the router. The dashboard is deliberately public; everything
// else requires the service API key.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(h.recoverServerError)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthcheck", h.requireAuth(h.healthcheck))
	r.Post("/tick/{trade_id}", h.requireAuth(h.tick))
	r.Get("/dashboard", h.dashboard)

	return r
}

type statusResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

// recoverServerError turns a handler panic into the service's failure
// envelope instead of chi's bare 500.
func (h *Handler) recoverServerError(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path))
				writeJSON(w, http.StatusInternalServerError, statusResponse{
					Result:  "failure",
					Message: fmt.Sprintf("Server error: %v", rec),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requireAuth checks the service API key. Clients send it under a few
// different header names, with or without a Bearer prefix; all spellings
// are accepted.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := ""
		for _, header := range []string{"apikey", "api-key", "x-api-key", "Authorization"} {
			if v := r.Header.Get(header); v != "" {
				key = v
				break
			}
		}
		key = strings.TrimPrefix(key, "Bearer ")

		if key == "" || key != h.apiKey {
			h.logger.Warn("unauthorized request",
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr))
			writeJSON(w, http.StatusUnauthorized, statusResponse{Result: "failure", Message: "Unauthorized"})
			return
		}
		next(w, r)
	}
}

func (h *Handler) healthcheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Result: "success", Message: "Ready to Trade"})
}

// tick handles one POST /tick/{trade_id}: content-type gate, structural
// validation, then the pipeline. Validation failures are 400s with the
// specific message; the pipeline itself always answers 200.
func (h *Handler) tick(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeJSON(w, http.StatusBadRequest, statusResponse{Result: "failure", Message: "Content-Type must be application/json"})
		return
	}

	var doc any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Result: "failure", Message: "Invalid payload: body is not valid JSON"})
		return
	}

	payload, err := validate.Tick(doc)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Result: "failure", Message: "Invalid payload: " + err.Error()})
		return
	}

	result := h.analyzer.Analyze(r.Context(), chi.URLParam(r, "trade_id"), payload)
	writeJSON(w, http.StatusOK, result)
}

type dashboardResponse struct {
	Positions      []models.PositionSnapshot `json:"positions"`
	TradingHistory []models.HistoryEntry     `json:"trading_history"`
}

// dashboard serves the persisted state for display. Store reads already
// degrade to empty collections, so this only fails on real I/O errors.
func (h *Handler) dashboard(w http.ResponseWriter, _ *http.Request) {
	positions, err := h.positions.Read()
	if err != nil {
		h.logger.Error("dashboard positions read failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, statusResponse{Result: "failure", Message: "Error loading dashboard: " + err.Error()})
		return
	}
	history, err := h.history.Read()
	if err != nil {
		h.logger.Error("dashboard history read failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, statusResponse{Result: "failure", Message: "Error loading dashboard: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{Positions: positions, TradingHistory: history})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
