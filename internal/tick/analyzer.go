// Package tick runs one decision pass: account for the current payload, ask
// the model for recommendations (or fall back to STAY), log them, forward
// them to the execution service and persist the resulting positions. A tick
// always completes with some recorded state; only validation upstream can
// stop one.
package tick

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tick_trader/internal/ai"
	"tick_trader/internal/broker"
	"tick_trader/internal/models"
	"tick_trader/internal/pnl"
	"tick_trader/internal/storage"
)

// Analyzer owns one tick's pipeline. All collaborators are injected; nothing
// here touches ambient globals.
type Analyzer struct {
	recommender ai.Recommender
	executor    broker.TradeExecutor
	positions   storage.PositionsStore
	history     storage.HistoryStore
	logger      *zap.Logger
	now         func() time.Time
}

func NewAnalyzer(
	recommender ai.Recommender,
	executor broker.TradeExecutor,
	positions storage.PositionsStore,
	history storage.HistoryStore,
	logger *zap.Logger,
) *Analyzer {
	return &Analyzer{
		recommender: recommender,
		executor:    executor,
		positions:   positions,
		history:     history,
		logger:      logger,
		now:         time.Now,
	}
}

// Analyze processes one validated tick. Downstream failures (model,
// execution service, disk) degrade and continue; the summary reflects the
// inbound payload regardless.
func (a *Analyzer) Analyze(ctx context.Context, tradeID string, payload *models.TickPayload) models.TickResult {
	logger := a.logger.With(
		zap.String("tick_id", uuid.New().String()),
		zap.String("trade_id", tradeID),
	)

	summary := pnl.Evaluate(payload.Positions, payload.MarketSummary)
	logger.Info("tick accounted",
		zap.Int("positions_evaluated", summary.PositionsEvaluated),
		zap.Float64("unrealized_pnl", summary.TotalUnrealizedPnL))

	narrative, recommendations, err := a.recommender.Evaluate(ctx, payload)
	switch {
	case err != nil:
		logger.Warn("recommendation request failed, using STAY fallback", zap.Error(err))
		recommendations = fallbackRecommendations(payload.Positions)
	case len(recommendations) == 0:
		logger.Warn("model returned no recommendations, using STAY fallback")
		recommendations = fallbackRecommendations(payload.Positions)
	default:
		logger.Info("recommendations received",
			zap.Int("count", len(recommendations)),
			zap.String("narrative", narrative))
	}

	if len(recommendations) > 0 {
		a.logHistory(logger, payload, recommendations)
		a.forwardAndPersist(ctx, logger, tradeID, payload, recommendations)
	} else {
		// Even the fallback found nothing to recommend, meaning there
		// are no non-CASH positions. Snapshot the payload as-is.
		a.persist(logger, payload.Positions, payload.MarketSummary)
	}

	return models.TickResult{
		Result: "success",
		Summary: models.TickSummary{
			PositionsEvaluated: summary.PositionsEvaluated,
			UnrealizedPnL:      summary.TotalUnrealizedPnL,
		},
		Decisions: []models.Recommendation{},
	}
}

// fallbackRecommendations synthesizes one STAY with quantity 0 per non-CASH
// position, so logging and forwarding always see deterministic input when
// the model is unavailable.
func fallbackRecommendations(positions []models.Position) []models.Recommendation {
	var recs []models.Recommendation
	for _, pos := range positions {
		if pos.Ticker == models.CashTicker {
			continue
		}
		recs = append(recs, models.Recommendation{
			Action:   models.ActionStay,
			Ticker:   pos.Ticker,
			Quantity: 0,
		})
	}
	return recs
}

// logHistory appends one entry per recommendation to the trading log. The
// date comes from the payload's DAY when present. A write failure is logged
// and the tick carries on.
func (a *Analyzer) logHistory(logger *zap.Logger, payload *models.TickPayload, recommendations []models.Recommendation) {
	date := payload.Day
	if date == "" {
		date = a.now().Format("2006-01-02")
	}
	prices := pnl.PriceIndex(payload.MarketSummary)

	entries := make([]models.HistoryEntry, 0, len(recommendations))
	for _, rec := range recommendations {
		entries = append(entries, models.HistoryEntry{
			Date:     date,
			Ticker:   rec.Ticker,
			Action:   rec.Action,
			Price:    prices[rec.Ticker],
			Note:     fmt.Sprintf("AI recommendation: %s %d shares", rec.Action, rec.Quantity),
			Quantity: rec.Quantity,
		})
	}
	if err := a.history.Append(entries); err != nil {
		logger.Error("trading history append failed", zap.Error(err))
	}
}

// forwardAndPersist sends the batch to the execution service. Its returned
// positions are the authoritative new holdings; when it fails or returns
// none, the snapshot falls back to the inbound payload's positions.
func (a *Analyzer) forwardAndPersist(ctx context.Context, logger *zap.Logger, tradeID string, payload *models.TickPayload, recommendations []models.Recommendation) {
	updated, err := a.executor.Execute(ctx, tradeID, recommendations)
	if err != nil {
		logger.Warn("trade forwarding failed, persisting payload positions", zap.Error(err))
		a.persist(logger, payload.Positions, payload.MarketSummary)
		return
	}
	if len(updated) == 0 {
		logger.Warn("execution service returned no positions, persisting payload positions")
		a.persist(logger, payload.Positions, payload.MarketSummary)
		return
	}

	logger.Info("trade executed", zap.Int("positions", len(updated)))
	a.persist(logger, updated, payload.MarketSummary)
}

func (a *Analyzer) persist(logger *zap.Logger, positions []models.Position, summary []models.MarketSummaryEntry) {
	if err := a.positions.Replace(pnl.Snapshot(positions, summary)); err != nil {
		logger.Error("positions snapshot write failed", zap.Error(err))
	}
}
