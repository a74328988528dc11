package backtest

import (
	"context"
	"math"
	"time"

	"trading-simulator/src/helpers"
	"trading-simulator/src/interfaces"
	"trading-simulator/src/logger"
	"trading-simulator/src/models"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------

// Orchestrator runs the request/compute/persist pipeline. Invocations share
// no mutable state, so concurrent runs from different users never interfere.
type Orchestrator struct {
	Store  interfaces.IDatabase
	Engine interfaces.IEngineClient
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// RunResult is what one orchestration produces. Record is non-nil only when
// the engine succeeded AND the record was persisted.
type RunResult struct {
	Engine *models.MEngineResult
	Record *models.MBacktestRecord
}

// -----------------------------------------------------------------------------

func NewOrchestrator(store interfaces.IDatabase, eng interfaces.IEngineClient, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		Store:  store,
		Engine: eng,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Run validates the request, fills in synthetic data when none was supplied,
// makes exactly one engine call, and persists the outcome. Error classes:
//   - helpers.ValidationError: rejected before any downstream call
//   - helpers.EngineError / EngineUnavailableError: engine failed, nothing persisted
//   - helpers.PersistenceError: engine succeeded but the write failed; the
//     computed result is still returned alongside the error so the caller
//     can show it while reporting that history will not reflect the run.
func (o *Orchestrator) Run(ctx context.Context, req *models.MBacktestRequest, userID string) (*RunResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	if req.Symbol == "" {
		req.Symbol = "AAPL"
	}
	if len(req.Data) == 0 {
		req.Data = GenerateBars(req.Symbol, DefaultBarCount)
	}

	result, err := o.Engine.RunBacktest(ctx, req)
	if err != nil {
		return nil, err
	}

	// An engine response without a backtest object is passed through as-is;
	// there is nothing to persist.
	if result.Backtest == nil {
		return &RunResult{Engine: result}, nil
	}

	record := buildRecord(req, result.Backtest, userID)
	if err := o.Store.SaveRecord(record); err != nil {
		o.Logger.Error("Backtest computed but record not persisted for user %s: %v", userID, err)
		return &RunResult{Engine: result}, helpers.NewPersistenceError(err)
	}

	return &RunResult{Engine: result, Record: record}, nil
}

// -----------------------------------------------------------------------------

func buildRecord(req *models.MBacktestRequest, summary *models.MBacktestSummary, userID string) *models.MBacktestRecord {
	// Flatten the engine's equity curve to bare equity values.
	curve := make([]float64, 0, len(summary.EquityCurve))
	for _, p := range summary.EquityCurve {
		curve = append(curve, p.Equity)
	}

	return &models.MBacktestRecord{
		ID:             uuid.NewString(),
		UserID:         userID,
		Symbol:         req.Symbol,
		Strategy:       req.Strategy,
		Params:         req.Params,
		InitialCapital: summary.InitialCapital,
		FinalBalance:   summary.FinalBalance,
		ROI:            summary.ROI,
		TotalTrades:    summary.TotalTrades,
		WinRate:        summary.WinRate,
		EquityCurve:    curve,
		CreatedAt:      time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Request validation
// -----------------------------------------------------------------------------

// ValidateRequest checks the strategy name and its parameter constraints
// before anything is dispatched downstream.
func ValidateRequest(req *models.MBacktestRequest) error {
	switch req.Strategy {
	case models.StrategySMA:
		shortWin, longWin := req.Params["short_window"], req.Params["long_window"]
		if !isPositiveInt(shortWin) || !isPositiveInt(longWin) {
			return helpers.NewValidationError("sma windows must be positive integers")
		}
		if shortWin >= longWin {
			return helpers.NewValidationError("sma short_window must be less than long_window")
		}
	case models.StrategyRSI:
		if !isPositiveInt(req.Params["period"]) {
			return helpers.NewValidationError("rsi period must be a positive integer")
		}
		oversold, overbought := req.Params["oversold"], req.Params["overbought"]
		if oversold <= 0 || oversold >= overbought || overbought >= 100 {
			return helpers.NewValidationError("rsi thresholds must satisfy 0 < oversold < overbought < 100")
		}
	case models.StrategyBreakout:
		if !isPositiveInt(req.Params["lookback"]) {
			return helpers.NewValidationError("breakout lookback must be a positive integer")
		}
	default:
		return helpers.NewValidationError("unknown strategy: %q", req.Strategy)
	}
	return nil
}

// -----------------------------------------------------------------------------

func isPositiveInt(v float64) bool {
	return v > 0 && v == math.Trunc(v)
}
