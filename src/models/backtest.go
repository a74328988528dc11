package models

import "time"

// Known strategy names accepted by the compute engine.
const (
	StrategySMA      = "sma"
	StrategyRSI      = "rsi"
	StrategyBreakout = "breakout"
)

// MBar is one OHLCV candle sent to the compute engine.
type MBar struct {
	Timestamp int64   `json:"timestamp"` // unix seconds
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// MBacktestRequest is the inbound run request. Data is optional; when empty
// the orchestrator synthesizes a series before dispatch.
type MBacktestRequest struct {
	Symbol   string             `json:"symbol"`
	Strategy string             `json:"strategy"`
	Params   map[string]float64 `json:"params"`
	Data     []MBar             `json:"data,omitempty"`
}

// MBacktestRecord is the persisted outcome of one successful run.
// Immutable once written; only ever read back for history and aggregation.
type MBacktestRecord struct {
	ID             string             `json:"id"`
	UserID         string             `json:"user"`
	Symbol         string             `json:"symbol"`
	Strategy       string             `json:"strategy"`
	Params         map[string]float64 `json:"params"`
	InitialCapital float64            `json:"initialCapital"`
	FinalBalance   float64            `json:"finalBalance"`
	ROI            float64            `json:"roi"`
	TotalTrades    int                `json:"totalTrades"`
	WinRate        float64            `json:"winRate"`
	EquityCurve    []float64          `json:"equityCurve"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// MProfileStats is derived per request from a user's records, never stored.
type MProfileStats struct {
	TotalBacktests int     `json:"totalBacktests"`
	AvgROI         float64 `json:"avgROI"`
	BestStrategy   string  `json:"bestStrategy"`
}

// MEquityPoint mirrors the engine's equity_curve entries.
type MEquityPoint struct {
	Equity    float64 `json:"equity"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// MBacktestSummary is the engine's "backtest" result object.
type MBacktestSummary struct {
	InitialCapital float64        `json:"initial_capital"`
	FinalBalance   float64        `json:"final_balance"`
	ROI            float64        `json:"roi"`
	TotalTrades    int            `json:"total_trades"`
	WinRate        float64        `json:"win_rate"`
	EquityCurve    []MEquityPoint `json:"equity_curve"`
}

// MEngineResult is the full engine response. Extra holds the remaining
// engine fields (signals, indicator data) passed through to the caller.
type MEngineResult struct {
	Backtest *MBacktestSummary      `json:"backtest"`
	Extra    map[string]interface{} `json:"-"`
}
