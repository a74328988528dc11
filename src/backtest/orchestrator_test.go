package backtest

import (
	"context"
	"errors"
	"testing"

	"trading-simulator/src/helpers"
	"trading-simulator/src/logger"
	"trading-simulator/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Mocks
// -----------------------------------------------------------------------------

type mockStore struct {
	records []models.MBacktestRecord
	users   map[string]*models.MUser
	saveErr error
}

func (m *mockStore) Initialize() error { return nil }

func (m *mockStore) SaveRecord(record *models.MBacktestRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = append(m.records, *record)
	return nil
}

func (m *mockStore) RecentRecords(userID string, limit int) ([]models.MBacktestRecord, error) {
	all, err := m.RecordsByUser(userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *mockStore) RecordsByUser(userID string) ([]models.MBacktestRecord, error) {
	// Newest first: records are appended in creation order.
	var out []models.MBacktestRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

func (m *mockStore) UserByToken(token string) (*models.MUser, error) {
	if user, ok := m.users[token]; ok {
		return user, nil
	}
	return nil, errors.New("no such user")
}

func (m *mockStore) CreateUser(user *models.MUser) error { return nil }
func (m *mockStore) Close() error                        { return nil }

// -----------------------------------------------------------------------------

type mockEngine struct {
	lastReq *models.MBacktestRequest
	result  *models.MEngineResult
	err     error
	calls   int
}

func (m *mockEngine) RunBacktest(ctx context.Context, req *models.MBacktestRequest) (*models.MEngineResult, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func testOrchestrator(store *mockStore, eng *mockEngine) *Orchestrator {
	return NewOrchestrator(store, eng, logger.NewLogger(nil, "test"))
}

func engineSuccess() *models.MEngineResult {
	return &models.MEngineResult{
		Backtest: &models.MBacktestSummary{
			InitialCapital: 10000,
			FinalBalance:   10500,
			ROI:            5.0,
			TotalTrades:    8,
			WinRate:        62.5,
			EquityCurve: []models.MEquityPoint{
				{Equity: 10000}, {Equity: 10200}, {Equity: 10500},
			},
		},
		Extra: map[string]interface{}{"strategy": "sma"},
	}
}

func smaRequest() *models.MBacktestRequest {
	return &models.MBacktestRequest{
		Symbol:   "AAPL",
		Strategy: models.StrategySMA,
		Params:   map[string]float64{"short_window": 20, "long_window": 50},
	}
}

// -----------------------------------------------------------------------------
// Validation
// -----------------------------------------------------------------------------

func TestRunRejectsUnknownStrategy(t *testing.T) {
	store := &mockStore{}
	eng := &mockEngine{}
	orch := testOrchestrator(store, eng)

	req := &models.MBacktestRequest{Symbol: "AAPL", Strategy: "martingale"}
	result, err := orch.Run(context.Background(), req, "u1")

	require.Error(t, err)
	assert.True(t, helpers.IsValidationError(err))
	assert.Nil(t, result)
	assert.Zero(t, eng.calls, "engine must not be called for an invalid request")
	assert.Empty(t, store.records)
}

func TestValidateRequestParamConstraints(t *testing.T) {
	cases := []struct {
		name    string
		req     *models.MBacktestRequest
		wantErr bool
	}{
		{"sma valid", smaRequest(), false},
		{"sma short >= long", &models.MBacktestRequest{Strategy: "sma", Params: map[string]float64{"short_window": 50, "long_window": 50}}, true},
		{"sma fractional window", &models.MBacktestRequest{Strategy: "sma", Params: map[string]float64{"short_window": 2.5, "long_window": 50}}, true},
		{"sma missing params", &models.MBacktestRequest{Strategy: "sma"}, true},
		{"rsi valid", &models.MBacktestRequest{Strategy: "rsi", Params: map[string]float64{"period": 14, "oversold": 30, "overbought": 70}}, false},
		{"rsi inverted thresholds", &models.MBacktestRequest{Strategy: "rsi", Params: map[string]float64{"period": 14, "oversold": 70, "overbought": 30}}, true},
		{"rsi overbought at 100", &models.MBacktestRequest{Strategy: "rsi", Params: map[string]float64{"period": 14, "oversold": 30, "overbought": 100}}, true},
		{"rsi zero period", &models.MBacktestRequest{Strategy: "rsi", Params: map[string]float64{"period": 0, "oversold": 30, "overbought": 70}}, true},
		{"breakout valid", &models.MBacktestRequest{Strategy: "breakout", Params: map[string]float64{"lookback": 20}}, false},
		{"breakout zero lookback", &models.MBacktestRequest{Strategy: "breakout", Params: map[string]float64{"lookback": 0}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.req)
			if tc.wantErr {
				assert.True(t, helpers.IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Pipeline
// -----------------------------------------------------------------------------

func TestRunSynthesizesDataWhenEmpty(t *testing.T) {
	store := &mockStore{}
	eng := &mockEngine{result: engineSuccess()}
	orch := testOrchestrator(store, eng)

	_, err := orch.Run(context.Background(), smaRequest(), "u1")
	require.NoError(t, err)

	require.NotNil(t, eng.lastReq)
	assert.Len(t, eng.lastReq.Data, DefaultBarCount)
}

func TestRunKeepsSuppliedData(t *testing.T) {
	store := &mockStore{}
	eng := &mockEngine{result: engineSuccess()}
	orch := testOrchestrator(store, eng)

	req := smaRequest()
	req.Data = []models.MBar{{Timestamp: 1, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}}
	_, err := orch.Run(context.Background(), req, "u1")
	require.NoError(t, err)

	assert.Len(t, eng.lastReq.Data, 1)
}

func TestRunPersistsRecordOnSuccess(t *testing.T) {
	store := &mockStore{}
	eng := &mockEngine{result: engineSuccess()}
	orch := testOrchestrator(store, eng)

	result, err := orch.Run(context.Background(), smaRequest(), "u1")
	require.NoError(t, err)
	require.NotNil(t, result.Record)

	rec := result.Record
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, 5.0, rec.ROI)
	assert.Equal(t, 8, rec.TotalTrades)
	assert.Equal(t, 62.5, rec.WinRate)
	assert.Equal(t, []float64{10000, 10200, 10500}, rec.EquityCurve)

	// ROI invariant
	expected := (rec.FinalBalance - rec.InitialCapital) / rec.InitialCapital * 100
	assert.InDelta(t, expected, rec.ROI, 1e-6)

	// Exactly one row per successful run
	require.Len(t, store.records, 1)
	assert.Equal(t, rec.ID, store.records[0].ID)
}

func TestRunEngineFailurePersistsNothing(t *testing.T) {
	store := &mockStore{}
	eng := &mockEngine{err: &helpers.EngineError{Status: 400, Body: []byte(`{"detail":"Empty data provided"}`)}}
	orch := testOrchestrator(store, eng)

	result, err := orch.Run(context.Background(), smaRequest(), "u1")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, store.records)

	engineErr, ok := helpers.AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, 400, engineErr.Status)
	assert.Contains(t, string(engineErr.Body), "Empty data")
}

func TestRunPersistenceFailureIsDistinct(t *testing.T) {
	store := &mockStore{saveErr: errors.New("disk full")}
	eng := &mockEngine{result: engineSuccess()}
	orch := testOrchestrator(store, eng)

	result, err := orch.Run(context.Background(), smaRequest(), "u1")
	require.Error(t, err)
	assert.True(t, helpers.IsPersistenceError(err))

	_, isEngine := helpers.AsEngineError(err)
	assert.False(t, isEngine, "a persistence failure must never look like an engine failure")

	// The computed result is still available, but no record was created.
	require.NotNil(t, result)
	assert.NotNil(t, result.Engine)
	assert.Nil(t, result.Record)
}

func TestRunWithoutBacktestObjectPersistsNothing(t *testing.T) {
	store := &mockStore{}
	eng := &mockEngine{result: &models.MEngineResult{Extra: map[string]interface{}{"status": "no signals"}}}
	orch := testOrchestrator(store, eng)

	result, err := orch.Run(context.Background(), smaRequest(), "u1")
	require.NoError(t, err)
	assert.Nil(t, result.Record)
	assert.Empty(t, store.records)
}
