package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"trading-simulator/src/helpers"
	"trading-simulator/src/logger"
	"trading-simulator/src/models"
)

// -----------------------------------------------------------------------------

// Client talks to the external strategy compute engine over HTTP. The engine
// is a black box: it receives OHLCV data plus parameters and returns a fixed
// result shape under the "backtest" key.
type Client struct {
	Config  *models.MConfig
	HClient *http.Client
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewClient(cfg *models.MConfig, log *logger.Logger) *Client {
	return &Client{
		Config: cfg,
		HClient: &http.Client{
			// Transport-level timeout only; the pipeline makes exactly one
			// call per request and does not retry.
			Timeout: time.Duration(cfg.Engine.RequestTimeout) * time.Second,
		},
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// RunBacktest posts the request to {base}/run-backtest and decodes the result.
func (c *Client) RunBacktest(ctx context.Context, req *models.MBacktestRequest) (*models.MEngineResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode engine payload: %w", err)
	}

	url := c.Config.Engine.BaseURL + "/run-backtest"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build engine request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HClient.Do(httpReq)
	if err != nil {
		c.Logger.Error("Engine request failed: %v", err)
		return nil, helpers.NewEngineUnavailableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewEngineUnavailableError(err)
	}

	// Non-2xx responses are surfaced verbatim so the API layer can forward
	// the downstream status and payload.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.Logger.Warning("Engine returned status %d", resp.StatusCode)
		return nil, &helpers.EngineError{Status: resp.StatusCode, Body: body}
	}

	return decodeResult(body)
}

// -----------------------------------------------------------------------------

// decodeResult splits the engine response into the typed backtest summary
// and the untyped remainder (signals, indicator columns) passed through
// to the caller.
func decodeResult(body []byte) (*models.MEngineResult, error) {
	var result models.MEngineResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode engine response: %w", err)
	}

	extra := make(map[string]interface{})
	if err := json.Unmarshal(body, &extra); err != nil {
		return nil, fmt.Errorf("failed to decode engine response: %w", err)
	}
	delete(extra, "backtest")
	result.Extra = extra

	return &result, nil
}
