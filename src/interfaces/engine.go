package interfaces

import (
	"context"

	"trading-simulator/src/models"
)

// -----------------------------------------------------------------------------
// IEngineClient defines the contract for the external strategy compute engine.
// -----------------------------------------------------------------------------

type IEngineClient interface {
	// RunBacktest dispatches one synchronous compute call. Engine-side
	// failures come back as *helpers.EngineError with the downstream
	// status and body preserved.
	RunBacktest(ctx context.Context, req *models.MBacktestRequest) (*models.MEngineResult, error)
}
