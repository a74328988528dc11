package server

import (
	"trading-simulator/src/backtest"
	"trading-simulator/src/helpers"
	"trading-simulator/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

// runBacktest handles POST /backtest/run.
func (s *Server) runBacktest(c *gin.Context) {
	user := currentUser(c)

	var req models.MBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.Orchestrator.Run(c.Request.Context(), &req, user.ID)
	if err != nil {
		s.writeRunError(c, result, err)
		return
	}

	c.JSON(200, runResponse(result, nil))
}

// -----------------------------------------------------------------------------

// writeRunError maps the pipeline error taxonomy onto HTTP responses.
func (s *Server) writeRunError(c *gin.Context, result *backtest.RunResult, err error) {
	switch {
	case helpers.IsValidationError(err):
		c.JSON(400, gin.H{"error": err.Error()})

	case helpers.IsPersistenceError(err):
		// The engine result is still meaningful; report the missing
		// history entry without failing the request.
		s.Logger.Error("Run completed but not recorded: %v", err)
		c.JSON(200, runResponse(result, gin.H{"warning": "backtest computed but history was not saved"}))

	default:
		if engineErr, ok := helpers.AsEngineError(err); ok {
			// Propagate downstream status code and body verbatim.
			c.Data(engineErr.Status, "application/json", engineErr.Body)
			return
		}
		s.Logger.Error("Backtest error: %v", err)
		c.JSON(500, gin.H{"error": "Internal Server Error"})
	}
}

// -----------------------------------------------------------------------------

// runResponse merges the engine's pass-through fields with the backtest
// summary and the saved record.
func runResponse(result *backtest.RunResult, extra gin.H) gin.H {
	resp := gin.H{}
	if result.Engine != nil {
		for k, v := range result.Engine.Extra {
			resp[k] = v
		}
		if result.Engine.Backtest != nil {
			resp["backtest"] = result.Engine.Backtest
		}
	}
	if result.Record != nil {
		resp["savedRecord"] = result.Record
	}
	for k, v := range extra {
		resp[k] = v
	}
	return resp
}

// -----------------------------------------------------------------------------

// getHistory handles GET /backtest/history.
func (s *Server) getHistory(c *gin.Context) {
	user := currentUser(c)

	records, err := s.History.ListRecent(user.ID, backtest.HistoryLimit)
	if err != nil {
		s.Logger.Error("Fetch history error: %v", err)
		c.JSON(500, gin.H{"error": "Server Error"})
		return
	}

	if records == nil {
		records = []models.MBacktestRecord{}
	}
	c.JSON(200, records)
}

// -----------------------------------------------------------------------------

// getProfile handles GET /user/profile.
func (s *Server) getProfile(c *gin.Context) {
	user := currentUser(c)

	stats, err := s.History.ComputeProfileStats(user.ID)
	if err != nil {
		s.Logger.Error("Profile error: %v", err)
		c.JSON(500, gin.H{"error": "Server Error"})
		return
	}

	c.JSON(200, gin.H{
		"name":           user.Name,
		"email":          user.Email,
		"createdAt":      user.CreatedAt,
		"totalBacktests": stats.TotalBacktests,
		"avgROI":         stats.AvgROI,
		"bestStrategy":   stats.BestStrategy,
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	symbol := s.lastTick.Symbol
	timestamp := s.lastTick.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":           "ok",
		"connections":      s.clientCount.Load(),
		"symbol":           symbol,
		"last_tick":        timestamp,
		"dropped_messages": s.DroppedMessages.Load(),
		"skipped_sends":    s.SkippedSends.Load(),
	})
}
