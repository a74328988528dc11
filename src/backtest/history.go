package backtest

import (
	"trading-simulator/src/interfaces"
	"trading-simulator/src/models"
)

// -----------------------------------------------------------------------------
// History & aggregation
// -----------------------------------------------------------------------------

const (
	// HistoryLimit caps the history listing.
	HistoryLimit = 10

	// NoStrategy is the sentinel returned when a user has no records at all.
	NoStrategy = "none"
)

// -----------------------------------------------------------------------------

// HistoryAggregator computes per-user rollups over stored records.
type HistoryAggregator struct {
	Store interfaces.IDatabase
}

// -----------------------------------------------------------------------------

func NewHistoryAggregator(store interfaces.IDatabase) *HistoryAggregator {
	return &HistoryAggregator{Store: store}
}

// -----------------------------------------------------------------------------

// ListRecent returns up to limit records for a user, newest first. A
// non-positive limit falls back to HistoryLimit.
func (h *HistoryAggregator) ListRecent(userID string, limit int) ([]models.MBacktestRecord, error) {
	if limit <= 0 {
		limit = HistoryLimit
	}
	return h.Store.RecentRecords(userID, limit)
}

// -----------------------------------------------------------------------------

// ComputeProfileStats derives fresh stats from every record the user owns.
// bestStrategy is the strategy with the highest mean ROI; ties go to the
// lexicographically smallest strategy name so the result is deterministic
// regardless of map iteration order.
func (h *HistoryAggregator) ComputeProfileStats(userID string) (*models.MProfileStats, error) {
	records, err := h.Store.RecordsByUser(userID)
	if err != nil {
		return nil, err
	}

	stats := &models.MProfileStats{
		TotalBacktests: len(records),
		BestStrategy:   NoStrategy,
	}
	if len(records) == 0 {
		return stats, nil
	}

	type group struct {
		totalROI float64
		count    int
	}

	sum := 0.0
	groups := make(map[string]*group)
	for _, rec := range records {
		sum += rec.ROI
		g, ok := groups[rec.Strategy]
		if !ok {
			g = &group{}
			groups[rec.Strategy] = g
		}
		g.totalROI += rec.ROI
		g.count++
	}
	stats.AvgROI = sum / float64(len(records))

	best := ""
	bestAvg := 0.0
	for name, g := range groups {
		avg := g.totalROI / float64(g.count)
		if best == "" || avg > bestAvg || (avg == bestAvg && name < best) {
			best = name
			bestAvg = avg
		}
	}
	stats.BestStrategy = best

	return stats, nil
}
