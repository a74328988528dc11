package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"trading-simulator/src/models"
)

// -----------------------------------------------------------------------------
// Shared row scanning for both backends. Column order matches the SELECT
// statements in sqlite.go and postgres.go.
// -----------------------------------------------------------------------------

func scanRecords(rows *sql.Rows) ([]models.MBacktestRecord, error) {
	var records []models.MBacktestRecord

	for rows.Next() {
		var rec models.MBacktestRecord
		var params, curve string
		var createdAt int64

		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Symbol, &rec.Strategy, &params,
			&rec.InitialCapital, &rec.FinalBalance, &rec.ROI, &rec.TotalTrades,
			&rec.WinRate, &curve, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan backtest record: %w", err)
		}

		if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params for record %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(curve), &rec.EquityCurve); err != nil {
			return nil, fmt.Errorf("failed to decode equity curve for record %s: %w", rec.ID, err)
		}

		rec.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, rec)
	}

	return records, rows.Err()
}
