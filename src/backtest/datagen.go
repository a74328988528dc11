package backtest

import (
	"math/rand"
	"time"

	"trading-simulator/src/models"
	"trading-simulator/src/utils"
)

// -----------------------------------------------------------------------------
// Synthetic OHLCV generation
// -----------------------------------------------------------------------------

const (
	// DefaultBarCount is the series length synthesized when a run request
	// carries no data.
	DefaultBarCount = 100

	// Bars are minute-spaced, walking from a fixed baseline.
	barSpacing    = time.Minute
	baselinePrice = 100.0
	minBarPrice   = 0.01
)

// -----------------------------------------------------------------------------

// GenerateBars synthesizes a bounded random walk of count OHLCV bars ending
// on the symbol's most recent trading session. The shape is deterministic
// (count, spacing, baseline start); the values are not.
func GenerateBars(symbol string, count int) []models.MBar {
	cal := utils.GetCalendar(symbol)
	end := cal.LastTradingDay(time.Now()).Unix()

	bars := make([]models.MBar, 0, count)
	price := baselinePrice

	for i := 0; i < count; i++ {
		move := (rand.Float64() - 0.5) * 2
		price += move
		if price < minBarPrice {
			price = minBarPrice
		}

		bars = append(bars, models.MBar{
			Timestamp: end - int64(count-i)*int64(barSpacing/time.Second),
			Open:      price,
			High:      price + rand.Float64(),
			Low:       positive(price - rand.Float64()),
			Close:     positive(price + (rand.Float64() - 0.5)),
			Volume:    float64(rand.Intn(1000)),
		})
	}

	return bars
}

// -----------------------------------------------------------------------------

func positive(v float64) float64 {
	if v < minBarPrice {
		return minBarPrice
	}
	return v
}
