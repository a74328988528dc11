package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBarsShape(t *testing.T) {
	bars := GenerateBars("AAPL", DefaultBarCount)
	require.Len(t, bars, DefaultBarCount)

	for i, bar := range bars {
		assert.Greater(t, bar.Open, 0.0, "bar %d open", i)
		assert.Greater(t, bar.High, 0.0, "bar %d high", i)
		assert.Greater(t, bar.Low, 0.0, "bar %d low", i)
		assert.Greater(t, bar.Close, 0.0, "bar %d close", i)
		assert.GreaterOrEqual(t, bar.Volume, 0.0, "bar %d volume", i)

		if i > 0 {
			assert.Equal(t, int64(60), bar.Timestamp-bars[i-1].Timestamp, "bars must be minute-spaced")
		}
	}

	// The series ends no later than now (anchored on a trading session).
	assert.LessOrEqual(t, bars[len(bars)-1].Timestamp, time.Now().Unix())
}

func TestGenerateBarsIndependentSeries(t *testing.T) {
	a := GenerateBars("AAPL", 50)
	b := GenerateBars("AAPL", 50)

	same := true
	for i := range a {
		if a[i].Close != b[i].Close {
			same = false
			break
		}
	}
	assert.False(t, same, "two synthesized series should not share values")
}
