package simulator

import (
	"math"
	"math/rand"
	"time"

	"trading-simulator/src/models"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	// BaselinePrice is the starting price for every new symbol.
	BaselinePrice = 100.0

	// MaxStep bounds the per-tick random walk: each advance moves the
	// price by at most ±MaxStep.
	MaxStep = 0.4

	// Fixed offsets deriving the synthetic candle around the new price.
	openOffset = -0.3
	highOffset = 0.5
	lowOffset  = -0.7

	// Floor keeping the price strictly positive after clamping.
	minPrice = 0.01
)

// -----------------------------------------------------------------------------
// PriceSimulator
// -----------------------------------------------------------------------------

// PriceSimulator holds the walk state for one synthetic instrument. It is
// not safe for concurrent use: the feed hub is its single owner and mutates
// it only from the tick loop goroutine.
type PriceSimulator struct {
	symbol string
	price  float64
	rng    *rand.Rand
}

// -----------------------------------------------------------------------------

func NewPriceSimulator(symbol string) *PriceSimulator {
	return &PriceSimulator{
		symbol: symbol,
		price:  BaselinePrice,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// -----------------------------------------------------------------------------

// Advance applies one bounded perturbation and returns the resulting tick
// stamped with the current wall-clock time.
func (s *PriceSimulator) Advance() models.MTick {
	s.price += (s.rng.Float64() - 0.5) * 2 * MaxStep
	if s.price < minPrice {
		s.price = minPrice
	}

	return models.MTick{
		Symbol:    s.symbol,
		Price:     round2(s.price),
		Open:      round2(s.price + openOffset),
		High:      round2(s.price + highOffset),
		Low:       round2(s.price + lowOffset),
		Close:     round2(s.price),
		Timestamp: time.Now().UnixMilli(),
	}
}

// -----------------------------------------------------------------------------

// ChangeSymbol switches to a new instrument. Price continuity is deliberately
// discarded: a new symbol always restarts from the baseline.
func (s *PriceSimulator) ChangeSymbol(symbol string) {
	s.symbol = symbol
	s.price = BaselinePrice
}

// -----------------------------------------------------------------------------

func (s *PriceSimulator) Symbol() string {
	return s.symbol
}

func (s *PriceSimulator) Price() float64 {
	return s.price
}

// -----------------------------------------------------------------------------

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
