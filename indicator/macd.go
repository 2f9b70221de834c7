package indicator

import (
	"fmt"
	"math"
)

const (
	// Default MACD periods.
	FastPeriod   = 12
	SlowPeriod   = 26
	SignalPeriod = 9
)

// EMA computes the exponential moving average series of the provided values
// using the recursive form (alpha = 2 / (span + 1)), seeded with the first value.
func EMA(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, fmt.Errorf("ema span must be positive, got %d", span)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no values provided for ema")
	}

	alpha := 2 / (float64(span) + 1)
	ema := make([]float64, len(values))
	ema[0] = values[0]

	for idx := 1; idx < len(values); idx++ {
		ema[idx] = alpha*values[idx] + (1-alpha)*ema[idx-1]
	}

	return ema, nil
}

// MACD represents the macd series of a close price series.
type MACD struct {
	DIF       []float64
	DEA       []float64
	Histogram []float64
}

// NewMACD computes the macd series (dif, dea and histogram) for the provided
// close price series.
func NewMACD(closes []float64) (*MACD, error) {
	fast, err := EMA(closes, FastPeriod)
	if err != nil {
		return nil, fmt.Errorf("computing fast ema: %w", err)
	}

	slow, err := EMA(closes, SlowPeriod)
	if err != nil {
		return nil, fmt.Errorf("computing slow ema: %w", err)
	}

	dif := make([]float64, len(closes))
	for idx := range closes {
		dif[idx] = fast[idx] - slow[idx]
	}

	dea, err := EMA(dif, SignalPeriod)
	if err != nil {
		return nil, fmt.Errorf("computing signal ema: %w", err)
	}

	histogram := make([]float64, len(closes))
	for idx := range closes {
		histogram[idx] = dif[idx] - dea[idx]
	}

	macd := &MACD{
		DIF:       dif,
		DEA:       dea,
		Histogram: histogram,
	}

	return macd, nil
}

// warmupNaN fills the first n entries of the provided series with NaN.
func warmupNaN(series []float64, n int) {
	for idx := 0; idx < n && idx < len(series); idx++ {
		series[idx] = math.NaN()
	}
}
