package indicator

import (
	"fmt"
	"math"
)

const (
	// RSIPeriod is the default rsi period.
	RSIPeriod = 14
)

// RSI computes the relative strength index series of the provided close price
// series using rolling mean gains and losses over the provided period. The
// first period entries are NaN while the rolling window warms up.
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("rsi period must be positive, got %d", period)
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("no values provided for rsi")
	}

	rsi := make([]float64, len(closes))
	warmupNaN(rsi, len(rsi))

	if len(closes) <= period {
		return rsi, nil
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for idx := 1; idx < len(closes); idx++ {
		delta := closes[idx] - closes[idx-1]
		switch {
		case delta > 0:
			gains[idx] = delta
		case delta < 0:
			losses[idx] = -delta
		}
	}

	for idx := period; idx < len(closes); idx++ {
		var gainSum, lossSum float64
		for k := idx - period + 1; k <= idx; k++ {
			gainSum += gains[k]
			lossSum += losses[k]
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		switch {
		case avgLoss == 0 && avgGain == 0:
			rsi[idx] = 50
		case avgLoss == 0:
			rsi[idx] = 100
		default:
			rs := avgGain / avgLoss
			rsi[idx] = 100 - (100 / (1 + rs))
		}
	}

	return rsi, nil
}

// Oversold reports whether the provided rsi value is below the provided threshold.
func Oversold(rsi float64, threshold float64) bool {
	return !math.IsNaN(rsi) && rsi < threshold
}
