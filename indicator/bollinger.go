package indicator

import (
	"fmt"
	"math"
)

const (
	// BollingerPeriod is the default bollinger band period.
	BollingerPeriod = 20
	// BollingerStdDev is the default standard deviation multiplier.
	BollingerStdDev = 2
)

// BollingerLower computes the lower bollinger band series (sma - k * sigma)
// of the provided close price series. Sigma is the sample standard deviation
// over the rolling window. Entries before the window fills are NaN.
func BollingerLower(closes []float64, period int, stdDev float64) ([]float64, error) {
	if period <= 1 {
		return nil, fmt.Errorf("bollinger period must be greater than one, got %d", period)
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("no values provided for bollinger bands")
	}

	lower := make([]float64, len(closes))
	warmupNaN(lower, len(lower))

	for idx := period - 1; idx < len(closes); idx++ {
		var sum float64
		for k := idx - period + 1; k <= idx; k++ {
			sum += closes[k]
		}
		mean := sum / float64(period)

		var variance float64
		for k := idx - period + 1; k <= idx; k++ {
			diff := closes[k] - mean
			variance += diff * diff
		}
		sigma := math.Sqrt(variance / float64(period-1))

		lower[idx] = mean - stdDev*sigma
	}

	return lower, nil
}
