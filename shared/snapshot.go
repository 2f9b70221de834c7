package shared

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// IndicatorSnapshot represents the indicator values of a market at a bar close.
type IndicatorSnapshot struct {
	Market    string
	Timeframe Timeframe
	Date      time.Time

	// MACD values.
	DIF       float64
	DEA       float64
	Histogram float64

	// Optional values, only set for timeframes evaluated by the
	// three track strategy.
	RSI             float64
	LowerBand       float64
	Close           float64
	HasReversalData bool
}

// Validate asserts the snapshot carries well formed indicator values.
func (s *IndicatorSnapshot) Validate() error {
	var errs error

	if s.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("snapshot market cannot be an empty string"))
	}
	if s.Date.IsZero() {
		errs = errors.Join(errs, fmt.Errorf("snapshot date cannot be zero"))
	}
	if math.IsNaN(s.DIF) || math.IsInf(s.DIF, 0) {
		errs = errors.Join(errs, fmt.Errorf("snapshot dif is not a number"))
	}
	if math.IsNaN(s.DEA) || math.IsInf(s.DEA, 0) {
		errs = errors.Join(errs, fmt.Errorf("snapshot dea is not a number"))
	}
	if math.IsNaN(s.Histogram) || math.IsInf(s.Histogram, 0) {
		errs = errors.Join(errs, fmt.Errorf("snapshot histogram is not a number"))
	}

	if s.HasReversalData {
		if math.IsNaN(s.RSI) || math.IsInf(s.RSI, 0) {
			errs = errors.Join(errs, fmt.Errorf("snapshot rsi is not a number"))
		}
		if math.IsNaN(s.LowerBand) || math.IsInf(s.LowerBand, 0) {
			errs = errors.Join(errs, fmt.Errorf("snapshot lower band is not a number"))
		}
		if math.IsNaN(s.Close) || math.IsInf(s.Close, 0) {
			errs = errors.Join(errs, fmt.Errorf("snapshot close is not a number"))
		}
	}

	return errs
}
