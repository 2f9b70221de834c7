package indicator

import (
	"fmt"
	"time"

	"github.com/dnldd/radar/shared"
	"go.uber.org/atomic"
)

const (
	// minIntradayBars is the minimum series length for intraday snapshots.
	minIntradayBars = 30
	// minDailyBars is the minimum series length for daily snapshots.
	minDailyBars = 50
)

// Source computes indicator snapshots for a market and timeframe.
type Source struct {
	Market         string
	Timeframe      shared.Timeframe
	Current        atomic.Pointer[shared.IndicatorSnapshot]
	LastUpdateTime atomic.Pointer[time.Time]
}

// NewSource initializes an indicator source for the provided market and timeframe.
func NewSource(market string, timeframe shared.Timeframe) *Source {
	return &Source{
		Market:    market,
		Timeframe: timeframe,
	}
}

// minBars returns the minimum series length required for the source's timeframe.
func (s *Source) minBars() int {
	if s.Timeframe == shared.OneDay {
		return minDailyBars
	}

	return minIntradayBars
}

// Snapshots computes the indicator snapshot series for the provided candles,
// aligned to the candle dates. Daily snapshots additionally carry rsi,
// bollinger lower band and close values for the reversal strategy.
func (s *Source) Snapshots(candles []shared.Candlestick) ([]shared.IndicatorSnapshot, error) {
	if len(candles) < s.minBars() {
		return nil, fmt.Errorf("insufficient %s bars for %s: got %d, need %d",
			s.Timeframe.String(), s.Market, len(candles), s.minBars())
	}

	closes := make([]float64, len(candles))
	for idx := range candles {
		closes[idx] = candles[idx].Close
	}

	macd, err := NewMACD(closes)
	if err != nil {
		return nil, fmt.Errorf("computing macd series: %w", err)
	}

	var rsi, lower []float64
	if s.Timeframe == shared.OneDay {
		rsi, err = RSI(closes, RSIPeriod)
		if err != nil {
			return nil, fmt.Errorf("computing rsi series: %w", err)
		}

		lower, err = BollingerLower(closes, BollingerPeriod, BollingerStdDev)
		if err != nil {
			return nil, fmt.Errorf("computing bollinger series: %w", err)
		}
	}

	snapshots := make([]shared.IndicatorSnapshot, len(candles))
	for idx := range candles {
		snapshot := shared.IndicatorSnapshot{
			Market:    s.Market,
			Timeframe: s.Timeframe,
			Date:      candles[idx].Date,
			DIF:       macd.DIF[idx],
			DEA:       macd.DEA[idx],
			Histogram: macd.Histogram[idx],
		}

		if s.Timeframe == shared.OneDay {
			snapshot.RSI = rsi[idx]
			snapshot.LowerBand = lower[idx]
			snapshot.Close = candles[idx].Close
			snapshot.HasReversalData = true
		}

		snapshots[idx] = snapshot
	}

	last := snapshots[len(snapshots)-1]
	s.Current.Store(&last)
	s.LastUpdateTime.Store(&last.Date)

	return snapshots, nil
}
