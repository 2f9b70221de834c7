package engine

import (
	"testing"
	"time"

	"github.com/dnldd/radar/shared"
	"github.com/peterldowns/testy/assert"
)

// dailySnapshot builds a daily snapshot with reversal data.
func dailySnapshot(market string, date time.Time, close, lower, rsi, dif, dea float64) shared.IndicatorSnapshot {
	return shared.IndicatorSnapshot{
		Market:          market,
		Timeframe:       shared.OneDay,
		Date:            date,
		DIF:             dif,
		DEA:             dea,
		Histogram:       dif - dea,
		RSI:             rsi,
		LowerBand:       lower,
		Close:           close,
		HasReversalData: true,
	}
}

func TestTrackReversal(t *testing.T) {
	market := "7203.T"
	state := NewTrackState(market)

	loc, err := time.LoadLocation(shared.TokyoLocation)
	assert.NoError(t, err)

	bar := time.Date(2025, time.June, 2, 15, 30, 0, 0, loc)
	advance := func(close, lower, rsi, dif, dea float64) *shared.AlertEvent {
		snapshot := dailySnapshot(market, bar, close, lower, rsi, dif, dea)
		bar = bar.AddDate(0, 0, 1)
		return state.Advance(&snapshot)
	}

	// Ensure a lower band pierce sets the first track.
	event := advance(98, 99, 28, -2, -1)
	assert.Nil(t, event)
	assert.True(t, state.Track1Touched)
	assert.False(t, state.Track2Armed)

	// Ensure an rsi cross back above the oversold threshold arms the
	// second track.
	event = advance(101, 99, 32, -1.8, -1)
	assert.Nil(t, event)
	assert.True(t, state.Track2Armed)

	// Ensure a macd golden cross confirms the third track, fires the alert
	// and resets both flags.
	event = advance(104, 99, 45, -0.5, -1)
	assert.NotNil(t, event)
	assert.Equal(t, event.Market, market)
	assert.Equal(t, event.Kind, shared.ThreeTrackConfirm)
	assert.In(t, shared.MACDGoldenCross, event.Reasons)
	assert.False(t, state.Track1Touched)
	assert.False(t, state.Track2Armed)
}

func TestTrackHistogramConfirmation(t *testing.T) {
	market := "9984.T"
	state := NewTrackState(market)

	loc, err := time.LoadLocation(shared.TokyoLocation)
	assert.NoError(t, err)

	bar := time.Date(2025, time.June, 2, 15, 30, 0, 0, loc)
	advance := func(close, lower, rsi, dif, dea float64) *shared.AlertEvent {
		snapshot := dailySnapshot(market, bar, close, lower, rsi, dif, dea)
		bar = bar.AddDate(0, 0, 1)
		return state.Advance(&snapshot)
	}

	// Walk the first two tracks.
	advance(98, 99, 28, -2, -1)
	advance(101, 99, 32, -2, -1)
	assert.True(t, state.Track1Touched)
	assert.True(t, state.Track2Armed)

	// Ensure the histogram turning non-negative also confirms track three.
	event := advance(104, 99, 45, -1, -1)
	assert.NotNil(t, event)
	assert.In(t, shared.HistogramTurnedPositive, event.Reasons)
}

func TestTrackOrdering(t *testing.T) {
	market := "6758.T"
	state := NewTrackState(market)

	loc, err := time.LoadLocation(shared.TokyoLocation)
	assert.NoError(t, err)

	bar := time.Date(2025, time.June, 2, 15, 30, 0, 0, loc)
	advance := func(close, lower, rsi, dif, dea float64) *shared.AlertEvent {
		snapshot := dailySnapshot(market, bar, close, lower, rsi, dif, dea)
		bar = bar.AddDate(0, 0, 1)
		return state.Advance(&snapshot)
	}

	// Ensure a macd cross without the first two tracks does not fire.
	event := advance(104, 99, 45, -2, -1)
	assert.Nil(t, event)

	event = advance(104, 99, 45, -0.5, -1)
	assert.Nil(t, event)
	assert.False(t, state.Track1Touched)
	assert.False(t, state.Track2Armed)

	// Ensure an rsi reversal before a band touch does not arm track two.
	state = NewTrackState(market)
	advance(104, 99, 28, -2, -1)
	event = advance(104, 99, 32, -2, -1)
	assert.Nil(t, event)
	assert.False(t, state.Track2Armed)
}

func TestTrackSameBarConfirmation(t *testing.T) {
	market := "8035.T"
	state := NewTrackState(market)

	loc, err := time.LoadLocation(shared.TokyoLocation)
	assert.NoError(t, err)

	bar := time.Date(2025, time.June, 2, 15, 30, 0, 0, loc)

	// Seed a previous oversold bar without touching any track.
	prev := dailySnapshot(market, bar, 104, 99, 28, -2, -1)
	event := state.Advance(&prev)
	assert.Nil(t, event)

	// Ensure a single bar satisfying all three tracks fires immediately.
	confirm := dailySnapshot(market, bar.AddDate(0, 0, 1), 98, 99, 32, -0.5, -1)
	event = state.Advance(&confirm)
	assert.NotNil(t, event)
	assert.Equal(t, event.Kind, shared.ThreeTrackConfirm)
	assert.False(t, state.Track1Touched)
	assert.False(t, state.Track2Armed)
}
