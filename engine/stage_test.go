package engine

import (
	"testing"
	"time"

	"github.com/dnldd/radar/shared"
	"github.com/peterldowns/testy/assert"
)

// nextSnapshot builds a 15 minute snapshot advancing the bar clock.
func nextSnapshot(market string, date time.Time, dif float64, dea float64) shared.IndicatorSnapshot {
	return shared.IndicatorSnapshot{
		Market:    market,
		Timeframe: shared.FifteenMinute,
		Date:      date,
		DIF:       dif,
		DEA:       dea,
		Histogram: dif - dea,
	}
}

func TestStageBreakoutRetrace(t *testing.T) {
	market := "7203.T"
	state := NewStageState(market)

	loc, err := time.LoadLocation(shared.TokyoLocation)
	assert.NoError(t, err)

	bar := time.Date(2025, time.June, 2, 9, 15, 0, 0, loc)
	advance := func(dif, dea float64) *shared.AlertEvent {
		snapshot := nextSnapshot(market, bar, dif, dea)
		bar = bar.Add(time.Minute * 15)
		return state.Advance(&snapshot)
	}

	// Ensure an underwater golden cross starts the pattern.
	event := advance(-3, -5)
	assert.Nil(t, event)
	assert.Equal(t, state.Stage, UnderwaterCross)
	assert.Equal(t, state.PeakDIF, float64(0))

	// Ensure a dif zero line breakout advances the pattern.
	event = advance(1, -2)
	assert.Nil(t, event)
	assert.Equal(t, state.Stage, Breakout)

	// Ensure a dea zero line breakout completes the dual breakout and seeds
	// the peak dif.
	event = advance(4, 3)
	assert.Nil(t, event)
	assert.Equal(t, state.Stage, FullBreakout)
	assert.Equal(t, state.PeakDIF, float64(4))

	// Ensure the peak dif is non-decreasing while in full breakout.
	event = advance(5, 3)
	assert.Nil(t, event)
	assert.Equal(t, state.PeakDIF, float64(5))

	event = advance(4.5, 3)
	assert.Nil(t, event)
	assert.Equal(t, state.PeakDIF, float64(5))

	// Ensure a dea retrace to half of the peak dif fires an alert.
	event = advance(6, 2.4)
	assert.NotNil(t, event)
	assert.Equal(t, event.Market, market)
	assert.Equal(t, event.Kind, shared.FullBreakoutRetrace)
	assert.Equal(t, event.DEA, 2.4)
	assert.Equal(t, event.PeakDIF, float64(6))
	assert.Equal(t, state.Stage, FullBreakout)

	// Ensure a second qualifying bar on the same day does not fire again.
	event = advance(6, 2.3)
	assert.Nil(t, event)

	// Ensure a qualifying bar on the next day fires again.
	bar = bar.Add(time.Hour * 24)
	event = advance(6, 2.4)
	assert.NotNil(t, event)
}

func TestStageReset(t *testing.T) {
	market := "9984.T"
	state := NewStageState(market)

	loc, err := time.LoadLocation(shared.TokyoLocation)
	assert.NoError(t, err)

	bar := time.Date(2025, time.June, 2, 9, 15, 0, 0, loc)
	advance := func(dif, dea float64) *shared.AlertEvent {
		snapshot := nextSnapshot(market, bar, dif, dea)
		bar = bar.Add(time.Minute * 15)
		return state.Advance(&snapshot)
	}

	// Ensure a negative dif while in full breakout resets to waiting and
	// clears the peak.
	advance(-3, -5)
	advance(1, -2)
	advance(5, 1)
	assert.Equal(t, state.Stage, FullBreakout)
	assert.Equal(t, state.PeakDIF, float64(5))

	event := advance(-1, 0.5)
	assert.Nil(t, event)
	assert.Equal(t, state.Stage, Waiting)
	assert.Equal(t, state.PeakDIF, float64(0))

	// Ensure a negative dif while in breakout also resets.
	advance(-3, -5)
	advance(1, -2)
	assert.Equal(t, state.Stage, Breakout)

	event = advance(-0.5, -1)
	assert.Nil(t, event)
	assert.Equal(t, state.Stage, Waiting)

	// Ensure an underwater death cross holds the underwater cross stage
	// rather than resetting it.
	advance(-3, -5)
	assert.Equal(t, state.Stage, UnderwaterCross)

	event = advance(-4, -2)
	assert.Nil(t, event)
	assert.Equal(t, state.Stage, UnderwaterCross)

	// Ensure the peak dif is only ever set while in full breakout.
	assert.Equal(t, state.PeakDIF, float64(0))
}

func TestStageResetClearsAlertDate(t *testing.T) {
	market := "6758.T"
	state := NewStageState(market)

	loc, err := time.LoadLocation(shared.TokyoLocation)
	assert.NoError(t, err)

	bar := time.Date(2025, time.June, 2, 9, 15, 0, 0, loc)
	advance := func(dif, dea float64) *shared.AlertEvent {
		snapshot := nextSnapshot(market, bar, dif, dea)
		bar = bar.Add(time.Minute * 15)
		return state.Advance(&snapshot)
	}

	// Walk to a fired alert.
	advance(-3, -5)
	advance(1, -2)
	advance(5, 1)
	event := advance(5, 2.5)
	assert.NotNil(t, event)

	// Ensure a stage reset clears the last alert date.
	advance(-1, 0)
	assert.Equal(t, state.Stage, Waiting)
	assert.Equal(t, state.LastAlertDate, "")

	// Ensure a fresh full breakout re-entry can fire again on the same day
	// at the state machine level, the daily gate is the final filter.
	advance(-3, -5)
	advance(1, -2)
	advance(5, 1)
	event = advance(5, 2.5)
	assert.NotNil(t, event)
}
