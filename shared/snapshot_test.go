package shared

import (
	"math"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestSnapshotValidate(t *testing.T) {
	now := time.Date(2025, time.June, 2, 9, 15, 0, 0, time.UTC)

	base := IndicatorSnapshot{
		Market:    "7203.T",
		Timeframe: FifteenMinute,
		Date:      now,
		DIF:       1.2,
		DEA:       0.8,
		Histogram: 0.4,
	}

	// Ensure a well formed snapshot validates.
	snapshot := base
	assert.NoError(t, snapshot.Validate())

	// Ensure a snapshot missing its market is rejected.
	snapshot = base
	snapshot.Market = ""
	assert.Error(t, snapshot.Validate())

	// Ensure a snapshot with a zero date is rejected.
	snapshot = base
	snapshot.Date = time.Time{}
	assert.Error(t, snapshot.Validate())

	// Ensure NaN macd values are rejected.
	snapshot = base
	snapshot.DIF = math.NaN()
	assert.Error(t, snapshot.Validate())

	snapshot = base
	snapshot.DEA = math.Inf(1)
	assert.Error(t, snapshot.Validate())

	snapshot = base
	snapshot.Histogram = math.NaN()
	assert.Error(t, snapshot.Validate())

	// Ensure reversal fields are only validated when flagged present.
	snapshot = base
	snapshot.RSI = math.NaN()
	assert.NoError(t, snapshot.Validate())

	snapshot.HasReversalData = true
	assert.Error(t, snapshot.Validate())

	snapshot.RSI = 32
	snapshot.LowerBand = 98.4
	snapshot.Close = 100.2
	assert.NoError(t, snapshot.Validate())
}

func TestAlertEvent(t *testing.T) {
	now := time.Date(2025, time.June, 2, 9, 15, 0, 0, time.UTC)

	// Ensure alert events are created with unique ids.
	first := NewAlertEvent("7203.T", FifteenMinute, FullBreakoutRetrace,
		[]Reason{DEARetracedHalfPeak}, now)
	second := NewAlertEvent("7203.T", OneDay, ThreeTrackConfirm,
		[]Reason{LowerBandTouch, RSIReversal, MACDGoldenCross}, now)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Kind.String(), "full breakout retrace")
	assert.Equal(t, second.Kind.String(), "three track confirmation")
}
