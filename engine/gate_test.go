package engine

import (
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestDailyAlertGate(t *testing.T) {
	gate := NewDailyAlertGate()

	market := "7203.T"
	other := "9984.T"
	day := "2025-06-02"

	// Ensure an unmarked market can alert.
	assert.True(t, gate.ShouldAlert(market, day))

	// Ensure a marked market cannot alert again on the same trading date.
	gate.MarkAlerted(market, day)
	assert.False(t, gate.ShouldAlert(market, day))

	// Ensure the mark does not affect other markets.
	assert.True(t, gate.ShouldAlert(other, day))

	// Ensure rolling to the next trading date evicts the mark.
	nextDay := "2025-06-03"
	assert.True(t, gate.ShouldAlert(market, nextDay))

	// Ensure a mark for a past trading date is refused.
	gate.MarkAlerted(market, day)
	assert.True(t, gate.ShouldAlert(market, nextDay))

	// Ensure an alert request for a past trading date is refused.
	assert.False(t, gate.ShouldAlert(market, day))
}

func TestDailyAlertGateWarm(t *testing.T) {
	gate := NewDailyAlertGate()

	day := "2025-06-02"
	marked := map[string]struct{}{
		"7203.T": {},
		"9984.T": {},
	}

	// Ensure warming seeds persisted marks for the trading date.
	gate.Warm(day, marked)
	assert.False(t, gate.ShouldAlert("7203.T", day))
	assert.False(t, gate.ShouldAlert("9984.T", day))
	assert.True(t, gate.ShouldAlert("6758.T", day))

	// Ensure warming with a past trading date is a no-op.
	gate.Warm("2025-05-30", map[string]struct{}{"6758.T": {}})
	assert.True(t, gate.ShouldAlert("6758.T", day))
}
