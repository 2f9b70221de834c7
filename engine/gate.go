package engine

import (
	"sync"
)

// DailyAlertGate deduplicates alerts per market and trading date. Marks for
// past trading dates are evicted whenever a newer date is seen.
type DailyAlertGate struct {
	mtx    sync.Mutex
	day    string
	marked map[string]struct{}
}

// NewDailyAlertGate initializes a new daily alert gate.
func NewDailyAlertGate() *DailyAlertGate {
	return &DailyAlertGate{
		marked: make(map[string]struct{}),
	}
}

// roll advances the gate to the provided trading date, discarding marks for
// older dates. The caller must hold the gate mutex.
func (g *DailyAlertGate) roll(day string) {
	if day > g.day {
		g.day = day
		g.marked = make(map[string]struct{})
	}
}

// ShouldAlert checks whether the provided market can still alert on the
// provided trading date.
func (g *DailyAlertGate) ShouldAlert(market string, day string) bool {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	g.roll(day)
	if day < g.day {
		// A mark for a past date can no longer be consulted reliably,
		// refuse the alert.
		return false
	}

	_, ok := g.marked[market]
	return !ok
}

// MarkAlerted marks the provided market as alerted on the provided trading date.
func (g *DailyAlertGate) MarkAlerted(market string, day string) {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	g.roll(day)
	if day < g.day {
		return
	}

	g.marked[market] = struct{}{}
}

// Warm seeds the gate with markets already alerted on the provided trading
// date, used to survive restarts within a session.
func (g *DailyAlertGate) Warm(day string, markets map[string]struct{}) {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	g.roll(day)
	if day < g.day {
		return
	}

	for market := range markets {
		g.marked[market] = struct{}{}
	}
}
