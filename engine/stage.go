package engine

import (
	"github.com/dnldd/radar/shared"
)

const (
	// retraceFactor is the fraction of the peak dif the dea must retrace to
	// in order to fire a breakout retrace alert.
	retraceFactor = 0.5
)

// Stage represents the breakout pattern stage of a market.
type Stage int

const (
	Waiting Stage = iota
	UnderwaterCross
	Breakout
	FullBreakout
)

// String stringifies the provided stage.
func (s Stage) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case UnderwaterCross:
		return "underwater cross"
	case Breakout:
		return "breakout"
	case FullBreakout:
		return "full breakout"
	default:
		return "unknown"
	}
}

// StageState tracks the breakout pattern progress of a market. PeakDIF is
// only set while the state is in the full breakout stage.
type StageState struct {
	Market        string
	Stage         Stage
	PeakDIF       float64
	LastAlertDate string
}

// NewStageState initializes stage tracking for the provided market.
func NewStageState(market string) *StageState {
	return &StageState{
		Market: market,
	}
}

// reset returns the state to the waiting stage and clears the tracked peak
// and alert date. A fresh full breakout re-entry may fire again on the same
// day at this level, the daily alert gate is the final end to end filter.
func (s *StageState) reset() {
	s.Stage = Waiting
	s.PeakDIF = 0
	s.LastAlertDate = ""
}

// Advance advances the stage of the market using the provided snapshot and
// returns an alert event when the pattern completes. Calls must be strictly
// ordered by increasing bar date.
func (s *StageState) Advance(snapshot *shared.IndicatorSnapshot) *shared.AlertEvent {
	switch s.Stage {
	case Waiting:
		// An underwater golden cross (dea < dif < 0) starts the pattern.
		if snapshot.DEA < snapshot.DIF && snapshot.DIF < 0 {
			s.Stage = UnderwaterCross
		}

	case UnderwaterCross:
		// The stage holds until the dif breaks above the zero line.
		if snapshot.DIF > 0 && snapshot.DEA < 0 {
			s.Stage = Breakout
		}

	case Breakout:
		switch {
		case snapshot.DIF < 0:
			s.reset()
		case snapshot.DIF > 0 && snapshot.DEA > 0:
			s.Stage = FullBreakout
			s.PeakDIF = snapshot.DIF
		}

	case FullBreakout:
		if snapshot.DIF < 0 {
			s.reset()
			return nil
		}

		if snapshot.DIF > s.PeakDIF {
			s.PeakDIF = snapshot.DIF
		}

		if s.PeakDIF <= 0 {
			// Cannot occur given the breakout entry condition, guard anyway.
			return nil
		}

		day := shared.TradingDate(snapshot.Date)
		if snapshot.DEA <= s.PeakDIF*retraceFactor && s.LastAlertDate != day {
			s.LastAlertDate = day

			event := shared.NewAlertEvent(s.Market, snapshot.Timeframe, shared.FullBreakoutRetrace,
				[]shared.Reason{shared.DEARetracedHalfPeak}, snapshot.Date)
			event.PeakDIF = s.PeakDIF
			event.DEA = snapshot.DEA

			return &event
		}
	}

	return nil
}
