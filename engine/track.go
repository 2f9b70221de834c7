package engine

import (
	"github.com/dnldd/radar/shared"
)

const (
	// rsiOversold is the rsi threshold marking oversold territory.
	rsiOversold = 30
)

// TrackState tracks the three track reversal progress of a market. Tracks
// accumulate until the third confirms, then the cycle resets.
type TrackState struct {
	Market        string
	Track1Touched bool
	Track2Armed   bool

	prev    shared.IndicatorSnapshot
	hasPrev bool
}

// NewTrackState initializes track tracking for the provided market.
func NewTrackState(market string) *TrackState {
	return &TrackState{
		Market: market,
	}
}

// reset begins a fresh reversal cycle.
func (s *TrackState) reset() {
	s.Track1Touched = false
	s.Track2Armed = false
}

// Advance advances the reversal tracks of the market using the provided
// snapshot and returns an alert event when the third track confirms. Calls
// must be strictly ordered by increasing bar date. Tracks are evaluated in
// order so all three may satisfy on the same bar.
func (s *TrackState) Advance(snapshot *shared.IndicatorSnapshot) *shared.AlertEvent {
	defer func() {
		s.prev = *snapshot
		s.hasPrev = true
	}()

	// Track 1: price pierces the lower bollinger band.
	if snapshot.Close <= snapshot.LowerBand {
		s.Track1Touched = true
	}

	// Track 2: rsi crosses back above the oversold threshold. Arming
	// requires the touch to already be set and the previous bar to have
	// been oversold.
	if s.Track1Touched && !s.Track2Armed && s.hasPrev &&
		s.prev.RSI < rsiOversold && snapshot.RSI >= rsiOversold {
		s.Track2Armed = true
	}

	// Track 3: macd confirmation, only evaluated once the first two tracks
	// are satisfied.
	if !s.Track1Touched || !s.Track2Armed || !s.hasPrev {
		return nil
	}

	goldenCross := s.prev.DIF <= s.prev.DEA && snapshot.DIF > snapshot.DEA
	histogramTurn := s.prev.Histogram < 0 && snapshot.Histogram >= 0
	if !goldenCross && !histogramTurn {
		return nil
	}

	reasons := []shared.Reason{shared.LowerBandTouch, shared.RSIReversal}
	switch {
	case goldenCross:
		reasons = append(reasons, shared.MACDGoldenCross)
	case histogramTurn:
		reasons = append(reasons, shared.HistogramTurnedPositive)
	}

	event := shared.NewAlertEvent(s.Market, snapshot.Timeframe, shared.ThreeTrackConfirm,
		reasons, snapshot.Date)
	event.RSI = snapshot.RSI
	event.Close = snapshot.Close
	event.DEA = snapshot.DEA

	s.reset()

	return &event
}
