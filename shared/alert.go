package shared

import (
	"time"

	"github.com/google/uuid"
)

// AlertKind represents the kind of pattern that completed for an alert.
type AlertKind int

const (
	FullBreakoutRetrace AlertKind = iota
	ThreeTrackConfirm
)

// String stringifies the provided alert kind.
func (k AlertKind) String() string {
	switch k {
	case FullBreakoutRetrace:
		return "full breakout retrace"
	case ThreeTrackConfirm:
		return "three track confirmation"
	default:
		return "unknown"
	}
}

// Reason represents a contributing condition for an alert.
type Reason int

const (
	DEARetracedHalfPeak Reason = iota
	LowerBandTouch
	RSIReversal
	MACDGoldenCross
	HistogramTurnedPositive
)

// String stringifies the provided reason.
func (r Reason) String() string {
	switch r {
	case DEARetracedHalfPeak:
		return "dea retraced to half of peak dif"
	case LowerBandTouch:
		return "price touched lower bollinger band"
	case RSIReversal:
		return "rsi reversed from oversold"
	case MACDGoldenCross:
		return "macd golden cross"
	case HistogramTurnedPositive:
		return "macd histogram turned positive"
	default:
		return "unknown"
	}
}

// AlertEvent represents a completed pattern alert for a market.
type AlertEvent struct {
	ID        string
	Market    string
	Timeframe Timeframe
	Kind      AlertKind
	Reasons   []Reason
	CreatedOn time.Time

	// Pattern payload fields.
	PeakDIF float64
	DEA     float64
	RSI     float64
	Close   float64
}

// NewAlertEvent initializes a new alert event.
func NewAlertEvent(market string, timeframe Timeframe, kind AlertKind, reasons []Reason, created time.Time) AlertEvent {
	return AlertEvent{
		ID:        uuid.New().String(),
		Market:    market,
		Timeframe: timeframe,
		Kind:      kind,
		Reasons:   reasons,
		CreatedOn: created,
	}
}
