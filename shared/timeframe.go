package shared

import (
	"fmt"
	"time"
)

const (
	// SessionTimeLayout is the format layout for parsing session times in a day.
	SessionTimeLayout = "15:04"
	// DateLayout is the format layout for parsing bar dates.
	DateLayout = "2006-01-02 15:04:05"
	// TradingDateLayout is the format layout for trading dates.
	TradingDateLayout = "2006-01-02"
	// TokyoLocation is the locale used for the tracked exchange.
	TokyoLocation = "Asia/Tokyo"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	FifteenMinute Timeframe = iota
	OneDay
)

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case FifteenMinute:
		return "15m"
	case OneDay:
		return "1d"
	default:
		return "unknown"
	}
}

// Duration returns the bar interval of the provided timeframe.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case FifteenMinute:
		return time.Minute * 15
	case OneDay:
		return time.Hour * 24
	default:
		return 0
	}
}

// TokyoTime returns the current time in tokyo (JST).
func TokyoTime() (time.Time, *time.Location, error) {
	loc, err := time.LoadLocation(TokyoLocation)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("loading tokyo timezone: %w", err)
	}

	now := time.Now().In(loc)
	return now, loc, nil
}
