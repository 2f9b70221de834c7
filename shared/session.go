package shared

import (
	"fmt"
	"time"
)

const (
	// Session names.
	Morning   = "morning"
	Afternoon = "afternoon"

	// Market session times (equities) in tokyo time (JST).
	MorningOpen    = "09:00"
	MorningClose   = "11:30"
	AfternoonOpen  = "12:30"
	AfternoonClose = "15:30"
)

// Session represents a market session.
type Session struct {
	Name  string
	Open  time.Time
	Close time.Time
}

// NewSession initializes a new market session on the day of the provided time.
func NewSession(name string, open string, close string, now time.Time) (*Session, error) {
	sessionOpen, err := time.Parse(SessionTimeLayout, open)
	if err != nil {
		return nil, fmt.Errorf("parsing session open: %w", err)
	}

	sessionClose, err := time.Parse(SessionTimeLayout, close)
	if err != nil {
		return nil, fmt.Errorf("parsing session close: %w", err)
	}

	loc := now.Location()
	sOpen := time.Date(now.Year(), now.Month(), now.Day(), sessionOpen.Hour(), sessionOpen.Minute(), 0, 0, loc)
	sClose := time.Date(now.Year(), now.Month(), now.Day(), sessionClose.Hour(), sessionClose.Minute(), 0, 0, loc)

	session := &Session{
		Name:  name,
		Open:  sOpen,
		Close: sClose,
	}

	return session, nil
}

// IsCurrentSession checks whether the provided time falls within the session.
// Both boundaries are inclusive, the closing auction bar at 15:30 still
// belongs to the afternoon session.
func (s *Session) IsCurrentSession(current time.Time) bool {
	return !current.Before(s.Open) && !current.After(s.Close)
}

// CurrentSession returns the current active session name, or an empty
// string when the market is closed (weekend, lunch break or after hours).
func CurrentSession(now time.Time) (string, error) {
	weekday := now.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return "", nil
	}

	sessions := []struct {
		name  string
		open  string
		close string
	}{
		{Morning, MorningOpen, MorningClose},
		{Afternoon, AfternoonOpen, AfternoonClose},
	}

	for _, sess := range sessions {
		session, err := NewSession(sess.name, sess.open, sess.close, now)
		if err != nil {
			return "", fmt.Errorf("creating %s session: %w", sess.name, err)
		}

		if session.IsCurrentSession(now) {
			return session.Name, nil
		}
	}

	return "", nil
}

// IsMarketOpen checks whether the tracked exchange is open by checking if
// the current time is within one of the market sessions.
func IsMarketOpen(now time.Time) (bool, string, error) {
	name, err := CurrentSession(now)
	if err != nil {
		return false, name, fmt.Errorf("fetching current market session: %v", err)
	}

	var open bool
	if name != "" {
		open = true
	}

	return open, name, nil
}

// TradingDate returns the trading date key associated with the provided time.
func TradingDate(t time.Time) string {
	return t.Format(TradingDateLayout)
}
