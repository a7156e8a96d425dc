package shared

import (
	"fmt"
	"time"
)

const (
	// Regular trading hours of the monitored exchange in new york time (ET).
	RegularOpen  = "09:30"
	RegularClose = "16:00"

	// SessionTimeLayout is the format layout for parsing session times in a day.
	SessionTimeLayout = "15:04"
)

// Session represents a trading session bounded to a single day.
type Session struct {
	Open  time.Time
	Close time.Time
}

// NewSession initializes the session for the day of the provided time, with the
// open and close times interpreted in new york time.
func NewSession(open string, close string, now time.Time) (*Session, error) {
	sessionOpen, err := time.Parse(SessionTimeLayout, open)
	if err != nil {
		return nil, fmt.Errorf("parsing session open: %w", err)
	}

	sessionClose, err := time.Parse(SessionTimeLayout, close)
	if err != nil {
		return nil, fmt.Errorf("parsing session close: %w", err)
	}

	loc, err := time.LoadLocation(NewYorkLocation)
	if err != nil {
		return nil, fmt.Errorf("loading new york timezone: %w", err)
	}

	local := now.In(loc)
	sOpen := time.Date(local.Year(), local.Month(), local.Day(), sessionOpen.Hour(), sessionOpen.Minute(), 0, 0, loc)
	sClose := time.Date(local.Year(), local.Month(), local.Day(), sessionClose.Hour(), sessionClose.Minute(), 0, 0, loc)
	if !sClose.After(sOpen) {
		return nil, fmt.Errorf("session close %s must be after open %s", close, open)
	}

	return &Session{
		Open:  sOpen,
		Close: sClose,
	}, nil
}

// Contains checks whether the provided time falls within the session, both bounds inclusive.
func (s *Session) Contains(current time.Time) bool {
	return !current.Before(s.Open) && !current.After(s.Close)
}

// IsMarketOpen checks whether the exchange is open at the provided time. Weekends are closed,
// weekdays are open during regular trading hours. Exchange holidays are not accounted for.
func IsMarketOpen(now time.Time) (bool, error) {
	session, err := NewSession(RegularOpen, RegularClose, now)
	if err != nil {
		return false, fmt.Errorf("creating regular session: %w", err)
	}

	switch session.Open.Weekday() {
	case time.Saturday, time.Sunday:
		return false, nil
	}

	return session.Contains(now), nil
}
