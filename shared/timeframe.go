package shared

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the format layout for parsing provider dates.
	DateLayout = "2006-01-02 15:04:05"
	// ClockLayout is the format layout for candle times in alert messages.
	ClockLayout = "15:04:05 ET"
	// NewYorkLocation is the time zone of the monitored exchange.
	NewYorkLocation = "America/New_York"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	FiveMinute Timeframe = iota
	OneMinute
	OneHour
)

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case OneMinute:
		return "1m"
	case FiveMinute:
		return "5m"
	case OneHour:
		return "1h"
	default:
		return "unknown"
	}
}

// Duration returns the time period covered by a single candle of the timeframe.
func (t Timeframe) Duration() (time.Duration, error) {
	switch t {
	case OneMinute:
		return time.Minute, nil
	case FiveMinute:
		return time.Minute * 5, nil
	case OneHour:
		return time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown timeframe provided: %s", t.String())
	}
}

// NewYorkTime returns the current time in new york (EST/EDT adjusted automatically).
func NewYorkTime() (time.Time, *time.Location, error) {
	loc, err := time.LoadLocation(NewYorkLocation)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("loading new york timezone: %w", err)
	}

	now := time.Now().In(loc)
	return now, loc, nil
}
