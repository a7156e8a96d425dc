package shared

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// Alert embed colors, RGB packed.
	DefaultColor = 3447003
	SpikeColor   = 16711680
	EntryColor   = 65280
)

// AlertKind represents the type of a pattern alert.
type AlertKind int

const (
	SpikeAlert AlertKind = iota
	EntryAlert
)

// String stringifies the provided alert kind.
func (k AlertKind) String() string {
	switch k {
	case SpikeAlert:
		return "spike"
	case EntryAlert:
		return "entry"
	default:
		return "unknown"
	}
}

// Alert represents a pattern notification.
type Alert struct {
	ID          string
	Kind        AlertKind
	Market      string
	Title       string
	Description string
	Color       int
	CandleTime  time.Time
	CreatedOn   time.Time
}

// NewAlert initializes a new alert.
func NewAlert(kind AlertKind, market string, title string, description string, color int, candleTime time.Time, created time.Time) Alert {
	return Alert{
		ID:          uuid.New().String(),
		Kind:        kind,
		Market:      market,
		Title:       title,
		Description: description,
		Color:       color,
		CandleTime:  candleTime,
		CreatedOn:   created,
	}
}

// DedupKey identifies a candle of a market for idempotent alerting.
type DedupKey struct {
	Market    string
	Timestamp int64
}

// NewDedupKey initializes a dedup key for the provided market candle time.
func NewDedupKey(market string, candleTime time.Time) DedupKey {
	return DedupKey{
		Market:    market,
		Timestamp: candleTime.Unix(),
	}
}

// String stringifies the provided dedup key.
func (k DedupKey) String() string {
	return fmt.Sprintf("%s_%s", k.Market, time.Unix(k.Timestamp, 0).UTC().Format(time.RFC3339))
}
