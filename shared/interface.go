package shared

import (
	"context"
	"time"
)

// CandleFetcher defines the requirements for fetching intraday market data.
type CandleFetcher interface {
	// FetchIntradayHistorical fetches intraday candles for the market within the provided range.
	FetchIntradayHistorical(ctx context.Context, market string, timeframe Timeframe, start time.Time, end time.Time) ([]Candlestick, error)
}

// Notifier defines the requirements for delivering alerts.
type Notifier interface {
	// Send delivers the provided alert. Delivery is best-effort.
	Send(ctx context.Context, alert Alert)
}

// KeyStore defines the requirements for tracking alerted candles.
type KeyStore interface {
	// Seen checks whether the provided key has been marked.
	Seen(key DedupKey) bool
	// Mark records the provided key along with the time it was detected.
	Mark(key DedupKey, at time.Time)
	// Len returns the number of marked keys.
	Len() int
}

// AlertStorer defines the requirements for archiving sent alerts.
type AlertStorer interface {
	// PersistAlert stores the provided alert.
	PersistAlert(ctx context.Context, alert *Alert) error
}
