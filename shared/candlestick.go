package shared

import (
	"math"
	"time"
)

// Sentiment represents the candlestick sentiment.
type Sentiment int

const (
	Neutral Sentiment = iota
	Bullish
	Bearish
)

// String stringifies the provided sentiment.
func (s Sentiment) String() string {
	switch s {
	case Neutral:
		return "neutral"
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "unknown"
	}
}

// Candlestick represents a unit candlestick for a market.
type Candlestick struct {
	Open   float64
	Low    float64
	High   float64
	Close  float64
	Volume float64
	Date   time.Time

	// Metadata and derived fields.
	Market        string
	Timeframe     Timeframe
	VolumeAverage float64
	VolumeRatio   float64
	MovePercent   float64
}

// FetchSentiment returns the provided candlestick's sentiment.
func (c *Candlestick) FetchSentiment() Sentiment {
	sentiment := c.Close - c.Open
	switch {
	case sentiment < 0:
		return Bearish
	case sentiment > 0:
		return Bullish
	default:
		return Neutral
	}
}

// IsBearish checks whether the candle closed below its own open.
func (c *Candlestick) IsBearish() bool {
	return c.FetchSentiment() == Bearish
}

// FetchMovePercent returns the open to close move of the candle as a percentage of its open.
func (c *Candlestick) FetchMovePercent() float64 {
	if c.Open == 0 {
		return math.NaN()
	}

	return ((c.Close - c.Open) / c.Open) * 100
}
