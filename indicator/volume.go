package indicator

import (
	"errors"
	"fmt"
	"math"

	"github.com/dnldd/spike/shared"
)

const (
	// DefaultVolumeWindow is the number of preceding candles averaged for relative volume.
	DefaultVolumeWindow = 20
)

// VolumeGenerator represents a trailing volume average indicator. The average for a candle
// covers only the candles before it.
type VolumeGenerator struct {
	Market    string
	Timeframe shared.Timeframe
	window    []float64
	start     int
	count     int
	sum       float64
}

// NewVolumeGenerator initializes a volume indicator for the provided market and timeframe.
func NewVolumeGenerator(market string, timeframe shared.Timeframe, size int) (*VolumeGenerator, error) {
	if size <= 0 {
		return nil, errors.New("volume window size must be positive")
	}

	return &VolumeGenerator{
		Market:    market,
		Timeframe: timeframe,
		window:    make([]float64, size),
	}, nil
}

// Update sets the volume average, volume ratio and move percent of the provided candle, then
// adds its volume to the trailing window. The average and ratio are NaN until the window is full.
func (v *VolumeGenerator) Update(candle *shared.Candlestick) error {
	if candle.Timeframe != v.Timeframe {
		return fmt.Errorf("expected candles with timeframe %s, got %s",
			v.Timeframe.String(), candle.Timeframe.String())
	}

	size := len(v.window)

	candle.VolumeAverage = math.NaN()
	candle.VolumeRatio = math.NaN()
	if v.count == size {
		avg := v.sum / float64(size)
		candle.VolumeAverage = avg
		if avg != 0 {
			candle.VolumeRatio = candle.Volume / avg
		}
	}
	candle.MovePercent = candle.FetchMovePercent()

	// Overwrite the oldest entry when the window is at capacity.
	end := (v.start + v.count) % size
	if v.count == size {
		v.sum -= v.window[v.start]
		v.start = (v.start + 1) % size
	} else {
		v.count++
	}
	v.window[end] = candle.Volume
	v.sum += candle.Volume

	return nil
}

// Reset clears the trailing window.
func (v *VolumeGenerator) Reset() {
	v.start = 0
	v.count = 0
	v.sum = 0
}

// ApplyVolume derives the volume and move fields of the provided chronologically ordered candles.
func ApplyVolume(candles []shared.Candlestick, size int) error {
	if len(candles) == 0 {
		return nil
	}

	gen, err := NewVolumeGenerator(candles[0].Market, candles[0].Timeframe, size)
	if err != nil {
		return err
	}

	for idx := range candles {
		err := gen.Update(&candles[idx])
		if err != nil {
			return fmt.Errorf("updating volume for %s candle at index %d: %w", candles[idx].Market, idx, err)
		}
	}

	return nil
}
