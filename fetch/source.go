package fetch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dnldd/spike/indicator"
	"github.com/dnldd/spike/shared"
	"github.com/rs/zerolog"
)

const (
	// DefaultLookback is the default trailing window of fetched market data.
	DefaultLookback = time.Hour * 24
	// DefaultLimit is the default maximum number of candles returned per fetch.
	DefaultLimit = 100
)

// SourceConfig represents the candle source configuration.
type SourceConfig struct {
	// Fetcher is the market data provider.
	Fetcher shared.CandleFetcher
	// Timeframe is the candle timeframe fetched.
	Timeframe shared.Timeframe
	// Lookback is the trailing window of fetched data.
	Lookback time.Duration
	// Limit is the maximum number of most recent candles returned.
	Limit int
	// VolumeWindow is the number of preceding candles averaged for relative volume.
	VolumeWindow int
	// Now returns the current time.
	Now func() time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *SourceConfig) Validate() error {
	var errs error

	if cfg.Fetcher == nil {
		errs = errors.Join(errs, fmt.Errorf("candle fetcher cannot be nil"))
	}
	if cfg.Lookback <= 0 {
		errs = errors.Join(errs, fmt.Errorf("lookback must be positive"))
	}
	if cfg.Limit <= 0 {
		errs = errors.Join(errs, fmt.Errorf("limit must be positive"))
	}
	if cfg.VolumeWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("volume window must be positive"))
	}
	if cfg.Now == nil {
		errs = errors.Join(errs, fmt.Errorf("now function cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Source fetches recent candles for a market and derives their volume indicators.
type Source struct {
	cfg *SourceConfig
}

// NewSource initializes a new candle source.
func NewSource(cfg *SourceConfig) (*Source, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating source config: %w", err)
	}

	return &Source{cfg: cfg}, nil
}

// Fetch returns at most the configured limit of the most recent candles for the provided
// market, in chronological order. A nil slice with no error indicates the provider had no data.
func (s *Source) Fetch(ctx context.Context, market string) ([]shared.Candlestick, error) {
	end := s.cfg.Now()
	start := end.Add(-s.cfg.Lookback)

	candles, err := s.cfg.Fetcher.FetchIntradayHistorical(ctx, market, s.cfg.Timeframe, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching %s candles for %s: %w", s.cfg.Timeframe.String(), market, err)
	}

	if len(candles) == 0 {
		s.cfg.Logger.Debug().Msgf("no %s data returned for %s", s.cfg.Timeframe.String(), market)
		return nil, nil
	}

	slices.SortStableFunc(candles, func(a, b shared.Candlestick) int {
		return a.Date.Compare(b.Date)
	})

	err = indicator.ApplyVolume(candles, s.cfg.VolumeWindow)
	if err != nil {
		return nil, fmt.Errorf("deriving volume indicators for %s: %w", market, err)
	}

	if len(candles) > s.cfg.Limit {
		candles = candles[len(candles)-s.cfg.Limit:]
	}

	return candles, nil
}
