package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/spike/database"
	"github.com/dnldd/spike/engine"
	"github.com/dnldd/spike/fetch"
	"github.com/dnldd/spike/notify"
	"github.com/dnldd/spike/shared"
	"github.com/dnldd/spike/store"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// Market data providers.
	YahooProvider   = "yahoo"
	FMPProvider     = "fmp"
	PolygonProvider = "polygon"
)

// SpikeConfig represents the configuration struct for the spike service.
type SpikeConfig struct {
	// Markets represents the tracked markets.
	Markets []string
	// WebhookURL is the discord webhook alerts are delivered to.
	WebhookURL string
	// Provider is the market data provider.
	Provider string
	// FMPAPIkey is the FMP service API Key.
	FMPAPIKey string
	// PolygonAPIKey is the polygon service API key.
	PolygonAPIKey string
	// DBEndpoint is the optional alert journal endpoint.
	DBEndpoint string
	// DBUser is the alert journal user.
	DBUser string
	// DBPass is the alert journal user pass.
	DBPass string
	// Interval is the wait between cycles.
	Interval time.Duration
	// TickerDelay is the wait between markets within a cycle.
	TickerDelay time.Duration
	// RecoveryInterval is the wait before the next cycle after a failed cycle.
	RecoveryInterval time.Duration
	// HeartbeatInterval is the period of the status log job.
	HeartbeatInterval time.Duration
	// Lookback is the trailing window of fetched market data.
	Lookback time.Duration
	// Limit is the maximum number of candles evaluated per market.
	Limit int
	// VolumeWindow is the number of preceding candles averaged for relative volume.
	VolumeWindow int
	// SpikeThreshold is the minimum move percent of a spike candle.
	SpikeThreshold float64
}

// Validate asserts the config sane inputs.
func (cfg *SpikeConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for spike service"))
	}
	if cfg.WebhookURL == "" {
		errs = errors.Join(errs, fmt.Errorf("webhook url cannot be an empty string"))
	}

	switch cfg.Provider {
	case YahooProvider:
	case FMPProvider:
		if cfg.FMPAPIKey == "" {
			errs = errors.Join(errs, fmt.Errorf("fmp api key cannot be an empty string"))
		}
	case PolygonProvider:
		if cfg.PolygonAPIKey == "" {
			errs = errors.Join(errs, fmt.Errorf("polygon api key cannot be an empty string"))
		}
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown market data provider: %q", cfg.Provider))
	}

	return errs
}

// newFetcher creates the configured market data provider.
func newFetcher(cfg *SpikeConfig) (shared.CandleFetcher, error) {
	switch cfg.Provider {
	case YahooProvider:
		return fetch.NewYahooClient(&fetch.YahooConfig{}), nil
	case FMPProvider:
		return fetch.NewFMPClient(&fetch.FMPConfig{APIKey: cfg.FMPAPIKey})
	case PolygonProvider:
		return fetch.NewPolygonClient(&fetch.PolygonConfig{APIKey: cfg.PolygonAPIKey})
	default:
		return nil, fmt.Errorf("unknown market data provider: %q", cfg.Provider)
	}
}

// Spike represents the spike and death candle monitoring service.
type Spike struct {
	cfg     *SpikeConfig
	monitor *Monitor
	logger  *zerolog.Logger
}

// NewSpike initializes a new spike service.
func NewSpike(ctx context.Context, cfg *SpikeConfig) (*Spike, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating spike config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "spike").Logger()

	_, loc, err := shared.NewYorkTime()
	if err != nil {
		return nil, fmt.Errorf("fetching new york time: %v", err)
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %v", cfg.Provider, err)
	}

	sourceLogger := logger.With().Str("component", "source").Logger()
	source, err := fetch.NewSource(&fetch.SourceConfig{
		Fetcher:      fetcher,
		Timeframe:    shared.FiveMinute,
		Lookback:     cfg.Lookback,
		Limit:        cfg.Limit,
		VolumeWindow: cfg.VolumeWindow,
		Now:          time.Now,
		Logger:       &sourceLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating candle source: %v", err)
	}

	notifierLogger := logger.With().Str("component", "notifier").Logger()
	notifier, err := notify.NewDiscord(&notify.DiscordConfig{
		WebhookURL: cfg.WebhookURL,
		Logger:     &notifierLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating discord notifier: %v", err)
	}

	var persistAlert func(ctx context.Context, alert *shared.Alert) error
	if cfg.DBEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating database: %v", err)
		}

		persistAlert = db.PersistAlert
	}

	spikes := store.NewKeySet()
	deaths := store.NewKeySet()

	engineLogger := logger.With().Str("component", "engine").Logger()
	patternEngine, err := engine.NewEngine(&engine.EngineConfig{
		FetchCandles:   source.Fetch,
		Notify:         notifier.Send,
		PersistAlert:   persistAlert,
		Spikes:         spikes,
		Deaths:         deaths,
		SpikeThreshold: cfg.SpikeThreshold,
		Now:            time.Now,
		Logger:         &engineLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating pattern engine: %v", err)
	}

	monitorLogger := logger.With().Str("component", "monitor").Logger()
	monitor, err := NewMonitor(&MonitorConfig{
		Markets:           cfg.Markets,
		Evaluate:          patternEngine.Evaluate,
		IsMarketOpen:      shared.IsMarketOpen,
		Now:               time.Now,
		Interval:          cfg.Interval,
		TickerDelay:       cfg.TickerDelay,
		RecoveryInterval:  cfg.RecoveryInterval,
		HeartbeatInterval: cfg.HeartbeatInterval,
		Spikes:            spikes,
		Deaths:            deaths,
		JobScheduler:      gocron.NewScheduler(loc),
		Logger:            &monitorLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating monitor: %v", err)
	}

	return &Spike{
		cfg:     cfg,
		monitor: monitor,
		logger:  &logger,
	}, nil
}

// Run handles the lifecycle processes of the spike service.
func (s *Spike) Run(ctx context.Context) {
	s.logger.Info().Msgf("monitoring %d markets via %s", len(s.cfg.Markets), s.cfg.Provider)
	s.monitor.Run(ctx)
}
