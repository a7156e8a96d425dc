package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/spike/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// MonitorConfig represents the monitor loop configuration.
type MonitorConfig struct {
	// Markets represents the tracked markets.
	Markets []string
	// Evaluate evaluates the provided market for patterns, returning the alerts sent.
	Evaluate func(ctx context.Context, market string) []shared.Alert
	// IsMarketOpen checks whether the exchange is open at the provided time.
	IsMarketOpen func(now time.Time) (bool, error)
	// Now returns the current time.
	Now func() time.Time
	// Interval is the wait between cycles.
	Interval time.Duration
	// TickerDelay is the wait between markets within a cycle.
	TickerDelay time.Duration
	// RecoveryInterval is the wait before the next cycle after a failed cycle.
	RecoveryInterval time.Duration
	// HeartbeatInterval is the period of the status log job.
	HeartbeatInterval time.Duration
	// Spikes tracks the spike candles already alerted on.
	Spikes shared.KeyStore
	// Deaths tracks the death candles already alerted on.
	Deaths shared.KeyStore
	// JobScheduler represents the job scheduler.
	JobScheduler *gocron.Scheduler
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *MonitorConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for monitor"))
	}
	if cfg.Evaluate == nil {
		errs = errors.Join(errs, fmt.Errorf("evaluate function cannot be nil"))
	}
	if cfg.IsMarketOpen == nil {
		errs = errors.Join(errs, fmt.Errorf("market open function cannot be nil"))
	}
	if cfg.Now == nil {
		errs = errors.Join(errs, fmt.Errorf("now function cannot be nil"))
	}
	if cfg.Interval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("interval must be positive"))
	}
	if cfg.TickerDelay < 0 {
		errs = errors.Join(errs, fmt.Errorf("ticker delay cannot be negative"))
	}
	if cfg.RecoveryInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("recovery interval must be positive"))
	}
	if cfg.Spikes == nil || cfg.Deaths == nil {
		errs = errors.Join(errs, fmt.Errorf("key stores cannot be nil"))
	}
	if cfg.JobScheduler == nil {
		errs = errors.Join(errs, fmt.Errorf("job scheduler cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Monitor periodically evaluates the tracked markets for patterns while the exchange is open.
// Markets are evaluated sequentially.
type Monitor struct {
	cfg        *MonitorConfig
	cycles     atomic.Uint64
	failures   atomic.Uint64
	alertsSent atomic.Uint64
}

// NewMonitor initializes a new monitor.
func NewMonitor(cfg *MonitorConfig) (*Monitor, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating monitor config: %w", err)
	}

	m := &Monitor{cfg: cfg}

	if cfg.HeartbeatInterval > 0 {
		_, err = cfg.JobScheduler.Every(cfg.HeartbeatInterval).WaitForSchedule().SingletonMode().Do(m.heartbeat)
		if err != nil {
			return nil, fmt.Errorf("scheduling heartbeat job: %w", err)
		}
	}

	return m, nil
}

// heartbeat logs the monitor status.
func (m *Monitor) heartbeat() {
	m.cfg.Logger.Info().
		Uint64("cycles", m.cycles.Load()).
		Uint64("failures", m.failures.Load()).
		Uint64("alerts", m.alertsSent.Load()).
		Int("spikes", m.cfg.Spikes.Len()).
		Int("deaths", m.cfg.Deaths.Len()).
		Msg("monitor status")
}

// wait blocks for the provided duration, returning false if the context is cancelled first.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// evaluateMarket evaluates the provided market, containing panics to the market.
func (m *Monitor) evaluateMarket(ctx context.Context, market string) {
	defer func() {
		if r := recover(); r != nil {
			m.cfg.Logger.Error().Str("market", market).Msgf("evaluating market: %v", r)
		}
	}()

	alerts := m.cfg.Evaluate(ctx, market)
	m.alertsSent.Add(uint64(len(alerts)))
}

// runCycle evaluates all tracked markets if the exchange is open.
func (m *Monitor) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	m.cycles.Inc()

	now := m.cfg.Now()
	open, err := m.cfg.IsMarketOpen(now)
	if err != nil {
		return fmt.Errorf("checking market status: %w", err)
	}

	if !open {
		m.cfg.Logger.Info().Msg("market closed")
		return nil
	}

	m.cfg.Logger.Info().Msgf("market open - checking %d stocks at %s", len(m.cfg.Markets),
		now.Format(time.RFC1123))

	for idx := range m.cfg.Markets {
		m.evaluateMarket(ctx, m.cfg.Markets[idx])

		// Pace requests to the market data provider.
		if !wait(ctx, m.cfg.TickerDelay) {
			return nil
		}
	}

	return nil
}

// Run manages the lifecycle processes of the monitor. It only returns once the provided
// context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.cfg.JobScheduler.StartAsync()
	defer m.cfg.JobScheduler.Stop()

	m.cfg.Logger.Info().Msgf("starting monitor for stocks: %v", m.cfg.Markets)

	for {
		interval := m.cfg.Interval

		err := m.runCycle(ctx)
		if err != nil {
			m.failures.Inc()
			m.cfg.Logger.Error().Err(err).Msg("error in monitor cycle")
			interval = m.cfg.RecoveryInterval
		}

		if !wait(ctx, interval) {
			m.cfg.Logger.Info().Msg("monitor stopped")
			return
		}
	}
}
