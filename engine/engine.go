package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/spike/shared"
	"github.com/rs/zerolog"
)

const (
	// DefaultSpikeThreshold is the minimum open to close move percent of a spike candle.
	DefaultSpikeThreshold = float64(10)
)

// EngineConfig represents the pattern engine configuration.
type EngineConfig struct {
	// FetchCandles fetches the recent candles of the provided market in chronological order.
	FetchCandles func(ctx context.Context, market string) ([]shared.Candlestick, error)
	// Notify delivers the provided alert, best-effort.
	Notify func(ctx context.Context, alert shared.Alert)
	// PersistAlert archives the provided alert. Optional.
	PersistAlert func(ctx context.Context, alert *shared.Alert) error
	// Spikes tracks the spike candles already alerted on.
	Spikes shared.KeyStore
	// Deaths tracks the death candles already alerted on.
	Deaths shared.KeyStore
	// SpikeThreshold is the minimum move percent of a spike candle.
	SpikeThreshold float64
	// Now returns the current time.
	Now func() time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *EngineConfig) Validate() error {
	var errs error

	if cfg.FetchCandles == nil {
		errs = errors.Join(errs, fmt.Errorf("fetch candles function cannot be nil"))
	}
	if cfg.Notify == nil {
		errs = errors.Join(errs, fmt.Errorf("notify function cannot be nil"))
	}
	if cfg.Spikes == nil {
		errs = errors.Join(errs, fmt.Errorf("spike key store cannot be nil"))
	}
	if cfg.Deaths == nil {
		errs = errors.Join(errs, fmt.Errorf("death key store cannot be nil"))
	}
	if cfg.SpikeThreshold <= 0 {
		errs = errors.Join(errs, fmt.Errorf("spike threshold must be positive"))
	}
	if cfg.Now == nil {
		errs = errors.Join(errs, fmt.Errorf("now function cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Engine detects spike candles and the death candles that confirm them.
type Engine struct {
	cfg *EngineConfig
	loc *time.Location
}

// NewEngine initializes a new pattern engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating engine config: %w", err)
	}

	loc, err := time.LoadLocation(shared.NewYorkLocation)
	if err != nil {
		return nil, fmt.Errorf("loading new york timezone: %w", err)
	}

	return &Engine{
		cfg: cfg,
		loc: loc,
	}, nil
}

// formatRatio formats the provided volume ratio, undefined ratios are reported as zero.
func formatRatio(ratio float64) string {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 0
	}

	return fmt.Sprintf("%.2fx", ratio)
}

// RiskPercent returns the distance from the provided close to the stop as a percentage of the close.
func RiskPercent(stop float64, close float64) float64 {
	return ((stop - close) / close) * 100
}

// spikeAlert creates a spike alert for the provided spike candle.
func (e *Engine) spikeAlert(market string, spike *shared.Candlestick, now time.Time) shared.Alert {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** 📊\n", market)
	fmt.Fprintf(&b, "Spike: +%.2f%%\n", spike.MovePercent)
	fmt.Fprintf(&b, "Volume Ratio: %s\n", formatRatio(spike.VolumeRatio))
	fmt.Fprintf(&b, "Price: $%.2f\n", spike.Close)
	fmt.Fprintf(&b, "Time: %s\n", spike.Date.In(e.loc).Format(shared.ClockLayout))
	b.WriteString("⏳ Waiting for next candle to close...")

	title := fmt.Sprintf("🚨 SPIKE ALERT - %s", market)
	return shared.NewAlert(shared.SpikeAlert, market, title, b.String(), shared.SpikeColor, spike.Date, now)
}

// entryAlert creates an entry alert for the provided death candle confirming the spike candle.
func (e *Engine) entryAlert(market string, spike *shared.Candlestick, death *shared.Candlestick, now time.Time) shared.Alert {
	stop := spike.High
	risk := RiskPercent(stop, death.Close)

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** ✅ ENTRY SIGNAL\n", market)
	b.WriteString("Death Candle Formed (Red Close)\n")
	fmt.Fprintf(&b, "Entry: Short at $%.2f\n", death.Open)
	fmt.Fprintf(&b, "Stop: Above HOD $%.2f\n", stop)
	fmt.Fprintf(&b, "Risk: %.2f%%\n", risk)
	b.WriteString("Target: 80 EMA\n")
	b.WriteString("Win Rate: 86.9%\n")
	b.WriteString("Expected Profit: 6.27%\n")
	fmt.Fprintf(&b, "Time: %s", death.Date.In(e.loc).Format(shared.ClockLayout))

	title := fmt.Sprintf("✅ ENTRY SIGNAL - %s", market)
	return shared.NewAlert(shared.EntryAlert, market, title, b.String(), shared.EntryColor, death.Date, now)
}

// Inspect evaluates the last two of the provided candles and returns the alerts not yet sent.
// The death candle is only checked while the candle before it qualifies as a spike. Inspect
// does not mark the returned alerts as sent.
func (e *Engine) Inspect(market string, candles []shared.Candlestick) []shared.Alert {
	if len(candles) < 2 {
		return nil
	}

	prev := &candles[len(candles)-2]
	current := &candles[len(candles)-1]

	// A NaN move never clears the threshold.
	if !(prev.MovePercent >= e.cfg.SpikeThreshold) {
		return nil
	}

	now := e.cfg.Now()
	var alerts []shared.Alert

	if !e.cfg.Spikes.Seen(shared.NewDedupKey(market, prev.Date)) {
		alerts = append(alerts, e.spikeAlert(market, prev, now))
	}

	if current.IsBearish() && !e.cfg.Deaths.Seen(shared.NewDedupKey(market, current.Date)) {
		alerts = append(alerts, e.entryAlert(market, prev, current, now))
	}

	return alerts
}

// record marks the provided alert as sent.
func (e *Engine) record(alert *shared.Alert) {
	key := shared.NewDedupKey(alert.Market, alert.CandleTime)
	switch alert.Kind {
	case shared.SpikeAlert:
		e.cfg.Spikes.Mark(key, alert.CreatedOn)
	case shared.EntryAlert:
		e.cfg.Deaths.Mark(key, alert.CreatedOn)
	}
}

// Evaluate fetches the recent candles of the provided market, sends the alerts not yet sent for
// them and returns the sent alerts. Fetch failures are logged and yield no alerts.
func (e *Engine) Evaluate(ctx context.Context, market string) []shared.Alert {
	candles, err := e.cfg.FetchCandles(ctx, market)
	if err != nil {
		e.cfg.Logger.Error().Err(err).Str("market", market).Msg("fetching candles")
		return nil
	}

	if len(candles) < 2 {
		e.cfg.Logger.Debug().Str("market", market).Msgf("not enough candles to evaluate: %d", len(candles))
		return nil
	}

	alerts := e.Inspect(market, candles)
	if len(alerts) == 0 {
		return nil
	}

	if evt := e.cfg.Logger.Debug(); evt.Enabled() {
		evt.Msgf("pattern candles for %s: %s", market, spew.Sdump(candles[len(candles)-2:]))
	}

	for idx := range alerts {
		alert := &alerts[idx]

		// Alerts are recorded regardless of delivery, failed deliveries are not retried.
		e.cfg.Notify(ctx, *alert)
		e.record(alert)

		e.cfg.Logger.Info().Str("market", market).Str("kind", alert.Kind.String()).
			Time("candle", alert.CandleTime).Msg("alert issued")

		if e.cfg.PersistAlert != nil {
			err := e.cfg.PersistAlert(ctx, alert)
			if err != nil {
				e.cfg.Logger.Error().Err(err).Str("market", market).Msg("persisting alert")
			}
		}
	}

	return alerts
}
