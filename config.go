package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	// defaultMarkets is the tracked market list used when none is configured.
	defaultMarkets = "FFIE,RVSN,TGL,KXIN,ASST,CELU,ENSC,ONMD,XCUR,RGC,TSLA,HOOD"
)

// Config is the configuration struct for the service.
type Config struct {
	// Markets represents the tracked markets.
	Markets []string
	// WebhookURL is the discord webhook alerts are delivered to.
	WebhookURL string
	// Provider is the market data provider.
	Provider string `default:"yahoo"`
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
	Interval time.Duration `default:"5m"`
	// TickerDelay is the wait between markets within a cycle.
	TickerDelay time.Duration `default:"500ms"`
	// RecoveryInterval is the wait before the next cycle after a failed cycle.
	RecoveryInterval time.Duration `default:"1m"`
	// HeartbeatInterval is the period of the status log job.
	HeartbeatInterval time.Duration `default:"1h"`
	// Lookback is the trailing window of fetched market data.
	Lookback time.Duration `default:"24h"`
	// Limit is the maximum number of candles evaluated per market.
	Limit int `default:"100"`
	// VolumeWindow is the number of preceding candles averaged for relative volume.
	VolumeWindow int `default:"20"`
	// SpikeThreshold is the minimum move percent of a spike candle.
	SpikeThreshold float64 `default:"10"`
	// Debug enables debug logging.
	Debug bool

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	validate := validator.New()

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided for spike service"))
	}

	switch {
	case cfg.WebhookURL == "":
		errs = errors.Join(errs, fmt.Errorf("webhook url cannot be an empty string"))
	case validate.Var(cfg.WebhookURL, "url") != nil:
		errs = errors.Join(errs, fmt.Errorf("invalid webhook url: %q", cfg.WebhookURL))
	}

	err := validate.Var(cfg.Provider, "oneof=yahoo fmp polygon")
	if err != nil {
		errs = errors.Join(errs, fmt.Errorf("unknown market data provider: %q", cfg.Provider))
	}

	switch cfg.Provider {
	case "fmp":
		if cfg.FMPAPIKey == "" {
			errs = errors.Join(errs, fmt.Errorf("fmp api key cannot be an empty string"))
		}
	case "polygon":
		if cfg.PolygonAPIKey == "" {
			errs = errors.Join(errs, fmt.Errorf("polygon api key cannot be an empty string"))
		}
	}

	if cfg.Interval <= 0 || cfg.RecoveryInterval <= 0 || cfg.Lookback <= 0 {
		errs = errors.Join(errs, fmt.Errorf("interval, recovery interval and lookback must be positive"))
	}
	if cfg.Limit < 2 {
		errs = errors.Join(errs, fmt.Errorf("limit must be at least 2, got %d", cfg.Limit))
	}
	if cfg.VolumeWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("volume window must be positive"))
	}
	if cfg.SpikeThreshold <= 0 {
		errs = errors.Join(errs, fmt.Errorf("spike threshold must be positive"))
	}

	return errs
}

// parseMarkets splits the provided comma separated market list, trimming and upper casing symbols.
func parseMarkets(s string) []string {
	parts := strings.Split(s, ",")
	markets := make([]string, 0, len(parts))
	for idx := range parts {
		market := strings.ToUpper(strings.TrimSpace(parts[idx]))
		if market == "" {
			continue
		}
		markets = append(markets, market)
	}

	return markets
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
// The provided environment variable, when set, overrides the field's current value as the default.
func (cfg *Config) registerFlag(name string, env string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	envValue, envSet := os.LookupEnv(env)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	usage = fmt.Sprintf("%s (env %s)", usage, env)

	switch v := value.(type) {
	case *string:
		def := *v
		if envSet {
			def = envValue
		}
		flag.StringVar(v, name, def, usage)
	case *bool:
		def := *v
		if envSet && envValue != "" {
			parsed, err := strconv.ParseBool(envValue)
			if err != nil {
				return fmt.Errorf("%s: parsing %s: %w", name, env, err)
			}
			def = parsed
		}
		flag.BoolVar(v, name, def, usage)
	case *int:
		def := *v
		if envSet && envValue != "" {
			parsed, err := strconv.Atoi(envValue)
			if err != nil {
				return fmt.Errorf("%s: parsing %s: %w", name, env, err)
			}
			def = parsed
		}
		flag.IntVar(v, name, def, usage)
	case *float64:
		def := *v
		if envSet && envValue != "" {
			parsed, err := strconv.ParseFloat(envValue, 64)
			if err != nil {
				return fmt.Errorf("%s: parsing %s: %w", name, env, err)
			}
			def = parsed
		}
		flag.Float64Var(v, name, def, usage)
	case *time.Duration:
		def := *v
		if envSet && envValue != "" {
			parsed, err := time.ParseDuration(envValue)
			if err != nil {
				return fmt.Errorf("%s: parsing %s: %w", name, env, err)
			}
			def = parsed
		}
		flag.DurationVar(v, name, def, usage)
	case *[]string:
		if envSet {
			*v = parseMarkets(envValue)
		}
		flag.Func(name, usage, func(s string) error {
			*v = parseMarkets(s)
			return nil
		})
	default:
		return fmt.Errorf("%s: unsupported type %s", name, val.Elem().Kind())
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	err = defaults.Set(cfg)
	if err != nil {
		return fmt.Errorf("setting config defaults: %w", err)
	}
	cfg.Markets = parseMarkets(defaultMarkets)

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name  string
		env   string
		value interface{}
		usage string
	}{
		{"markets", "STOCKS", &cfg.Markets, "the comma separated tracked markets"},
		{"webhook", "DISCORD_WEBHOOK_URL", &cfg.WebhookURL, "the discord webhook url"},
		{"provider", "PROVIDER", &cfg.Provider, "the market data provider (yahoo, fmp, polygon)"},
		{"fmpapikey", "FMP_API_KEY", &cfg.FMPAPIKey, "the FMP api key"},
		{"polygonapikey", "POLYGON_API_KEY", &cfg.PolygonAPIKey, "the polygon api key"},
		{"dbendpoint", "DB_ENDPOINT", &cfg.DBEndpoint, "the optional rqlite alert journal endpoint"},
		{"dbuser", "DB_USER", &cfg.DBUser, "the alert journal user"},
		{"dbpass", "DB_PASS", &cfg.DBPass, "the alert journal pass"},
		{"interval", "INTERVAL", &cfg.Interval, "the wait between cycles"},
		{"tickerdelay", "TICKER_DELAY", &cfg.TickerDelay, "the wait between markets within a cycle"},
		{"recoveryinterval", "RECOVERY_INTERVAL", &cfg.RecoveryInterval, "the wait after a failed cycle"},
		{"heartbeat", "HEARTBEAT_INTERVAL", &cfg.HeartbeatInterval, "the status log period, zero disables it"},
		{"lookback", "LOOKBACK", &cfg.Lookback, "the trailing window of fetched market data"},
		{"limit", "LIMIT", &cfg.Limit, "the maximum number of candles evaluated per market"},
		{"volumewindow", "VOLUME_WINDOW", &cfg.VolumeWindow, "the number of candles averaged for relative volume"},
		{"spikethreshold", "SPIKE_THRESHOLD", &cfg.SpikeThreshold, "the minimum move percent of a spike candle"},
		{"debug", "DEBUG", &cfg.Debug, "the debug logging flag"},
	}

	for idx := range flags {
		f := flags[idx]
		err = cfg.registerFlag(f.name, f.env, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
