package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func validConfig() Config {
	return Config{
		Markets:          []string{"TSLA", "HOOD"},
		WebhookURL:       "https://discord.com/api/webhooks/1/abc",
		Provider:         "yahoo",
		Interval:         time.Minute * 5,
		TickerDelay:      time.Millisecond * 500,
		RecoveryInterval: time.Minute,
		Lookback:         time.Hour * 24,
		Limit:            100,
		VolumeWindow:     20,
		SpikeThreshold:   10,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr []string
	}{
		{
			name:    "valid config",
			mutate:  func(cfg *Config) {},
			wantErr: nil,
		},
		{
			name: "missing webhook",
			mutate: func(cfg *Config) {
				cfg.WebhookURL = ""
			},
			wantErr: []string{"webhook url cannot be an empty string"},
		},
		{
			name: "malformed webhook",
			mutate: func(cfg *Config) {
				cfg.WebhookURL = "not a url"
			},
			wantErr: []string{"invalid webhook url"},
		},
		{
			name: "missing markets",
			mutate: func(cfg *Config) {
				cfg.Markets = nil
			},
			wantErr: []string{"no markets provided for spike service"},
		},
		{
			name: "unknown provider",
			mutate: func(cfg *Config) {
				cfg.Provider = "bloomberg"
			},
			wantErr: []string{"unknown market data provider"},
		},
		{
			name: "fmp without key",
			mutate: func(cfg *Config) {
				cfg.Provider = "fmp"
			},
			wantErr: []string{"fmp api key cannot be an empty string"},
		},
		{
			name: "fmp with key",
			mutate: func(cfg *Config) {
				cfg.Provider = "fmp"
				cfg.FMPAPIKey = "apikey"
			},
			wantErr: nil,
		},
		{
			name: "polygon without key",
			mutate: func(cfg *Config) {
				cfg.Provider = "polygon"
			},
			wantErr: []string{"polygon api key cannot be an empty string"},
		},
		{
			name: "invalid windows",
			mutate: func(cfg *Config) {
				cfg.Interval = 0
				cfg.Limit = 1
				cfg.VolumeWindow = 0
				cfg.SpikeThreshold = 0
			},
			wantErr: []string{
				"interval, recovery interval and lookback must be positive",
				"limit must be at least 2",
				"volume window must be positive",
				"spike threshold must be positive",
			},
		},
		{
			name: "missing webhook and markets",
			mutate: func(cfg *Config) {
				cfg.WebhookURL = ""
				cfg.Markets = []string{}
			},
			wantErr: []string{
				"webhook url cannot be an empty string",
				"no markets provided for spike service",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error(s) %v, got none", tt.wantErr)
					return
				}
				for _, want := range tt.wantErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			}
		})
	}
}

func TestParseMarkets(t *testing.T) {
	got := parseMarkets(" tsla, hood ,,RGC ")
	if diff := cmp.Diff([]string{"TSLA", "HOOD", "RGC"}, got); diff != "" {
		t.Errorf("unexpected markets (-want +got):\n%s", diff)
	}

	if len(parseMarkets("")) != 0 {
		t.Errorf("expected no markets for an empty list")
	}
}

func TestLoadConfig(t *testing.T) {
	// Save and restore original os.Args.
	origArgs := os.Args
	defer func() {
		os.Args = origArgs
	}()

	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		expectErr   bool
		expectInErr []string
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:        "missing webhook",
			env:         map[string]string{"DISCORD_WEBHOOK_URL": ""},
			args:        []string{"cmd"},
			expectErr:   true,
			expectInErr: []string{"webhook url cannot be an empty string"},
		},
		{
			name: "defaults with webhook from env",
			env: map[string]string{
				"DISCORD_WEBHOOK_URL": "https://discord.com/api/webhooks/1/abc",
			},
			args:      []string{"cmd"},
			expectErr: false,
			check: func(t *testing.T, cfg *Config) {
				if len(cfg.Markets) != 12 || cfg.Markets[0] != "FFIE" || cfg.Markets[11] != "HOOD" {
					t.Errorf("Markets: got %v, want the default list", cfg.Markets)
				}
				if cfg.Provider != "yahoo" {
					t.Errorf("Provider: got %v, want yahoo", cfg.Provider)
				}
				if cfg.Interval != time.Minute*5 || cfg.TickerDelay != time.Millisecond*500 ||
					cfg.RecoveryInterval != time.Minute || cfg.Lookback != time.Hour*24 {
					t.Errorf("unexpected default intervals: %+v", cfg)
				}
				if cfg.Limit != 100 || cfg.VolumeWindow != 20 || cfg.SpikeThreshold != 10 {
					t.Errorf("unexpected default windows: %+v", cfg)
				}
			},
		},
		{
			name: "all from env",
			env: map[string]string{
				"DISCORD_WEBHOOK_URL": "https://discord.com/api/webhooks/1/abc",
				"STOCKS":              "aapl, goog",
				"PROVIDER":            "polygon",
				"POLYGON_API_KEY":     "key",
				"INTERVAL":            "2m",
				"SPIKE_THRESHOLD":     "12.5",
			},
			args:      []string{"cmd"},
			expectErr: false,
			check: func(t *testing.T, cfg *Config) {
				if diff := cmp.Diff([]string{"AAPL", "GOOG"}, cfg.Markets); diff != "" {
					t.Errorf("Markets (-want +got):\n%s", diff)
				}
				if cfg.Provider != "polygon" || cfg.PolygonAPIKey != "key" {
					t.Errorf("unexpected provider config: %+v", cfg)
				}
				if cfg.Interval != time.Minute*2 || cfg.SpikeThreshold != 12.5 {
					t.Errorf("unexpected overrides: %+v", cfg)
				}
			},
		},
		{
			name: "flags override env",
			env: map[string]string{
				"DISCORD_WEBHOOK_URL": "https://discord.com/api/webhooks/1/abc",
				"STOCKS":              "AAPL",
			},
			args:      []string{"cmd", "-markets=tsla,hood", "-provider=fmp", "-fmpapikey=apikey", "-limit=50"},
			expectErr: false,
			check: func(t *testing.T, cfg *Config) {
				if diff := cmp.Diff([]string{"TSLA", "HOOD"}, cfg.Markets); diff != "" {
					t.Errorf("Markets (-want +got):\n%s", diff)
				}
				if cfg.Provider != "fmp" || cfg.FMPAPIKey != "apikey" || cfg.Limit != 50 {
					t.Errorf("unexpected flag overrides: %+v", cfg)
				}
			},
		},
		{
			name: "malformed env duration",
			env: map[string]string{
				"DISCORD_WEBHOOK_URL": "https://discord.com/api/webhooks/1/abc",
				"INTERVAL":            "soon",
			},
			args:        []string{"cmd"},
			expectErr:   true,
			expectInErr: []string{"interval: parsing INTERVAL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags for each test.
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			os.Args = tt.args

			var cfg Config
			// Point at a missing file so no .env is loaded.
			err := loadConfig(&cfg, filepath.Join(t.TempDir(), ".env"))

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				for _, want := range tt.expectInErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			tt.check(t, &cfg)
		})
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	origArgs := os.Args
	defer func() {
		os.Args = origArgs
	}()

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{"cmd"}

	// Ensure values can be loaded from a .env file.
	path := filepath.Join(t.TempDir(), ".env")
	err := os.WriteFile(path, []byte("DISCORD_WEBHOOK_URL=https://discord.com/api/webhooks/2/xyz\nSTOCKS=RGC\n"), 0o600)
	if err != nil {
		t.Fatalf("writing .env: %v", err)
	}
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	os.Unsetenv("DISCORD_WEBHOOK_URL")
	t.Setenv("STOCKS", "")
	os.Unsetenv("STOCKS")

	var cfg Config
	err = loadConfig(&cfg, path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.WebhookURL != "https://discord.com/api/webhooks/2/xyz" {
		t.Errorf("WebhookURL: got %v", cfg.WebhookURL)
	}
	if diff := cmp.Diff([]string{"RGC"}, cfg.Markets); diff != "" {
		t.Errorf("Markets (-want +got):\n%s", diff)
	}
}
