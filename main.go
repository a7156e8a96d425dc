package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnldd/spike/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt, syscall.SIGTERM}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Error().Msgf("loading config: %v", err)
		return
	}

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	spikeCfg := service.SpikeConfig{
		Markets:           cfg.Markets,
		WebhookURL:        cfg.WebhookURL,
		Provider:          cfg.Provider,
		FMPAPIKey:         cfg.FMPAPIKey,
		PolygonAPIKey:     cfg.PolygonAPIKey,
		DBEndpoint:        cfg.DBEndpoint,
		DBUser:            cfg.DBUser,
		DBPass:            cfg.DBPass,
		Interval:          cfg.Interval,
		TickerDelay:       cfg.TickerDelay,
		RecoveryInterval:  cfg.RecoveryInterval,
		HeartbeatInterval: cfg.HeartbeatInterval,
		Lookback:          cfg.Lookback,
		Limit:             cfg.Limit,
		VolumeWindow:      cfg.VolumeWindow,
		SpikeThreshold:    cfg.SpikeThreshold,
	}
	spike, err := service.NewSpike(ctx, &spikeCfg)
	if err != nil {
		log.Error().Msgf("creating spike service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	spike.Run(ctx)
}
