package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dnldd/spike/shared"
	"github.com/rs/zerolog"
)

const (
	// maxErrorBodyLen is the maximum length of a webhook response body logged on failure.
	maxErrorBodyLen = 256
)

// DiscordConfig represents the discord webhook notifier configuration.
type DiscordConfig struct {
	// WebhookURL is the discord webhook endpoint.
	WebhookURL string
	// Timeout is the delivery timeout.
	Timeout time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Embed represents a discord message embed.
type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

// Payload represents a discord webhook message.
type Payload struct {
	Embeds []Embed `json:"embeds"`
}

// Discord delivers alerts to a discord webhook.
type Discord struct {
	cfg   *DiscordConfig
	httpc *http.Client
}

// Ensure the Discord notifier implements the Notifier interface.
var _ shared.Notifier = (*Discord)(nil)

// NewDiscord initializes a new discord notifier.
func NewDiscord(cfg *DiscordConfig) (*Discord, error) {
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("webhook url cannot be an empty string")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second * 10
	}

	return &Discord{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// NewPayload creates the webhook message for the provided alert, stamped with the provided time.
func NewPayload(alert *shared.Alert, now time.Time) Payload {
	return Payload{
		Embeds: []Embed{{
			Title:       alert.Title,
			Description: alert.Description,
			Color:       alert.Color,
			Timestamp:   now.UTC().Format(time.RFC3339),
		}},
	}
}

// post delivers the provided payload to the webhook.
func (d *Discord) post(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return fmt.Errorf("webhook rejected payload: %d (%s)", resp.StatusCode, string(msg))
	}

	return nil
}

// Send delivers the provided alert to the webhook. Failures are logged and the alert is
// dropped, deliveries are never retried.
func (d *Discord) Send(ctx context.Context, alert shared.Alert) {
	err := d.post(ctx, NewPayload(&alert, time.Now()))
	if err != nil {
		d.cfg.Logger.Error().Err(err).Str("market", alert.Market).Msgf("failed to send alert: %s", alert.Title)
		return
	}

	d.cfg.Logger.Info().Str("market", alert.Market).Msgf("alert sent: %s", alert.Title)
}
