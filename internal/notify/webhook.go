// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// Package notify delivers conversion notifications to external endpoints.
// Delivery is best-effort and failure-isolated: a slow or broken endpoint
// never affects event ingestion.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/attributus/internal/logging"
	"github.com/tomtom215/attributus/internal/metrics"
	"github.com/tomtom215/attributus/internal/models"
)

// WebhookConfig configures the conversion webhook notifier.
type WebhookConfig struct {
	URL     string            `json:"url" koanf:"url"`
	Headers map[string]string `json:"headers,omitempty" koanf:"headers"`
	Enabled bool              `json:"enabled" koanf:"enabled"`

	// RatePerSecond caps outbound deliveries. Default: 2.
	RatePerSecond float64 `json:"rate_per_second" koanf:"rate_per_second"`

	// TimeoutSeconds bounds each delivery attempt. Default: 10.
	TimeoutSeconds int `json:"timeout_seconds" koanf:"timeout_seconds"`

	// FailureThreshold opens the circuit after this many consecutive
	// failures. Default: 5.
	FailureThreshold uint32 `json:"failure_threshold" koanf:"failure_threshold"`
}

// WebhookPayload is the JSON body sent on each conversion.
type WebhookPayload struct {
	Event     *models.Event `json:"event"`
	EventType string        `json:"event_type"` // conversion
	Timestamp time.Time     `json:"timestamp"`
	Source    string        `json:"source"` // attributus
}

// WebhookNotifier posts conversion events to a configured endpoint.
// A rate limiter smooths bursts and a circuit breaker stops hammering an
// endpoint that keeps failing.
type WebhookNotifier struct {
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]

	mu      sync.RWMutex
	url     string
	headers map[string]string
	enabled bool
}

// NewWebhookNotifier creates a notifier from config.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 2
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "conversion-webhook",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Webhook circuit breaker state changed")
		},
	})

	return &WebhookNotifier{
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		breaker: breaker,
		url:     cfg.URL,
		headers: headers,
		enabled: cfg.Enabled,
	}
}

// Enabled reports whether the notifier will attempt deliveries.
func (n *WebhookNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.url != ""
}

// SetEnabled toggles delivery.
func (n *WebhookNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetURL updates the endpoint.
func (n *WebhookNotifier) SetURL(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.url = url
}

// NotifyConversion implements eventstore.ConversionSink. A disabled
// notifier is a silent no-op; delivery failures are reported to the caller
// and counted, never retried here.
func (n *WebhookNotifier) NotifyConversion(ctx context.Context, e models.Event) error {
	n.mu.RLock()
	enabled, url := n.enabled, n.url
	headers := make(map[string]string, len(n.headers))
	for k, v := range n.headers {
		headers[k] = v
	}
	n.mu.RUnlock()

	if !enabled || url == "" {
		return nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit wait: %w", err)
	}

	_, err := n.breaker.Execute(func() (any, error) {
		return nil, n.deliver(ctx, url, headers, e)
	})
	if err != nil {
		metrics.WebhookDeliveries.WithLabelValues("failure").Inc()
		return err
	}

	metrics.WebhookDeliveries.WithLabelValues("success").Inc()
	logging.Debug().
		Str("event_id", e.ID.String()).
		Str("event_name", e.Name).
		Msg("Conversion webhook delivered")
	return nil
}

func (n *WebhookNotifier) deliver(ctx context.Context, url string, headers map[string]string, e models.Event) error {
	payload := WebhookPayload{
		Event:     &e,
		EventType: "conversion",
		Timestamp: time.Now(),
		Source:    "attributus",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
