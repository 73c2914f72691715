// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/attributus/internal/models"
)

func TestNotifyConversionDelivers(t *testing.T) {
	var got WebhookPayload
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(WebhookConfig{
		URL:     server.URL,
		Enabled: true,
		Headers: map[string]string{"Authorization": "Bearer token"},
	})

	event := models.Event{ID: uuid.New(), Name: "purchase", UserID: "u1"}
	if err := notifier.NotifyConversion(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if got.EventType != "conversion" {
		t.Errorf("event_type = %s, want conversion", got.EventType)
	}
	if got.Source != "attributus" {
		t.Errorf("source = %s, want attributus", got.Source)
	}
	if got.Event == nil || got.Event.Name != "purchase" {
		t.Errorf("payload event = %+v, want the conversion event", got.Event)
	}
	if auth != "Bearer token" {
		t.Errorf("Authorization header = %q, want custom header forwarded", auth)
	}
}

func TestNotifyConversionDisabled(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(WebhookConfig{URL: server.URL, Enabled: false})
	if err := notifier.NotifyConversion(context.Background(), models.Event{Name: "purchase"}); err != nil {
		t.Fatalf("disabled notify must be a no-op, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("disabled notifier must not call the endpoint")
	}

	notifier.SetEnabled(true)
	if !notifier.Enabled() {
		t.Error("expected enabled after SetEnabled(true)")
	}
}

func TestNotifyConversionErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(WebhookConfig{URL: server.URL, Enabled: true, RatePerSecond: 1000})
	if err := notifier.NotifyConversion(context.Background(), models.Event{Name: "purchase"}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(WebhookConfig{
		URL:              server.URL,
		Enabled:          true,
		RatePerSecond:    1000,
		FailureThreshold: 3,
	})

	for i := 0; i < 6; i++ {
		_ = notifier.NotifyConversion(context.Background(), models.Event{Name: "purchase"})
	}

	// The breaker opens after 3 consecutive failures; later attempts fail
	// fast without reaching the endpoint.
	if n := calls.Load(); n != 3 {
		t.Errorf("endpoint called %d times, want 3 (breaker open)", n)
	}
}

func TestNotifierWithoutURL(t *testing.T) {
	notifier := NewWebhookNotifier(WebhookConfig{Enabled: true})
	if notifier.Enabled() {
		t.Error("notifier without URL must report disabled")
	}
	if err := notifier.NotifyConversion(context.Background(), models.Event{Name: "purchase"}); err != nil {
		t.Errorf("notify without URL must be a no-op, got %v", err)
	}
}
