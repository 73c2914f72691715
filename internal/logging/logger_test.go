// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"INFO", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTestLoggerCapturesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Str("segment", "power_users").Msg("segment generated")

	out := buf.String()
	if !strings.Contains(out, "segment generated") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "power_users") {
		t.Errorf("expected field in output, got %q", out)
	}
}

func TestSlogAdapterWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	slogger := slog.New(handler)

	slogger.Info("service started", slog.String("service", "http-server"), slog.Int("port", 3857))

	out := buf.String()
	if !strings.Contains(out, "service started") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "http-server") {
		t.Errorf("expected service attr in output, got %q", out)
	}
	if !strings.Contains(out, "3857") {
		t.Errorf("expected port attr in output, got %q", out)
	}
}

func TestSlogAdapterGroups(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(NewTestLogger(&buf))
	slogger := slog.New(handler).WithGroup("webhook")

	slogger.Warn("delivery failed", slog.String("url", "http://example.com/hook"))

	out := buf.String()
	if !strings.Contains(out, "webhook.url") {
		t.Errorf("expected grouped key webhook.url in output, got %q", out)
	}
}
