// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/attributus/internal/notify"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/attributus/config.yaml",
	"/etc/attributus/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults, applied before file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8484,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
		Attribution: AttributionConfig{
			DefaultModel:      "lastTouch",
			WindowDays:        30,
			DecayHalfLifeDays: 7,
			ConversionEvents:  []string{"conversion", "purchase", "signup_completed"},
			ValueKey:          "value",
			ChannelKey:        "channel",
		},
		Cohort: CohortConfig{
			HighValueWeights: map[string]float64{
				"purchase":         5,
				"signup_completed": 3,
				"conversion":       5,
			},
		},
		Segments: SegmentsConfig{
			PowerUserPct: 0.80,
			NewUserFrac:  0.10,
			AtRiskFrac:   1.0 / 3.0,
			DormantFrac:  0.5,
		},
		Recording: RecordingConfig{
			BufferCap:    10000,
			StartEnabled: false,
		},
		Database: DatabaseConfig{
			Path:       "/data/attributus",
			GCInterval: 10 * time.Minute,
		},
		Webhook: notify.WebhookConfig{
			Enabled:          false,
			RatePerSecond:    2,
			TimeoutSeconds:   10,
			FailureThreshold: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources with precedence
// ENV > file > defaults, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or empty.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// supplied through the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"attribution.conversion_events",
}

// processSliceFields converts comma-separated env strings to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables are dropped so stray environment noise cannot leak
// into the configuration.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		// Server
		"http_host":           "server.host",
		"http_port":           "server.port",
		"http_timeout":        "server.timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",
		"disable_rate_limit":  "server.rate_limit_disabled",
		"default_page_size":   "server.default_page_size",
		"max_page_size":       "server.max_page_size",

		// Attribution
		"attribution_default_model":     "attribution.default_model",
		"attribution_window_days":       "attribution.window_days",
		"attribution_decay_half_life":   "attribution.decay_half_life_days",
		"attribution_conversion_events": "attribution.conversion_events",
		"attribution_value_key":         "attribution.value_key",
		"attribution_channel_key":       "attribution.channel_key",

		// Segments
		"segments_power_user_pct": "segments.power_user_pct",
		"segments_new_user_frac":  "segments.new_user_frac",
		"segments_at_risk_frac":   "segments.at_risk_frac",
		"segments_dormant_frac":   "segments.dormant_frac",

		// Recording
		"recording_buffer_cap": "recording.buffer_cap",
		"recording_enabled":    "recording.start_enabled",

		// Database
		"badger_path":        "database.path",
		"badger_gc_interval": "database.gc_interval",

		// Webhook
		"webhook_url":               "webhook.url",
		"webhook_enabled":           "webhook.enabled",
		"webhook_rate_per_second":   "webhook.rate_per_second",
		"webhook_timeout_seconds":   "webhook.timeout_seconds",
		"webhook_failure_threshold": "webhook.failure_threshold",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
