// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// Package config loads and validates the engine configuration from layered
// sources: built-in defaults, an optional YAML file, then environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/attributus/internal/notify"
)

// Config is the full engine configuration.
type Config struct {
	Server      ServerConfig         `koanf:"server" validate:"required"`
	Attribution AttributionConfig    `koanf:"attribution"`
	Cohort      CohortConfig         `koanf:"cohort"`
	Segments    SegmentsConfig       `koanf:"segments"`
	Recording   RecordingConfig      `koanf:"recording"`
	Database    DatabaseConfig       `koanf:"database"`
	Webhook     notify.WebhookConfig `koanf:"webhook"`
	Logging     LoggingConfig        `koanf:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host    string        `koanf:"host" validate:"required"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	DefaultPageSize int `koanf:"default_page_size" validate:"min=1"`
	MaxPageSize     int `koanf:"max_page_size" validate:"min=1"`
}

// AttributionConfig configures the attribution engine.
type AttributionConfig struct {
	DefaultModel      string   `koanf:"default_model" validate:"oneof=firstTouch lastTouch linear timeDecay positionBased"`
	WindowDays        int      `koanf:"window_days" validate:"min=1"`
	DecayHalfLifeDays float64  `koanf:"decay_half_life_days" validate:"gt=0"`
	ConversionEvents  []string `koanf:"conversion_events" validate:"min=1"`
	ValueKey          string   `koanf:"value_key" validate:"required"`
	ChannelKey        string   `koanf:"channel_key" validate:"required"`
}

// CohortConfig configures cohort metric computation.
type CohortConfig struct {
	HighValueWeights map[string]float64 `koanf:"high_value_weights"`
}

// SegmentsConfig tunes the behavioral segment generator.
type SegmentsConfig struct {
	PowerUserPct float64 `koanf:"power_user_pct" validate:"gt=0,lt=1"`
	NewUserFrac  float64 `koanf:"new_user_frac" validate:"gt=0,lt=1"`
	AtRiskFrac   float64 `koanf:"at_risk_frac" validate:"gt=0,lt=1"`
	DormantFrac  float64 `koanf:"dormant_frac" validate:"gt=0,lt=1"`
}

// RecordingConfig configures session recording.
type RecordingConfig struct {
	// BufferCap bounds the per-session event buffer; the oldest events are
	// evicted once full.
	BufferCap int `koanf:"buffer_cap" validate:"min=1"`

	// StartEnabled turns recording on at boot.
	StartEnabled bool `koanf:"start_enabled"`
}

// DatabaseConfig configures the definition store.
type DatabaseConfig struct {
	// Path is the BadgerDB directory. Empty runs in-memory (definitions do
	// not survive restarts).
	Path string `koanf:"path"`

	// GCInterval is how often value-log garbage collection runs.
	GCInterval time.Duration `koanf:"gc_interval" validate:"min=1m"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks structural and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Server.MaxPageSize < c.Server.DefaultPageSize {
		return fmt.Errorf("server.max_page_size (%d) must be >= server.default_page_size (%d)",
			c.Server.MaxPageSize, c.Server.DefaultPageSize)
	}
	return nil
}
