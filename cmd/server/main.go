// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// Package main is the entry point for the Attributus server.
//
// Attributus is a self-hosted marketing attribution and product analytics
// engine. It ingests behavioral events, assigns conversion credit across
// marketing touchpoints, and answers funnel, cohort, segment, and trend
// queries over the event history.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load via Koanf v2 (defaults, config.yaml, env)
//  2. Definition store: BadgerDB for funnel/cohort/segment definitions
//  3. Event store: in-memory append-only event log
//  4. Session recorder: per-session event timeline buffers
//  5. Conversion webhook: rate-limited, circuit-broken delivery
//  6. Analytics engines: attribution, funnels, cohorts, segments, trends
//  7. HTTP server: REST API under /api/v1 plus Prometheus /metrics
//
// All long-running services run under a suture supervisor tree and restart
// automatically on failure.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (HTTP_PORT, BADGER_PATH, WEBHOOK_URL, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes the definition store
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/attributus/internal/analytics"
	"github.com/tomtom215/attributus/internal/api"
	"github.com/tomtom215/attributus/internal/config"
	"github.com/tomtom215/attributus/internal/definitions"
	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/logging"
	"github.com/tomtom215/attributus/internal/models"
	"github.com/tomtom215/attributus/internal/notify"
	"github.com/tomtom215/attributus/internal/sessions"
	"github.com/tomtom215/attributus/internal/supervisor"
	"github.com/tomtom215/attributus/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("listen", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Str("db_path", cfg.Database.Path).
		Str("attribution_model", cfg.Attribution.DefaultModel).
		Bool("webhook_enabled", cfg.Webhook.Enabled).
		Msg("Configuration loaded")

	// Definition store (BadgerDB). An empty path runs in-memory.
	db, err := definitions.Open(cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Database.Path).
			Msg("Failed to open definition store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close definition store")
		}
	}()
	defs := definitions.NewStore(db)

	// Session recorder observes every ingested event.
	recorder := sessions.NewRecorder(sessions.Config{BufferCap: cfg.Recording.BufferCap})
	if cfg.Recording.StartEnabled {
		recorder.StartRecording()
	}

	// Conversion webhook sits behind a rate limiter and circuit breaker so a
	// slow endpoint cannot back-pressure ingestion.
	webhook := notify.NewWebhookNotifier(cfg.Webhook)

	store := eventstore.NewMemoryStore(
		eventstore.WithObserver(recorder),
		eventstore.WithConversionSink(webhook),
		eventstore.WithConversionEvents(cfg.Attribution.ConversionEvents),
	)

	defaultModel, err := models.ParseAttributionModel(cfg.Attribution.DefaultModel)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid default attribution model")
	}

	attribution := analytics.NewAttributionEngine(store, analytics.AttributionConfig{
		DefaultModel:      defaultModel,
		WindowDays:        cfg.Attribution.WindowDays,
		DecayHalfLifeDays: cfg.Attribution.DecayHalfLifeDays,
		ConversionEvents:  cfg.Attribution.ConversionEvents,
		ValueKey:          cfg.Attribution.ValueKey,
		ChannelKey:        cfg.Attribution.ChannelKey,
	})

	cohortCfg := analytics.DefaultCohortConfig()
	cohortCfg.ConversionEvents = cfg.Attribution.ConversionEvents
	cohortCfg.ValueKey = cfg.Attribution.ValueKey
	if len(cfg.Cohort.HighValueWeights) > 0 {
		cohortCfg.HighValueWeights = cfg.Cohort.HighValueWeights
	}

	segments := analytics.NewSegmentEngine(store, analytics.SegmentThresholds{
		PowerUserPct: cfg.Segments.PowerUserPct,
		NewUserFrac:  cfg.Segments.NewUserFrac,
		AtRiskFrac:   cfg.Segments.AtRiskFrac,
		DormantFrac:  cfg.Segments.DormantFrac,
	})
	if err := hydrateSegments(defs, segments); err != nil {
		logging.Fatal().Err(err).Msg("Failed to load persisted segments")
	}

	srv := api.NewServer(api.Deps{
		Store:       store,
		Recorder:    recorder,
		Attribution: attribution,
		Funnels:     analytics.NewFunnelAnalyzer(store),
		Cohorts:     analytics.NewCohortAnalyzer(store, cohortCfg),
		Segments:    segments,
		Trends:      analytics.NewTrendAnalyzer(store),
		Definitions: defs,
	}, api.Options{
		DefaultPageSize:   cfg.Server.DefaultPageSize,
		MaxPageSize:       cfg.Server.MaxPageSize,
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitReqs:     cfg.Server.RateLimitReqs,
		RateLimitWindow:   int(cfg.Server.RateLimitWindow.Seconds()),
		RateLimitDisabled: cfg.Server.RateLimitDisabled,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.NewRouter(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewGCService(defs, cfg.Database.GCInterval))
	tree.AddAPIService(services.NewHTTPService(httpServer, supervisor.DefaultTreeConfig().ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", httpServer.Addr).Msg("Attributus listening")

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop in time")
		}
	}

	logging.Info().Msg("Shutdown complete")
}

// hydrateSegments reloads persisted segment definitions into the in-memory
// engine so registrations survive restarts.
func hydrateSegments(defs *definitions.Store, engine *analytics.SegmentEngine) error {
	persisted, err := defs.ListSegments(context.Background())
	if err != nil {
		return err
	}
	for _, segment := range persisted {
		if _, err := engine.Register(*segment); err != nil {
			return fmt.Errorf("segment %q: %w", segment.ID, err)
		}
	}
	return nil
}
