// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// Package metrics provides Prometheus instrumentation for the analytics
// engine: ingestion throughput, query latency, analyzer runs, session
// recording pressure, and webhook delivery outcomes. Metrics are exposed
// via promhttp on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsIngested counts events appended to the store, labeled by event
	// name so conversion volume is visible next to raw traffic.
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attributus_events_ingested_total",
			Help: "Total number of events appended to the event store",
		},
		[]string{"name"},
	)

	// QueryDuration tracks event store query latency.
	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "attributus_store_query_duration_seconds",
			Help:    "Duration of event store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// QueryErrors counts rejected or failed queries.
	QueryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attributus_store_query_errors_total",
			Help: "Total number of event store query errors",
		},
	)

	// AnalyzerRuns counts analyzer executions by component
	// (attribution, funnel, cohort, segment, trend, score).
	AnalyzerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attributus_analyzer_runs_total",
			Help: "Total number of analyzer executions",
		},
		[]string{"analyzer"},
	)

	// ActiveSessions tracks currently open sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "attributus_active_sessions",
			Help: "Number of sessions started and not yet ended",
		},
	)

	// RecordingEvictions counts events dropped from full recording buffers.
	RecordingEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attributus_recording_evictions_total",
			Help: "Total number of events evicted from session recording buffers",
		},
	)

	// WebhookDeliveries counts conversion webhook attempts by outcome
	// (delivered, failed, suppressed).
	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attributus_webhook_deliveries_total",
			Help: "Total number of conversion webhook delivery attempts",
		},
		[]string{"outcome"},
	)

	// APIRequestsTotal counts HTTP requests by route and status class.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attributus_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "status"},
	)

	// APIRequestDuration tracks HTTP handler latency by route.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attributus_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// ObserveQuery records one store query and its duration.
func ObserveQuery(start time.Time) {
	QueryDuration.Observe(time.Since(start).Seconds())
}
