// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package api

import (
	"github.com/tomtom215/attributus/internal/analytics"
	"github.com/tomtom215/attributus/internal/definitions"
	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/sessions"
)

// Options tunes request handling.
type Options struct {
	// DefaultPageSize applies when a query omits limit. Default: 50.
	DefaultPageSize int

	// MaxPageSize caps any requested limit. Default: 500.
	MaxPageSize int

	// CORSOrigins is passed through to the CORS middleware.
	CORSOrigins []string

	// RateLimitReqs/RateLimitWindow configure per-client rate limiting;
	// RateLimitDisabled turns it off.
	RateLimitReqs     int
	RateLimitWindow   int // seconds
	RateLimitDisabled bool
}

// Server carries the engine components the handlers dispatch to.
type Server struct {
	store       eventstore.Store
	recorder    *sessions.Recorder
	attribution *analytics.AttributionEngine
	funnels     *analytics.FunnelAnalyzer
	cohorts     *analytics.CohortAnalyzer
	segments    *analytics.SegmentEngine
	trends      *analytics.TrendAnalyzer
	defs        *definitions.Store
	opts        Options
}

// Deps bundles the engine components for server construction.
type Deps struct {
	Store       eventstore.Store
	Recorder    *sessions.Recorder
	Attribution *analytics.AttributionEngine
	Funnels     *analytics.FunnelAnalyzer
	Cohorts     *analytics.CohortAnalyzer
	Segments    *analytics.SegmentEngine
	Trends      *analytics.TrendAnalyzer
	Definitions *definitions.Store
}

// NewServer creates a server over the given engine components.
func NewServer(deps Deps, opts Options) *Server {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 50
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 500
	}
	if opts.RateLimitReqs <= 0 {
		opts.RateLimitReqs = 100
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = 60
	}

	return &Server{
		store:       deps.Store,
		recorder:    deps.Recorder,
		attribution: deps.Attribution,
		funnels:     deps.Funnels,
		cohorts:     deps.Cohorts,
		segments:    deps.Segments,
		trends:      deps.Trends,
		defs:        deps.Definitions,
		opts:        opts,
	}
}
