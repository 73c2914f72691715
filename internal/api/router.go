// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the full HTTP surface.
func (s *Server) NewRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(requestLogger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Ingestion runs under the permissive global limit; computation-heavy
	// analytics endpoints get a second, tighter limiter on top.
	analyticsLimit := func(next http.Handler) http.Handler { return next }
	if !s.opts.RateLimitDisabled {
		window := time.Duration(s.opts.RateLimitWindow) * time.Second
		r.Use(httprate.LimitByIP(s.opts.RateLimitReqs, window))

		analyticsReqs := s.opts.RateLimitReqs / 2
		if analyticsReqs < 1 {
			analyticsReqs = 1
		}
		analyticsLimit = httprate.LimitByIP(analyticsReqs, window)
	}

	// Unthrottled operational endpoints.
	r.Get("/api/v1/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(prometheusMetrics)

		r.Route("/events", func(r chi.Router) {
			r.Post("/", s.handleRecordEvent)
			r.Get("/", s.handleQueryEvents)
		})

		r.Route("/attribution", func(r chi.Router) {
			r.Put("/model", s.handleSetAttributionModel)
			r.With(analyticsLimit).Get("/report", s.handleAttributionReport)
			r.With(analyticsLimit).Get("/channels", s.handleChannelPerformance)
		})

		r.Route("/funnels", func(r chi.Router) {
			r.Post("/", s.handleCreateFunnel)
			r.Get("/", s.handleListFunnels)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetFunnel)
				r.Delete("/", s.handleDeleteFunnel)
				r.With(analyticsLimit).Get("/analysis", s.handleAnalyzeFunnel)
			})
		})

		r.Route("/cohorts", func(r chi.Router) {
			r.Post("/", s.handleCreateCohort)
			r.Get("/", s.handleListCohorts)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCohort)
				r.Delete("/", s.handleDeleteCohort)
				r.With(analyticsLimit).Get("/metrics", s.handleCohortMetrics)
			})
		})

		r.Route("/segments", func(r chi.Router) {
			r.Post("/", s.handleCreateSegment)
			r.Get("/", s.handleListSegments)
			r.With(analyticsLimit).Post("/generate", s.handleGenerateSegments)
			r.With(analyticsLimit).Get("/{id}/members", s.handleSegmentMembers)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(analyticsLimit)
			r.Get("/trends", s.handleTrends)
			r.Post("/score", s.handleScore)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Get("/{id}", s.handleGetSession)
			r.Post("/{id}/end", s.handleEndSession)
		})

		r.Route("/recording", func(r chi.Router) {
			r.Post("/start", s.handleStartRecording)
			r.Post("/stop", s.handleStopRecording)
			r.Get("/{sessionId}", s.handleGetRecording)
		})
	})

	return r
}
