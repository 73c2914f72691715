// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/attributus/internal/analytics"
	"github.com/tomtom215/attributus/internal/models"
)

// handleTrends computes a daily time series for ?metric over ?window_days,
// optionally restricted to ?event.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "count"
	}
	windowDays := getIntParam(r, "window_days", 30)

	result, err := s.trends.Analyze(r.Context(), metric, r.URL.Query().Get("event"), windowDays)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, result, started)
}

type scoreRequest struct {
	Actuals    map[string]float64 `json:"actuals" validate:"required"`
	Benchmarks []models.Benchmark `json:"benchmarks" validate:"required,min=1"`
}

// handleScore computes a weighted composite score from submitted actuals and
// benchmarks.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req scoreRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	score, err := analytics.Score(req.Actuals, req.Benchmarks)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, score, started)
}
