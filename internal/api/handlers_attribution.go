// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package api

import (
	"net/http"
	"time"
)

type setModelRequest struct {
	UserID string `json:"user_id" validate:"omitempty,max=100"`
	Model  string `json:"model" validate:"required,attribution_model"`
}

// handleSetAttributionModel sets the attribution model, globally or for a
// single user when user_id is present.
func (s *Server) handleSetAttributionModel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req setModelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if err := s.attribution.SetModel(req.UserID, req.Model); err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]string{
		"user_id": req.UserID,
		"model":   req.Model,
	}, started)
}

// handleAttributionReport computes credit weights over one user's journey.
func (s *Server) handleAttributionReport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "user_id is required", nil)
		return
	}

	report, err := s.attribution.Report(r.Context(), userID)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, report, started)
}

// handleChannelPerformance aggregates revenue and conversions per channel
// over [start_time, end_time]. Both bounds default to the last 30 days.
func (s *Server) handleChannelPerformance(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	endPtr, err := getTimeParam(r, "end_time")
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	startPtr, err := getTimeParam(r, "start_time")
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	end := time.Now()
	if endPtr != nil {
		end = *endPtr
	}
	start := end.AddDate(0, 0, -30)
	if startPtr != nil {
		start = *startPtr
	}
	if !start.Before(end) {
		respondError(w, http.StatusBadRequest, codeInvalidArgument,
			"start_time must precede end_time", nil)
		return
	}

	channels, err := s.attribution.ChannelPerformance(r.Context(), start, end)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"channels":   channels,
		"start_time": start,
		"end_time":   end,
	}, started)
}
