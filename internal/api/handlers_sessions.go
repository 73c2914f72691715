// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/attributus/internal/sessions"
)

type startSessionRequest struct {
	UserID     string `json:"user_id" validate:"omitempty,max=100"`
	VisitorID  string `json:"visitor_id" validate:"omitempty,max=100"`
	DeviceType string `json:"device_type" validate:"omitempty,max=50"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	session := s.recorder.StartSession(sessions.StartOptions{
		UserID:     req.UserID,
		VisitorID:  req.VisitorID,
		DeviceType: req.DeviceType,
	})

	respondSuccess(w, http.StatusCreated, session, started)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	session, err := s.recorder.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, session, started)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := s.recorder.EndSession(chi.URLParam(r, "id")); err != nil {
		respondEngineError(w, err)
		return
	}

	session, err := s.recorder.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, session, started)
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	s.recorder.StartRecording()
	respondSuccess(w, http.StatusOK, map[string]bool{"recording": true}, started)
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	s.recorder.StopRecording()
	respondSuccess(w, http.StatusOK, map[string]bool{"recording": false}, started)
}

// handleGetRecording replays the buffered event timeline for one session.
func (s *Server) handleGetRecording(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	events, err := s.recorder.GetRecording(chi.URLParam(r, "sessionId"))
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"session_id": chi.URLParam(r, "sessionId"),
		"events":     events,
		"count":      len(events),
	}, started)
}
