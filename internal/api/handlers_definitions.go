// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/attributus/internal/analytics"
	"github.com/tomtom215/attributus/internal/definitions"
	"github.com/tomtom215/attributus/internal/models"
)

// respondStoreError maps definition-store failures. Anything other than a
// missing key means Badger itself failed, which is the upstream's fault,
// not the caller's.
func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, definitions.ErrNotFound) {
		respondError(w, http.StatusNotFound, codeNotFound, err.Error(), nil)
		return
	}
	respondError(w, http.StatusBadGateway, codeStorage, "definition storage unavailable", err)
}

func (s *Server) handleCreateFunnel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var funnel models.Funnel
	if err := decodeJSON(r, &funnel); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), err)
		return
	}
	funnel.ID = ""
	if err := analytics.ValidateFunnel(&funnel); err != nil {
		respondEngineError(w, err)
		return
	}

	if err := s.defs.SaveFunnel(r.Context(), &funnel); err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, funnel, started)
}

func (s *Server) handleListFunnels(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	funnels, err := s.defs.ListFunnels(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"funnels": funnels,
		"count":   len(funnels),
	}, started)
}

func (s *Server) handleGetFunnel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	funnel, err := s.defs.GetFunnel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, funnel, started)
}

func (s *Server) handleDeleteFunnel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := s.defs.DeleteFunnel(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]string{"deleted": chi.URLParam(r, "id")}, started)
}

// handleAnalyzeFunnel runs a stored funnel over the event history, optionally
// bounded by start_time/end_time.
func (s *Server) handleAnalyzeFunnel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	funnel, err := s.defs.GetFunnel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	start, err := getTimeParam(r, "start_time")
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	end, err := getTimeParam(r, "end_time")
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	analysis, err := s.funnels.Analyze(r.Context(), funnel, start, end)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, analysis, started)
}

type createCohortRequest struct {
	Name           string    `json:"name" validate:"required,max=200"`
	InclusionEvent string    `json:"inclusion_event" validate:"required,max=200"`
	WindowStart    time.Time `json:"window_start" validate:"required"`
	WindowEnd      time.Time `json:"window_end" validate:"required"`
}

func (s *Server) handleCreateCohort(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req createCohortRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if !req.WindowStart.Before(req.WindowEnd) {
		respondError(w, http.StatusBadRequest, codeInvalidArgument,
			"window_start must precede window_end", nil)
		return
	}

	cohort := models.Cohort{
		Name:           req.Name,
		InclusionEvent: req.InclusionEvent,
		WindowStart:    req.WindowStart,
		WindowEnd:      req.WindowEnd,
	}
	if err := s.defs.SaveCohort(r.Context(), &cohort); err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, cohort, started)
}

func (s *Server) handleListCohorts(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	cohorts, err := s.defs.ListCohorts(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"cohorts": cohorts,
		"count":   len(cohorts),
	}, started)
}

func (s *Server) handleGetCohort(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	cohort, err := s.defs.GetCohort(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, cohort, started)
}

func (s *Server) handleDeleteCohort(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := s.defs.DeleteCohort(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]string{"deleted": chi.URLParam(r, "id")}, started)
}

func (s *Server) handleCohortMetrics(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	cohort, err := s.defs.GetCohort(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	metrics, err := s.cohorts.Metrics(r.Context(), cohort)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, metrics, started)
}

func (s *Server) handleCreateSegment(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var segment models.Segment
	if err := decodeJSON(r, &segment); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), err)
		return
	}
	segment.ID = ""
	segment.Generated = false

	registered, err := s.segments.Register(segment)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	if err := s.defs.SaveSegment(r.Context(), registered); err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, registered, started)
}

func (s *Server) handleListSegments(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	segments := s.segments.List()
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"segments": segments,
		"count":    len(segments),
	}, started)
}

// handleGenerateSegments runs the behavioral heuristics and persists the
// resulting segments alongside the registered ones.
func (s *Server) handleGenerateSegments(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	generated, err := s.segments.Generate(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	for _, segment := range generated {
		if err := s.defs.SaveSegment(r.Context(), segment); err != nil {
			respondStoreError(w, err)
			return
		}
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"segments": generated,
		"count":    len(generated),
	}, started)
}

func (s *Server) handleSegmentMembers(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	members, err := s.segments.Members(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	}, started)
}
