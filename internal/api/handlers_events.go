// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/models"
)

type recordEventRequest struct {
	Name       string                  `json:"name" validate:"required,max=200"`
	Category   string                  `json:"category" validate:"omitempty,max=100"`
	Timestamp  *time.Time              `json:"timestamp"`
	UserID     string                  `json:"user_id" validate:"omitempty,max=100"`
	SessionID  string                  `json:"session_id" validate:"omitempty,max=100"`
	Properties map[string]string       `json:"properties"`
	DataPoints map[string]models.Value `json:"data_points"`
}

// handleRecordEvent ingests one event. The request context (IP, user
// agent, referrer) is captured at the boundary, never trusted from the
// payload.
func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req recordEventRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	event := models.Event{
		Name:       req.Name,
		Category:   req.Category,
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		Properties: req.Properties,
		DataPoints: req.DataPoints,
		Context: models.EventContext{
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
			Referrer:  r.Referer(),
		},
	}
	if req.Timestamp != nil {
		event.Timestamp = *req.Timestamp
	}

	id, err := s.store.Record(r.Context(), event)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, map[string]string{"id": id.String()}, started)
}

// handleQueryEvents answers filtered event queries. Data-point predicates
// use where=key:operator:value, e.g. where=value:greaterThan:50.
func (s *Server) handleQueryEvents(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	filter := eventstore.Filter{
		UserID:     r.URL.Query().Get("user_id"),
		SessionID:  r.URL.Query().Get("session_id"),
		Names:      parseCommaSeparated(r.URL.Query().Get("names")),
		Categories: parseCommaSeparated(r.URL.Query().Get("categories")),
		Offset:     getIntParam(r, "offset", 0),
		Order:      eventstore.SortOrder(r.URL.Query().Get("order")),
	}

	limit := getIntParam(r, "limit", s.opts.DefaultPageSize)
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}
	filter.Limit = limit

	var err error
	if filter.StartTime, err = getTimeParam(r, "start_time"); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if filter.EndTime, err = getTimeParam(r, "end_time"); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	for _, raw := range r.URL.Query()["where"] {
		predicate, perr := parsePredicate(raw)
		if perr != nil {
			respondError(w, http.StatusBadRequest, codeValidation, perr.Error(), nil)
			return
		}
		filter.Predicates = append(filter.Predicates, predicate)
	}

	events, err := s.store.Query(r.Context(), filter)
	if err != nil {
		respondEngineError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	}, started)
}

// parsePredicate parses key:operator:value. The value is typed by shape:
// numbers become numbers, true/false booleans, RFC3339 strings timestamps,
// anything else a string.
func parsePredicate(raw string) (eventstore.DataPointPredicate, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] == "" {
		return eventstore.DataPointPredicate{},
			&predicateError{raw: raw, reason: "want key:operator:value"}
	}
	return eventstore.DataPointPredicate{
		Key:      parts[0],
		Operator: models.ConditionOperator(parts[1]),
		Value:    coerceValue(parts[2]),
	}, nil
}

type predicateError struct {
	raw    string
	reason string
}

func (e *predicateError) Error() string {
	return "malformed where parameter " + e.raw + ": " + e.reason
}

// coerceValue types a raw query-string value the same way JSON ingestion
// would.
func coerceValue(raw string) models.Value {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return models.TimeValue(ts)
	}
	if raw == "true" || raw == "false" {
		return models.BoolValue(raw == "true")
	}
	if num, err := strconv.ParseFloat(raw, 64); err == nil {
		return models.NumberValue(num)
	}
	return models.StringValue(raw)
}
