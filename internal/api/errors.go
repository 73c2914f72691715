// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/attributus/internal/analytics"
	"github.com/tomtom215/attributus/internal/definitions"
	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/sessions"
)

// API error codes.
const (
	codeValidation      = "VALIDATION_ERROR"
	codeInvalidArgument = "INVALID_ARGUMENT"
	codeNotFound        = "NOT_FOUND"
	codeStorage         = "STORAGE_ERROR"
	codeInternal        = "INTERNAL_ERROR"
)

// classifyError maps engine errors to an HTTP status and error code.
// Structural input errors are the caller's fault (400), missing things are
// 404, definition-store failures are 502, everything else 500.
func classifyError(err error) (status int, code string) {
	switch {
	case errors.Is(err, analytics.ErrMissingUserID):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, eventstore.ErrInvalidFilter),
		errors.Is(err, analytics.ErrInvalidFunnel),
		errors.Is(err, analytics.ErrInvalidSegment),
		errors.Is(err, analytics.ErrUnknownModel),
		errors.Is(err, analytics.ErrUnknownMetric),
		errors.Is(err, analytics.ErrInvalidBenchmark):
		return http.StatusBadRequest, codeInvalidArgument
	case errors.Is(err, definitions.ErrNotFound),
		errors.Is(err, analytics.ErrSegmentNotFound),
		errors.Is(err, sessions.ErrSessionNotFound),
		errors.Is(err, sessions.ErrRecordingNotFound):
		return http.StatusNotFound, codeNotFound
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
