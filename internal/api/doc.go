// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// Package api exposes the analytics engine over HTTP.
//
// All endpoints return the models.APIResponse envelope. Error responses
// carry a machine-readable code:
//
//	VALIDATION_ERROR  malformed request payload or parameters (400)
//	INVALID_ARGUMENT  structurally valid input the engine rejects (400)
//	NOT_FOUND         unknown definition, session, or recording (404)
//	STORAGE_ERROR     the definition store failed (502)
//	INTERNAL_ERROR    anything else (500)
//
// Routing uses chi with CORS, per-client rate limiting, panic recovery,
// request IDs, and Prometheus instrumentation. The router is created by
// NewRouter and served by the supervisor's HTTP service.
package api
