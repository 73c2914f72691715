// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package api

import (
	"net/http"
	"time"
)

var processStart = time.Now()

// handleHealth reports liveness. It bypasses rate limiting so orchestrators
// can probe aggressively.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(processStart).Seconds()),
		"recording":      s.recorder.Recording(),
	}, started)
}
