// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package models

import "time"

// Session represents one browsing/interaction span. A session is created on
// a start call and mutated exactly once when it ends; ending an already-ended
// session is a no-op.
//
// Invariant: EndTime, when present, is >= StartTime.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id,omitempty"`
	VisitorID  string     `json:"visitor_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	DeviceType string     `json:"device_type,omitempty"`
}

// Ended reports whether the session has been closed.
func (s *Session) Ended() bool {
	return s.EndTime != nil
}

// Duration returns the session length, or elapsed time since start for
// sessions still open.
func (s *Session) Duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}
