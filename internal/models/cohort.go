// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// This file contains cohort analytics models following industry practice
// from Mixpanel, Amplitude, and similar product analytics platforms.

package models

import "time"

// Cohort defines a group of users sharing an inclusion event within a time
// window (e.g., "signed up in week 12"). The definition is the source of
// truth; derived metrics are recomputed on demand and only cached.
type Cohort struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// InclusionEvent is the event name that qualifies a user for the cohort.
	InclusionEvent string `json:"inclusion_event"`

	// WindowStart/WindowEnd bound when the inclusion event must occur.
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RetentionCurve is the three-point retention fraction at fixed day offsets
// from each member's inclusion event. Values are in [0, 1].
type RetentionCurve struct {
	Day1  float64 `json:"day1"`
	Day7  float64 `json:"day7"`
	Day30 float64 `json:"day30"`
}

// CohortMetrics is the computed snapshot for one cohort. A cohort resolving
// to zero members yields all-zero metrics, not an error.
type CohortMetrics struct {
	CohortID string `json:"cohort_id"`

	// Size is the count of qualifying users.
	Size int `json:"size"`

	// Retention is the fraction of members active at day 1/7/30 offsets.
	Retention RetentionCurve `json:"retention"`

	// Engagement is the cohort's mean per-user weighted event count, with
	// configurable extra weight for high-value event names.
	Engagement float64 `json:"engagement"`

	// Revenue is the sum of conversion values attributable to members.
	Revenue float64 `json:"revenue"`

	// LastUpdated is when this snapshot was computed. The snapshot is a
	// cache, never the source of truth.
	LastUpdated time.Time `json:"last_updated"`
}
