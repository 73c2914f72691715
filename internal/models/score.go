// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package models

import "time"

// Benchmark sets the target and weight for one scored metric.
type Benchmark struct {
	// Metric names the metric this benchmark applies to.
	Metric string `json:"metric"`

	// Target is the goal value.
	Target float64 `json:"target"`

	// Weight is the metric's share of the composite score.
	Weight float64 `json:"weight"`

	// LowerIsBetter inverts the ratio for metrics like bounce or error
	// rate, where falling below target is the goal.
	LowerIsBetter bool `json:"lower_is_better,omitempty"`
}

// MetricContribution explains one metric's share of a performance score.
type MetricContribution struct {
	Metric       string  `json:"metric"`
	Actual       float64 `json:"actual"`
	Target       float64 `json:"target"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// PerformanceScore is a single 0-100 composite health number with a
// per-metric breakdown for explainability.
type PerformanceScore struct {
	Score       float64              `json:"score"`
	Breakdown   []MetricContribution `json:"breakdown"`
	GeneratedAt time.Time            `json:"generated_at"`
}
