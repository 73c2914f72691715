// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package models

import "time"

// TrendDirection classifies the movement of a metric over a window.
type TrendDirection string

const (
	// TrendImproving means the recent half of the window is at least 5%
	// above the prior half.
	TrendImproving TrendDirection = "improving"
	// TrendDeclining means the recent half is at least 5% below the prior half.
	TrendDeclining TrendDirection = "declining"
	// TrendStable means the change is within the +-5% band.
	TrendStable TrendDirection = "stable"
)

// TrendPoint is one bucketed metric value.
type TrendPoint struct {
	// Date is the start of the daily bucket (UTC midnight).
	Date time.Time `json:"date"`

	// Value is the metric for this bucket (event count or named aggregate).
	Value float64 `json:"value"`
}

// TrendResult is a bucketed time series with a direction classification.
type TrendResult struct {
	Metric     string         `json:"metric"`
	WindowDays int            `json:"window_days"`
	Points     []TrendPoint   `json:"points"`
	Direction  TrendDirection `json:"direction"`

	// PercentChange is (recentMean - priorMean) / priorMean. A prior mean
	// of zero with positive recent activity reports +1.0 by convention.
	PercentChange float64 `json:"percent_change"`

	GeneratedAt time.Time `json:"generated_at"`
}
