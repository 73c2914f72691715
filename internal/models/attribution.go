// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// This file contains attribution models following industry practice from
// Google Analytics, Adjust, and similar attribution platforms.

package models

import (
	"fmt"
	"time"
)

// AttributionModel selects the rule for distributing conversion credit
// across a user's touchpoints.
type AttributionModel string

const (
	// ModelFirstTouch assigns full credit to the earliest touchpoint.
	ModelFirstTouch AttributionModel = "firstTouch"

	// ModelLastTouch assigns full credit to the latest touchpoint.
	ModelLastTouch AttributionModel = "lastTouch"

	// ModelLinear splits credit equally across all touchpoints.
	ModelLinear AttributionModel = "linear"

	// ModelTimeDecay weights touchpoints exponentially toward recency.
	ModelTimeDecay AttributionModel = "timeDecay"

	// ModelPositionBased assigns 40% to first, 40% to last, and splits the
	// remaining 20% among middle touchpoints. With fewer than three
	// touchpoints it degrades to linear, so two touchpoints yield 0.5 each.
	ModelPositionBased AttributionModel = "positionBased"
)

// ParseAttributionModel validates a model name. Unknown names return an
// error so callers can fail fast on bad input.
func ParseAttributionModel(s string) (AttributionModel, error) {
	switch AttributionModel(s) {
	case ModelFirstTouch, ModelLastTouch, ModelLinear, ModelTimeDecay, ModelPositionBased:
		return AttributionModel(s), nil
	default:
		return "", fmt.Errorf("unknown attribution model %q", s)
	}
}

// Touchpoint is a single credited interaction on a user's path to
// conversion. Weights across all touchpoints for one conversion sum to 1.0
// within floating-point tolerance.
type Touchpoint struct {
	// Channel is the marketing channel credited (e.g., "search", "email").
	Channel string `json:"channel"`

	// EventID is the originating event.
	EventID string `json:"event_id"`

	// EventName is the originating event's name.
	EventName string `json:"event_name"`

	// Timestamp is when the touch occurred.
	Timestamp time.Time `json:"timestamp"`

	// Weight is the fraction of conversion credit assigned to this touch.
	Weight float64 `json:"weight"`
}

// AttributionReport is the weighted touchpoint timeline for one user under
// a specific model.
type AttributionReport struct {
	UserID string `json:"user_id"`

	// Model is the attribution model that produced the weights.
	Model AttributionModel `json:"model"`

	// WindowDays is the look-back window applied before the conversion.
	WindowDays int `json:"window_days"`

	// Touchpoints are ordered by timestamp ascending.
	Touchpoints []Touchpoint `json:"touchpoints"`

	// ConversionValue is the value of the credited conversion event, zero
	// when the user has not yet converted.
	ConversionValue float64 `json:"conversion_value"`

	// Converted reports whether a conversion event anchored the window.
	Converted bool `json:"converted"`

	GeneratedAt time.Time `json:"generated_at"`
}

// ChannelPerformance aggregates attributed outcomes for one channel across
// all conversions in a time range.
type ChannelPerformance struct {
	Channel string `json:"channel"`

	// AttributedRevenue is the sum of weight x conversion value credited to
	// this channel.
	AttributedRevenue float64 `json:"attributed_revenue"`

	// UniqueUsers is the count of distinct users with credited touches.
	UniqueUsers int `json:"unique_users"`

	// Conversions is the count of conversions the channel participated in.
	Conversions int `json:"conversions"`
}
