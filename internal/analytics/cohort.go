// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// This file contains cohort analytics following industry practice from
// Mixpanel, Amplitude, and similar product analytics platforms: membership
// resolved from the inclusion rule on demand, a fixed-offset retention
// curve, a weighted engagement score, and attributable revenue.

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/metrics"
	"github.com/tomtom215/attributus/internal/models"
)

// CohortConfig tunes cohort metric computation.
type CohortConfig struct {
	// HighValueWeights gives extra engagement weight to conversion-like
	// event names. Events not listed weigh 1.
	HighValueWeights map[string]float64

	// ConversionEvents are the event names contributing to revenue.
	ConversionEvents []string

	// ValueKey is the data point carrying conversion value. Default: "value".
	ValueKey string
}

// DefaultCohortConfig returns sensible defaults.
func DefaultCohortConfig() CohortConfig {
	return CohortConfig{
		HighValueWeights: map[string]float64{
			"purchase":         5,
			"signup_completed": 3,
			"conversion":       5,
		},
		ConversionEvents: []string{"conversion", "purchase", "signup_completed"},
		ValueKey:         "value",
	}
}

// CohortAnalyzer computes retention, engagement, and revenue metrics for a
// user cohort.
type CohortAnalyzer struct {
	store       eventstore.Store
	cfg         CohortConfig
	conversions map[string]struct{}
}

// NewCohortAnalyzer creates an analyzer reading from the given store.
func NewCohortAnalyzer(store eventstore.Store, cfg CohortConfig) *CohortAnalyzer {
	defaults := DefaultCohortConfig()
	if cfg.HighValueWeights == nil {
		cfg.HighValueWeights = defaults.HighValueWeights
	}
	if len(cfg.ConversionEvents) == 0 {
		cfg.ConversionEvents = defaults.ConversionEvents
	}
	if cfg.ValueKey == "" {
		cfg.ValueKey = defaults.ValueKey
	}

	conversions := make(map[string]struct{}, len(cfg.ConversionEvents))
	for _, name := range cfg.ConversionEvents {
		conversions[name] = struct{}{}
	}

	return &CohortAnalyzer{store: store, cfg: cfg, conversions: conversions}
}

// Metrics resolves cohort membership via the inclusion rule and computes
// the metric snapshot. A cohort resolving to zero members returns all-zero
// metrics, not an error.
func (a *CohortAnalyzer) Metrics(ctx context.Context, cohort *models.Cohort) (*models.CohortMetrics, error) {
	metrics.AnalyzerRuns.WithLabelValues("cohort").Inc()

	out := &models.CohortMetrics{
		CohortID:    cohort.ID,
		LastUpdated: time.Now(),
	}

	// Membership: first qualifying inclusion event per user inside the window.
	inclusionEvents, err := a.store.Query(ctx, eventstore.Filter{
		Names:     []string{cohort.InclusionEvent},
		StartTime: &cohort.WindowStart,
		EndTime:   &cohort.WindowEnd,
		Order:     eventstore.OrderAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve cohort membership: %w", err)
	}

	inclusionAt := make(map[string]time.Time)
	for i := range inclusionEvents {
		userID := inclusionEvents[i].UserID
		if userID == "" {
			continue
		}
		if _, seen := inclusionAt[userID]; !seen {
			inclusionAt[userID] = inclusionEvents[i].Timestamp
		}
	}

	out.Size = len(inclusionAt)
	if out.Size == 0 {
		return out, nil
	}

	// One pass over each member's timeline for retention, engagement, revenue.
	var (
		day1, day7, day30 int
		totalEngagement   float64
	)

	for userID, includedAt := range inclusionAt {
		userEvents, err := a.store.Query(ctx, eventstore.Filter{UserID: userID, Order: eventstore.OrderAsc})
		if err != nil {
			return nil, fmt.Errorf("query events for member %s: %w", userID, err)
		}

		var (
			active1, active7, active30 bool
			engagement                 float64
		)

		for i := range userEvents {
			ev := &userEvents[i]

			weight := 1.0
			if w, ok := a.cfg.HighValueWeights[ev.Name]; ok {
				weight = w
			}
			engagement += weight

			if _, ok := a.conversions[ev.Name]; ok {
				out.Revenue += ev.DataPoints[a.cfg.ValueKey].Number()
			}

			offset := ev.Timestamp.Sub(includedAt)
			switch {
			case offset >= 24*time.Hour && offset < 48*time.Hour:
				active1 = true
			case offset >= 7*24*time.Hour && offset < 8*24*time.Hour:
				active7 = true
			case offset >= 30*24*time.Hour && offset < 31*24*time.Hour:
				active30 = true
			}
		}

		if active1 {
			day1++
		}
		if active7 {
			day7++
		}
		if active30 {
			day30++
		}
		totalEngagement += engagement
	}

	size := float64(out.Size)
	out.Retention = models.RetentionCurve{
		Day1:  float64(day1) / size,
		Day7:  float64(day7) / size,
		Day30: float64(day30) / size,
	}
	out.Engagement = totalEngagement / size

	return out, nil
}
