// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/metrics"
	"github.com/tomtom215/attributus/internal/models"
)

// ErrInvalidFunnel indicates a structurally invalid funnel definition.
var ErrInvalidFunnel = errors.New("invalid funnel definition")

// FunnelAnalyzer computes step-by-step conversion and dropoff over an
// ordered step definition.
type FunnelAnalyzer struct {
	store eventstore.Store
}

// NewFunnelAnalyzer creates an analyzer reading from the given store.
func NewFunnelAnalyzer(store eventstore.Store) *FunnelAnalyzer {
	return &FunnelAnalyzer{store: store}
}

// ValidateFunnel checks the structural invariants: at least two steps,
// every step with an event name.
func ValidateFunnel(f *models.Funnel) error {
	if len(f.Steps) < 2 {
		return fmt.Errorf("%w: requires at least 2 steps, got %d", ErrInvalidFunnel, len(f.Steps))
	}
	for i, step := range f.Steps {
		if step.EventName == "" {
			return fmt.Errorf("%w: step %d has no event name", ErrInvalidFunnel, i+1)
		}
	}
	return nil
}

// Analyze computes entrants, conversion rate, and dropoff rate per step.
//
// An entity (user, or session for anonymous traffic) counts for step k only
// after satisfying every prior step in order: its events are walked in
// timestamp order and the step pointer advances on each match, so reaching
// step 3 without step 2 does not count for step 2. A funnel observing zero
// entities yields all rates of 0, never NaN.
func (a *FunnelAnalyzer) Analyze(ctx context.Context, funnel *models.Funnel, start, end *time.Time) (*models.FunnelAnalysis, error) {
	if err := ValidateFunnel(funnel); err != nil {
		return nil, err
	}
	metrics.AnalyzerRuns.WithLabelValues("funnel").Inc()

	events, err := a.store.Query(ctx, eventstore.Filter{
		StartTime: start,
		EndTime:   end,
		Order:     eventstore.OrderAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("query funnel events: %w", err)
	}

	// Walk each entity's timeline once, advancing its step pointer in order.
	progress := make(map[string]int)
	for i := range events {
		entity := entityKey(&events[i])
		if entity == "" {
			continue
		}

		step := progress[entity]
		if step >= len(funnel.Steps) {
			continue
		}
		if funnel.Steps[step].Matches(&events[i]) {
			progress[entity] = step + 1
		}
	}

	total := len(progress)

	// entrants[k] = entities whose progress passed step k.
	entrants := make([]int, len(funnel.Steps))
	for _, reached := range progress {
		for k := 0; k < reached; k++ {
			entrants[k]++
		}
	}

	results := make([]models.FunnelStepResult, len(funnel.Steps))
	for k, step := range funnel.Steps {
		denom := total
		if k > 0 {
			denom = entrants[k-1]
		}

		var rate float64
		if denom > 0 {
			rate = float64(entrants[k]) / float64(denom)
		}

		var dropoff float64
		if denom > 0 {
			dropoff = 1 - rate
		}

		results[k] = models.FunnelStepResult{
			Name:           step.Name,
			Entrants:       entrants[k],
			ConversionRate: rate,
			DropoffRate:    dropoff,
		}
	}

	return &models.FunnelAnalysis{
		FunnelID:      funnel.ID,
		FunnelName:    funnel.Name,
		Steps:         results,
		TotalEntities: total,
		GeneratedAt:   time.Now(),
	}, nil
}

// entityKey identifies the funnel entity: the user when known, otherwise
// the session. Events with neither are skipped.
func entityKey(e *models.Event) string {
	if e.UserID != "" {
		return "u:" + e.UserID
	}
	if e.SessionID != "" {
		return "s:" + e.SessionID
	}
	return ""
}
