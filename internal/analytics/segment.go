// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/metrics"
	"github.com/tomtom215/attributus/internal/models"
)

var (
	// ErrInvalidSegment indicates a structurally invalid segment definition.
	ErrInvalidSegment = errors.New("invalid segment definition")

	// ErrSegmentNotFound indicates a lookup of an unregistered segment.
	ErrSegmentNotFound = errors.New("segment not found")
)

// SegmentThresholds tunes the behavioral segment generator. Fractions are
// relative to the observed activity span.
type SegmentThresholds struct {
	// PowerUserPct is the event-count percentile above which a user is a
	// power user. Default: 0.80.
	PowerUserPct float64

	// NewUserFrac is the trailing fraction of the span within which a
	// first-seen user is new. Default: 0.10.
	NewUserFrac float64

	// AtRiskFrac is the trailing fraction of the span a user must be silent
	// for to be at risk. Default: 1/3.
	AtRiskFrac float64

	// DormantFrac is the trailing fraction of the span a user must be
	// silent for to be dormant. Default: 0.5.
	DormantFrac float64
}

// DefaultSegmentThresholds returns production defaults.
func DefaultSegmentThresholds() SegmentThresholds {
	return SegmentThresholds{
		PowerUserPct: 0.80,
		NewUserFrac:  0.10,
		AtRiskFrac:   1.0 / 3.0,
		DormantFrac:  0.5,
	}
}

// SegmentEngine holds registered segment definitions and evaluates
// membership on demand. Membership is never materialized; the condition
// tree is the sole source of truth, so a segment always reflects the
// current event history.
type SegmentEngine struct {
	store      eventstore.Store
	thresholds SegmentThresholds

	mu       sync.RWMutex
	segments map[string]*models.Segment
}

// NewSegmentEngine creates an engine reading from the given store.
func NewSegmentEngine(store eventstore.Store, thresholds SegmentThresholds) *SegmentEngine {
	defaults := DefaultSegmentThresholds()
	if thresholds.PowerUserPct <= 0 || thresholds.PowerUserPct >= 1 {
		thresholds.PowerUserPct = defaults.PowerUserPct
	}
	if thresholds.NewUserFrac <= 0 || thresholds.NewUserFrac >= 1 {
		thresholds.NewUserFrac = defaults.NewUserFrac
	}
	if thresholds.AtRiskFrac <= 0 || thresholds.AtRiskFrac >= 1 {
		thresholds.AtRiskFrac = defaults.AtRiskFrac
	}
	if thresholds.DormantFrac <= 0 || thresholds.DormantFrac >= 1 {
		thresholds.DormantFrac = defaults.DormantFrac
	}

	return &SegmentEngine{
		store:      store,
		thresholds: thresholds,
		segments:   make(map[string]*models.Segment),
	}
}

// Register validates and stores a segment definition. An empty ID gets a
// generated one. Returns the stored segment.
func (e *SegmentEngine) Register(segment models.Segment) (*models.Segment, error) {
	if segment.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSegment)
	}
	if segment.Conditions == nil {
		return nil, fmt.Errorf("%w: conditions are required", ErrInvalidSegment)
	}
	if err := segment.Conditions.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSegment, err)
	}
	if segment.ID == "" {
		segment.ID = uuid.New().String()
	}

	e.mu.Lock()
	e.segments[segment.ID] = &segment
	e.mu.Unlock()
	return &segment, nil
}

// Get returns a registered segment by ID.
func (e *SegmentEngine) Get(id string) (*models.Segment, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	segment, ok := e.segments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSegmentNotFound, id)
	}
	return segment, nil
}

// List returns all registered segments sorted by name.
func (e *SegmentEngine) List() []*models.Segment {
	e.mu.RLock()
	out := make([]*models.Segment, 0, len(e.segments))
	for _, segment := range e.segments {
		out = append(out, segment)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Members evaluates segment membership and returns the matching user IDs
// sorted ascending.
//
// Registered segments match a user when any of their events satisfies the
// condition tree; generated behavioral segments evaluate against a
// per-user activity profile instead (event_count, first_seen, last_seen).
func (e *SegmentEngine) Members(ctx context.Context, segmentID string) ([]string, error) {
	segment, err := e.Get(segmentID)
	if err != nil {
		return nil, err
	}
	metrics.AnalyzerRuns.WithLabelValues("segment").Inc()

	events, err := e.store.Query(ctx, eventstore.Filter{Order: eventstore.OrderAsc})
	if err != nil {
		return nil, fmt.Errorf("query segment events: %w", err)
	}

	members := make(map[string]struct{})
	if segment.Generated {
		for userID, profile := range buildProfiles(events) {
			if evalCondition(segment.Conditions, profile) {
				members[userID] = struct{}{}
			}
		}
	} else {
		for i := range events {
			ev := &events[i]
			if ev.UserID == "" {
				continue
			}
			if _, done := members[ev.UserID]; done {
				continue
			}
			if evalCondition(segment.Conditions, eventData(ev)) {
				members[ev.UserID] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(members))
	for userID := range members {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out, nil
}

// Generate derives the four behavioral segments (power users, new users,
// at-risk, dormant) from the current event history, registers them, and
// returns them. Thresholds adapt to the observed activity: the power-user
// cutoff is a percentile of per-user event counts and the recency cutoffs
// are fractions of the span between the earliest and latest event. With no
// user-attributed events the result is empty.
func (e *SegmentEngine) Generate(ctx context.Context) ([]*models.Segment, error) {
	metrics.AnalyzerRuns.WithLabelValues("segment").Inc()

	events, err := e.store.Query(ctx, eventstore.Filter{Order: eventstore.OrderAsc})
	if err != nil {
		return nil, fmt.Errorf("query segment events: %w", err)
	}

	profiles := buildProfiles(events)
	if len(profiles) == 0 {
		return []*models.Segment{}, nil
	}

	var (
		counts           []float64
		earliest, latest time.Time
	)
	for _, profile := range profiles {
		counts = append(counts, profile["event_count"].Num)
		first, last := profile["first_seen"].Time, profile["last_seen"].Time
		if earliest.IsZero() || first.Before(earliest) {
			earliest = first
		}
		if last.After(latest) {
			latest = last
		}
	}

	span := latest.Sub(earliest)
	powerCutoff := percentile(counts, e.thresholds.PowerUserPct)
	newCutoff := latest.Add(-time.Duration(e.thresholds.NewUserFrac * float64(span)))
	atRiskCutoff := latest.Add(-time.Duration(e.thresholds.AtRiskFrac * float64(span)))
	dormantCutoff := latest.Add(-time.Duration(e.thresholds.DormantFrac * float64(span)))

	generated := []models.Segment{
		{
			Name:      "power_users",
			Generated: true,
			Description: fmt.Sprintf("event count above the %.0fth percentile (%.0f events)",
				e.thresholds.PowerUserPct*100, powerCutoff),
			Conditions: &models.Condition{
				Kind:     models.ConditionLeaf,
				Field:    "event_count",
				Operator: models.OpGreaterThan,
				Value:    models.NumberValue(powerCutoff),
			},
		},
		{
			Name:        "new_users",
			Generated:   true,
			Description: fmt.Sprintf("first seen within the trailing %.0f%% of the activity span", e.thresholds.NewUserFrac*100),
			Conditions: &models.Condition{
				Kind: models.ConditionNot,
				Children: []*models.Condition{{
					Kind:     models.ConditionLeaf,
					Field:    "first_seen",
					Operator: models.OpLessThan,
					Value:    models.TimeValue(newCutoff),
				}},
			},
		},
		{
			Name:        "at_risk",
			Generated:   true,
			Description: fmt.Sprintf("silent for the trailing %.0f%% of the activity span but not yet dormant", e.thresholds.AtRiskFrac*100),
			Conditions: &models.Condition{
				Kind: models.ConditionAnd,
				Children: []*models.Condition{
					{
						Kind:     models.ConditionLeaf,
						Field:    "last_seen",
						Operator: models.OpLessThan,
						Value:    models.TimeValue(atRiskCutoff),
					},
					{
						Kind: models.ConditionNot,
						Children: []*models.Condition{{
							Kind:     models.ConditionLeaf,
							Field:    "last_seen",
							Operator: models.OpLessThan,
							Value:    models.TimeValue(dormantCutoff),
						}},
					},
				},
			},
		},
		{
			Name:        "dormant",
			Generated:   true,
			Description: fmt.Sprintf("silent for the trailing %.0f%% of the activity span", e.thresholds.DormantFrac*100),
			Conditions: &models.Condition{
				Kind:     models.ConditionLeaf,
				Field:    "last_seen",
				Operator: models.OpLessThan,
				Value:    models.TimeValue(dormantCutoff),
			},
		},
	}

	out := make([]*models.Segment, 0, len(generated))
	for _, segment := range generated {
		stored, err := e.Register(segment)
		if err != nil {
			return nil, fmt.Errorf("register generated segment %s: %w", segment.Name, err)
		}
		out = append(out, stored)
	}
	return out, nil
}

// evalCondition interprets the condition tree against a data-point map.
// Comparisons on absent fields are false, so NOT over an absent field is
// true; leaves guard against this by comparing only when the field exists
// in the same kind domain as the condition value.
func evalCondition(c *models.Condition, data map[string]models.Value) bool {
	switch c.Kind {
	case models.ConditionLeaf:
		v, ok := data[c.Field]
		if !ok {
			return false
		}
		switch c.Operator {
		case models.OpEquals:
			return v.Equals(c.Value)
		case models.OpGreaterThan:
			return v.GreaterThan(c.Value)
		case models.OpLessThan:
			return v.LessThan(c.Value)
		case models.OpContains:
			return v.Contains(c.Value)
		default:
			return false
		}
	case models.ConditionAnd:
		for _, child := range c.Children {
			if !evalCondition(child, data) {
				return false
			}
		}
		return true
	case models.ConditionOr:
		for _, child := range c.Children {
			if evalCondition(child, data) {
				return true
			}
		}
		return false
	case models.ConditionNot:
		return !evalCondition(c.Children[0], data)
	default:
		return false
	}
}

// eventData exposes an event to the condition interpreter: its data points
// plus the synthetic name and category fields.
func eventData(ev *models.Event) map[string]models.Value {
	data := make(map[string]models.Value, len(ev.DataPoints)+2)
	for k, v := range ev.DataPoints {
		data[k] = v
	}
	data["name"] = models.StringValue(ev.Name)
	if ev.Category != "" {
		data["category"] = models.StringValue(ev.Category)
	}
	return data
}

// buildProfiles folds events into per-user activity profiles keyed by the
// fields the generated segments compare against.
func buildProfiles(events []models.Event) map[string]map[string]models.Value {
	type activity struct {
		count       float64
		first, last time.Time
	}
	byUser := make(map[string]*activity)
	for i := range events {
		ev := &events[i]
		if ev.UserID == "" {
			continue
		}
		a, ok := byUser[ev.UserID]
		if !ok {
			a = &activity{first: ev.Timestamp, last: ev.Timestamp}
			byUser[ev.UserID] = a
		}
		a.count++
		if ev.Timestamp.Before(a.first) {
			a.first = ev.Timestamp
		}
		if ev.Timestamp.After(a.last) {
			a.last = ev.Timestamp
		}
	}

	profiles := make(map[string]map[string]models.Value, len(byUser))
	for userID, a := range byUser {
		profiles[userID] = map[string]models.Value{
			"event_count": models.NumberValue(a.count),
			"first_seen":  models.TimeValue(a.first),
			"last_seen":   models.TimeValue(a.last),
		}
	}
	return profiles
}

// percentile returns the value at rank p (0..1) of the sorted input using
// the nearest-rank method.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	// Nearest-rank: the smallest value with at least p*n values at or
	// below it.
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
