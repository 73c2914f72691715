// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package analytics

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/models"
)

func leaf(field string, op models.ConditionOperator, value models.Value) *models.Condition {
	return &models.Condition{Kind: models.ConditionLeaf, Field: field, Operator: op, Value: value}
}

func TestRegisterSegmentValidation(t *testing.T) {
	engine := NewSegmentEngine(eventstore.NewMemoryStore(), SegmentThresholds{})

	tests := []struct {
		name    string
		segment models.Segment
	}{
		{"missing name", models.Segment{Conditions: leaf("value", models.OpEquals, models.NumberValue(1))}},
		{"nil conditions", models.Segment{Name: "s"}},
		{"bad operator", models.Segment{Name: "s", Conditions: leaf("value", "matches", models.NumberValue(1))}},
		{"leaf without field", models.Segment{Name: "s", Conditions: leaf("", models.OpEquals, models.NumberValue(1))}},
		{"not with two children", models.Segment{Name: "s", Conditions: &models.Condition{
			Kind: models.ConditionNot,
			Children: []*models.Condition{
				leaf("a", models.OpEquals, models.NumberValue(1)),
				leaf("b", models.OpEquals, models.NumberValue(2)),
			},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.Register(tt.segment); !errors.Is(err, ErrInvalidSegment) {
				t.Errorf("expected ErrInvalidSegment, got %v", err)
			}
		})
	}
}

func TestRegisterAssignsID(t *testing.T) {
	engine := NewSegmentEngine(eventstore.NewMemoryStore(), SegmentThresholds{})

	stored, err := engine.Register(models.Segment{
		Name:       "spenders",
		Conditions: leaf("value", models.OpGreaterThan, models.NumberValue(0)),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("expected a generated segment id")
	}
	if _, err := engine.Get(stored.ID); err != nil {
		t.Errorf("get registered segment: %v", err)
	}
}

func TestGetUnknownSegment(t *testing.T) {
	engine := NewSegmentEngine(eventstore.NewMemoryStore(), SegmentThresholds{})
	if _, err := engine.Get("missing"); !errors.Is(err, ErrSegmentNotFound) {
		t.Errorf("expected ErrSegmentNotFound, got %v", err)
	}
	if _, err := engine.Members(context.Background(), "missing"); !errors.Is(err, ErrSegmentNotFound) {
		t.Errorf("expected ErrSegmentNotFound from Members, got %v", err)
	}
}

func TestMembersMatchesAnyEvent(t *testing.T) {
	store := eventstore.NewMemoryStore()
	base := time.Now().Add(-time.Hour)

	record(t, store,
		models.Event{Name: "purchase", UserID: "big", Timestamp: base,
			DataPoints: map[string]models.Value{"value": models.NumberValue(100)}},
		models.Event{Name: "purchase", UserID: "small", Timestamp: base,
			DataPoints: map[string]models.Value{"value": models.NumberValue(10)}},
		// Matching event later in the history still qualifies the user.
		models.Event{Name: "page_view", UserID: "late", Timestamp: base},
		models.Event{Name: "purchase", UserID: "late", Timestamp: base.Add(time.Minute),
			DataPoints: map[string]models.Value{"value": models.NumberValue(80)}},
	)

	engine := NewSegmentEngine(store, SegmentThresholds{})
	segment, err := engine.Register(models.Segment{
		Name: "big_spenders",
		Conditions: &models.Condition{
			Kind: models.ConditionAnd,
			Children: []*models.Condition{
				leaf("name", models.OpEquals, models.StringValue("purchase")),
				leaf("value", models.OpGreaterThan, models.NumberValue(50)),
			},
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	members, err := engine.Members(context.Background(), segment.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if want := []string{"big", "late"}; !reflect.DeepEqual(members, want) {
		t.Errorf("members = %v, want %v", members, want)
	}
}

func TestMembersCompositeConditions(t *testing.T) {
	store := eventstore.NewMemoryStore()
	base := time.Now().Add(-time.Hour)

	record(t, store,
		models.Event{Name: "page_view", UserID: "u1", Timestamp: base,
			DataPoints: map[string]models.Value{"plan": models.StringValue("pro-annual")}},
		models.Event{Name: "page_view", UserID: "u2", Timestamp: base,
			DataPoints: map[string]models.Value{"plan": models.StringValue("free")}},
	)

	engine := NewSegmentEngine(store, SegmentThresholds{})

	t.Run("or", func(t *testing.T) {
		segment, err := engine.Register(models.Segment{
			Name: "paid_or_trial",
			Conditions: &models.Condition{
				Kind: models.ConditionOr,
				Children: []*models.Condition{
					leaf("plan", models.OpContains, models.StringValue("pro")),
					leaf("plan", models.OpEquals, models.StringValue("trial")),
				},
			},
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		members, err := engine.Members(context.Background(), segment.ID)
		if err != nil {
			t.Fatalf("members: %v", err)
		}
		if want := []string{"u1"}; !reflect.DeepEqual(members, want) {
			t.Errorf("members = %v, want %v", members, want)
		}
	})

	t.Run("not", func(t *testing.T) {
		segment, err := engine.Register(models.Segment{
			Name: "free_tier",
			Conditions: &models.Condition{
				Kind:     models.ConditionNot,
				Children: []*models.Condition{leaf("plan", models.OpContains, models.StringValue("pro"))},
			},
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		members, err := engine.Members(context.Background(), segment.ID)
		if err != nil {
			t.Fatalf("members: %v", err)
		}
		if want := []string{"u2"}; !reflect.DeepEqual(members, want) {
			t.Errorf("members = %v, want %v", members, want)
		}
	})
}

func TestGenerateBehaviorSegments(t *testing.T) {
	store := eventstore.NewMemoryStore()
	base := time.Now().AddDate(0, 0, -12)
	day := 24 * time.Hour

	// power: daily activity, ten events, active at the end of the span.
	for i := 1; i <= 10; i++ {
		record(t, store, models.Event{Name: "page_view", UserID: "power", Timestamp: base.Add(time.Duration(i) * day)})
	}
	// newbie: single event inside the trailing 10% of the span.
	record(t, store, models.Event{Name: "page_view", UserID: "newbie", Timestamp: base.Add(10*day - 12*time.Hour)})
	// dormant: silent for the second half of the span.
	record(t, store,
		models.Event{Name: "page_view", UserID: "dormant", Timestamp: base},
		models.Event{Name: "page_view", UserID: "dormant", Timestamp: base.Add(2 * day)},
	)
	// fading: silent for the last third but not the last half.
	record(t, store,
		models.Event{Name: "page_view", UserID: "fading", Timestamp: base.Add(2 * day)},
		models.Event{Name: "page_view", UserID: "fading", Timestamp: base.Add(6 * day)},
	)
	// steady: regular but unremarkable activity.
	record(t, store,
		models.Event{Name: "page_view", UserID: "steady", Timestamp: base.Add(3 * day)},
		models.Event{Name: "page_view", UserID: "steady", Timestamp: base.Add(7 * day)},
		models.Event{Name: "page_view", UserID: "steady", Timestamp: base.Add(10 * day)},
	)

	engine := NewSegmentEngine(store, SegmentThresholds{})
	generated, err := engine.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(generated) != 4 {
		t.Fatalf("expected 4 generated segments, got %d", len(generated))
	}

	wantMembers := map[string][]string{
		"power_users": {"power"},
		"new_users":   {"newbie"},
		"at_risk":     {"fading"},
		"dormant":     {"dormant"},
	}
	for _, segment := range generated {
		if !segment.Generated {
			t.Errorf("segment %s not marked generated", segment.Name)
		}
		if segment.Description == "" {
			t.Errorf("segment %s has no description", segment.Name)
		}

		members, err := engine.Members(context.Background(), segment.ID)
		if err != nil {
			t.Fatalf("members of %s: %v", segment.Name, err)
		}
		if want := wantMembers[segment.Name]; !reflect.DeepEqual(members, want) {
			t.Errorf("%s members = %v, want %v", segment.Name, members, want)
		}
	}
}

func TestGenerateWithoutUsers(t *testing.T) {
	store := eventstore.NewMemoryStore()
	record(t, store, models.Event{Name: "page_view", SessionID: "anon"})

	engine := NewSegmentEngine(store, SegmentThresholds{})
	generated, err := engine.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(generated) != 0 {
		t.Errorf("expected no segments without user-attributed events, got %d", len(generated))
	}
}

func TestPercentileNearestRank(t *testing.T) {
	values := make([]float64, 10)
	for i := range values {
		values[i] = float64(i + 1)
	}

	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"p80 of 1..10", values, 0.8, 8},
		{"p80 of five values picks rank 4", []float64{1, 2, 3, 4, 5}, 0.8, 4},
		{"p100 is the maximum", values, 1.0, 10},
		{"single value", []float64{7}, 0.8, 7},
		{"empty input", nil, 0.8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.values, tt.p); got != tt.want {
				t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestListSegmentsSorted(t *testing.T) {
	engine := NewSegmentEngine(eventstore.NewMemoryStore(), SegmentThresholds{})
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := engine.Register(models.Segment{
			Name:       name,
			Conditions: leaf("x", models.OpEquals, models.NumberValue(1)),
		}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	var names []string
	for _, segment := range engine.List() {
		names = append(names, segment.Name)
	}
	if want := []string{"alpha", "mid", "zeta"}; !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
}
