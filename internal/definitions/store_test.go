// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package definitions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/attributus/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open("")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestFunnelRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	funnel := &models.Funnel{
		Name: "Signup",
		Steps: []models.FunnelStep{
			{Name: "Viewed", EventName: "page_view"},
			{Name: "Signed Up", EventName: "signup",
				DataPointFilters: map[string]models.Value{"plan": models.StringValue("pro")}},
		},
	}
	if err := store.SaveFunnel(ctx, funnel); err != nil {
		t.Fatalf("save: %v", err)
	}
	if funnel.ID == "" {
		t.Fatal("expected assigned funnel id")
	}
	if funnel.CreatedAt.IsZero() || funnel.UpdatedAt.IsZero() {
		t.Error("expected timestamps stamped on first save")
	}

	got, err := store.GetFunnel(ctx, funnel.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Signup" || len(got.Steps) != 2 {
		t.Errorf("got %+v, want saved funnel back", got)
	}
	if !got.Steps[1].DataPointFilters["plan"].Equals(models.StringValue("pro")) {
		t.Error("data point filter lost in round trip")
	}
}

func TestSaveFunnelPreservesCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	funnel := &models.Funnel{Name: "F", Steps: []models.FunnelStep{{EventName: "a"}, {EventName: "b"}}}
	if err := store.SaveFunnel(ctx, funnel); err != nil {
		t.Fatalf("save: %v", err)
	}
	created := funnel.CreatedAt

	time.Sleep(5 * time.Millisecond)
	funnel.Name = "F2"
	if err := store.SaveFunnel(ctx, funnel); err != nil {
		t.Fatalf("resave: %v", err)
	}

	got, err := store.GetFunnel(ctx, funnel.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Error("resave must not change CreatedAt")
	}
	if !got.UpdatedAt.After(created) {
		t.Error("resave must advance UpdatedAt")
	}
}

func TestGetMissingDefinition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetFunnel(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("funnel: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetCohort(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cohort: expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetSegment(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("segment: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDefinition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cohort := &models.Cohort{Name: "Week 12", InclusionEvent: "signup",
		WindowStart: time.Now().AddDate(0, 0, -7), WindowEnd: time.Now()}
	if err := store.SaveCohort(ctx, cohort); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.DeleteCohort(ctx, cohort.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetCohort(ctx, cohort.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteCohort(ctx, cohort.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestListSeparatesKinds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveFunnel(ctx, &models.Funnel{Name: "F",
		Steps: []models.FunnelStep{{EventName: "a"}, {EventName: "b"}}}); err != nil {
		t.Fatalf("save funnel: %v", err)
	}
	if err := store.SaveCohort(ctx, &models.Cohort{Name: "C", InclusionEvent: "signup"}); err != nil {
		t.Fatalf("save cohort: %v", err)
	}
	if err := store.SaveSegment(ctx, &models.Segment{Name: "S", Conditions: &models.Condition{
		Kind: models.ConditionLeaf, Field: "plan", Operator: models.OpEquals,
		Value: models.StringValue("pro")}}); err != nil {
		t.Fatalf("save segment: %v", err)
	}

	funnels, err := store.ListFunnels(ctx)
	if err != nil {
		t.Fatalf("list funnels: %v", err)
	}
	cohorts, err := store.ListCohorts(ctx)
	if err != nil {
		t.Fatalf("list cohorts: %v", err)
	}
	segments, err := store.ListSegments(ctx)
	if err != nil {
		t.Fatalf("list segments: %v", err)
	}

	if len(funnels) != 1 || len(cohorts) != 1 || len(segments) != 1 {
		t.Errorf("lists = %d/%d/%d, want 1/1/1 (prefixes must not leak)",
			len(funnels), len(cohorts), len(segments))
	}
}

func TestSegmentConditionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	segment := &models.Segment{
		Name: "big_spenders",
		Conditions: &models.Condition{
			Kind: models.ConditionAnd,
			Children: []*models.Condition{
				{Kind: models.ConditionLeaf, Field: "name", Operator: models.OpEquals,
					Value: models.StringValue("purchase")},
				{Kind: models.ConditionLeaf, Field: "value", Operator: models.OpGreaterThan,
					Value: models.NumberValue(50)},
			},
		},
	}
	if err := store.SaveSegment(ctx, segment); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetSegment(ctx, segment.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := got.Conditions.Validate(); err != nil {
		t.Errorf("round-tripped conditions invalid: %v", err)
	}
	if got.Conditions.Kind != models.ConditionAnd || len(got.Conditions.Children) != 2 {
		t.Errorf("condition tree mangled: %+v", got.Conditions)
	}
	if !got.Conditions.Children[1].Value.Equals(models.NumberValue(50)) {
		t.Error("leaf value lost in round trip")
	}
}
