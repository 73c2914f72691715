// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/models"
)

func TestEmptyCohortYieldsZeros(t *testing.T) {
	analyzer := NewCohortAnalyzer(eventstore.NewMemoryStore(), CohortConfig{})

	windowStart := time.Now().AddDate(0, 0, -60)
	got, err := analyzer.Metrics(context.Background(), &models.Cohort{
		ID:             "c1",
		InclusionEvent: "signup",
		WindowStart:    windowStart,
		WindowEnd:      windowStart.AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	if got.Size != 0 {
		t.Errorf("size = %d, want 0", got.Size)
	}
	if got.Retention != (models.RetentionCurve{}) {
		t.Errorf("retention = %+v, want zeros", got.Retention)
	}
	if got.Engagement != 0 || got.Revenue != 0 {
		t.Errorf("engagement/revenue = %v/%v, want 0/0", got.Engagement, got.Revenue)
	}
}

func TestCohortRetentionEngagementRevenue(t *testing.T) {
	store := eventstore.NewMemoryStore()
	t0 := time.Now().AddDate(0, 0, -40)

	// u1: signs up, returns the next day with a purchase.
	// u2: signs up and never returns.
	record(t, store,
		models.Event{Name: "signup", UserID: "u1", Timestamp: t0},
		models.Event{Name: "purchase", UserID: "u1", Timestamp: t0.Add(25 * time.Hour),
			DataPoints: map[string]models.Value{"value": models.NumberValue(40)}},
		models.Event{Name: "signup", UserID: "u2", Timestamp: t0.Add(time.Hour)},
	)

	analyzer := NewCohortAnalyzer(store, CohortConfig{})
	got, err := analyzer.Metrics(context.Background(), &models.Cohort{
		ID:             "c1",
		InclusionEvent: "signup",
		WindowStart:    t0.Add(-time.Hour),
		WindowEnd:      t0.AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	if got.Size != 2 {
		t.Fatalf("size = %d, want 2", got.Size)
	}
	if got.Retention.Day1 != 0.5 {
		t.Errorf("day-1 retention = %v, want 0.5", got.Retention.Day1)
	}
	if got.Retention.Day7 != 0 || got.Retention.Day30 != 0 {
		t.Errorf("day-7/day-30 retention = %v/%v, want 0/0", got.Retention.Day7, got.Retention.Day30)
	}
	if got.Revenue != 40 {
		t.Errorf("revenue = %v, want 40", got.Revenue)
	}

	// u1 engagement: signup (1) + purchase (5) = 6; u2: signup (1) = 1.
	if want := 3.5; math.Abs(got.Engagement-want) > 1e-9 {
		t.Errorf("engagement = %v, want %v", got.Engagement, want)
	}
}

func TestCohortMembershipRespectsWindow(t *testing.T) {
	store := eventstore.NewMemoryStore()
	t0 := time.Now().AddDate(0, 0, -40)

	record(t, store,
		models.Event{Name: "signup", UserID: "inside", Timestamp: t0.Add(24 * time.Hour)},
		models.Event{Name: "signup", UserID: "before", Timestamp: t0.Add(-24 * time.Hour)},
		models.Event{Name: "signup", UserID: "after", Timestamp: t0.AddDate(0, 0, 10)},
		models.Event{Name: "page_view", UserID: "wrong-event", Timestamp: t0.Add(24 * time.Hour)},
	)

	analyzer := NewCohortAnalyzer(store, CohortConfig{})
	got, err := analyzer.Metrics(context.Background(), &models.Cohort{
		ID:             "c1",
		InclusionEvent: "signup",
		WindowStart:    t0,
		WindowEnd:      t0.AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if got.Size != 1 {
		t.Errorf("size = %d, want 1 (only the in-window signup qualifies)", got.Size)
	}
}

func TestCohortRetentionBoundaries(t *testing.T) {
	store := eventstore.NewMemoryStore()
	t0 := time.Now().AddDate(0, 0, -45)

	// Activity exactly at the 24h boundary counts for day 1; activity at
	// 48h does not.
	record(t, store,
		models.Event{Name: "signup", UserID: "u1", Timestamp: t0},
		models.Event{Name: "page_view", UserID: "u1", Timestamp: t0.Add(24 * time.Hour)},
		models.Event{Name: "signup", UserID: "u2", Timestamp: t0},
		models.Event{Name: "page_view", UserID: "u2", Timestamp: t0.Add(48 * time.Hour)},
		models.Event{Name: "signup", UserID: "u3", Timestamp: t0},
		models.Event{Name: "page_view", UserID: "u3", Timestamp: t0.Add(7 * 24 * time.Hour)},
	)

	analyzer := NewCohortAnalyzer(store, CohortConfig{})
	got, err := analyzer.Metrics(context.Background(), &models.Cohort{
		ID:             "c1",
		InclusionEvent: "signup",
		WindowStart:    t0.Add(-time.Hour),
		WindowEnd:      t0.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	if want := 1.0 / 3.0; math.Abs(got.Retention.Day1-want) > 1e-9 {
		t.Errorf("day-1 retention = %v, want %v", got.Retention.Day1, want)
	}
	if want := 1.0 / 3.0; math.Abs(got.Retention.Day7-want) > 1e-9 {
		t.Errorf("day-7 retention = %v, want %v", got.Retention.Day7, want)
	}
}
