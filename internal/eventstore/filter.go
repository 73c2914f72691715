// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package eventstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/attributus/internal/models"
)

// ErrInvalidFilter indicates a structurally malformed filter (negative
// limit, unknown order, unknown predicate operator). Callers must fix the
// filter; the error is not retryable.
var ErrInvalidFilter = errors.New("invalid event filter")

// SortOrder selects timestamp ordering for query results.
type SortOrder string

const (
	// OrderAsc sorts oldest first.
	OrderAsc SortOrder = "asc"
	// OrderDesc sorts newest first (the default).
	OrderDesc SortOrder = "desc"
)

// DataPointPredicate narrows a query to events whose named data point
// satisfies a comparison. The operator vocabulary matches segment
// conditions: equals, greaterThan, lessThan, contains.
type DataPointPredicate struct {
	Key      string                   `json:"key"`
	Operator models.ConditionOperator `json:"operator"`
	Value    models.Value             `json:"value"`
}

// Matches reports whether the event carries a data point satisfying the
// predicate. Events missing the key never match.
func (p DataPointPredicate) Matches(e *models.Event) bool {
	got, ok := e.DataPoints[p.Key]
	if !ok {
		return false
	}
	switch p.Operator {
	case models.OpEquals:
		return got.Equals(p.Value)
	case models.OpGreaterThan:
		return got.GreaterThan(p.Value)
	case models.OpLessThan:
		return got.LessThan(p.Value)
	case models.OpContains:
		return got.Contains(p.Value)
	default:
		return false
	}
}

// Filter is the query vocabulary of the event store. Zero values mean
// "no constraint". A result exactly equal to Limit signals that more rows
// may exist; no total count is guaranteed.
type Filter struct {
	// StartTime/EndTime bound event timestamps (inclusive start,
	// exclusive end).
	StartTime *time.Time
	EndTime   *time.Time

	// UserID/SessionID restrict to one identity.
	UserID    string
	SessionID string

	// Names is an event-name allow-list.
	Names []string

	// Categories is a category allow-list.
	Categories []string

	// Predicates are data-point comparisons; all must hold.
	Predicates []DataPointPredicate

	// Limit caps the result size; 0 means unlimited. Offset skips rows
	// after ordering. Both must be non-negative.
	Limit  int
	Offset int

	// Order is timestamp ordering, default OrderDesc.
	Order SortOrder
}

// Validate fails fast on malformed filters.
func (f *Filter) Validate() error {
	if f.Limit < 0 {
		return fmt.Errorf("%w: limit must be non-negative, got %d", ErrInvalidFilter, f.Limit)
	}
	if f.Offset < 0 {
		return fmt.Errorf("%w: offset must be non-negative, got %d", ErrInvalidFilter, f.Offset)
	}
	switch f.Order {
	case "", OrderAsc, OrderDesc:
	default:
		return fmt.Errorf("%w: unknown order %q", ErrInvalidFilter, f.Order)
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return fmt.Errorf("%w: end time before start time", ErrInvalidFilter)
	}
	for _, p := range f.Predicates {
		if p.Key == "" {
			return fmt.Errorf("%w: predicate requires a key", ErrInvalidFilter)
		}
		switch p.Operator {
		case models.OpEquals, models.OpGreaterThan, models.OpLessThan, models.OpContains:
		default:
			return fmt.Errorf("%w: unknown predicate operator %q", ErrInvalidFilter, p.Operator)
		}
	}
	return nil
}

// matches applies every constraint except pagination and ordering.
func (f *Filter) matches(e *models.Event) bool {
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && !e.Timestamp.Before(*f.EndTime) {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if len(f.Names) > 0 && !containsString(f.Names, e.Name) {
		return false
	}
	if len(f.Categories) > 0 && !containsString(f.Categories, e.Category) {
		return false
	}
	for _, p := range f.Predicates {
		if !p.Matches(e) {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
