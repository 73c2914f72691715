// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// Package eventstore provides the append-only behavioral event log that
// every analyzer reads from.
//
// Concurrency model: writes append under a write lock; queries take the
// slice header under a read lock and then operate on that immutable
// snapshot without holding any lock. Stored events are never mutated, so a
// snapshot taken at any point stays consistent while writers continue to
// append. No global lock is held during query evaluation.
package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/attributus/internal/logging"
	"github.com/tomtom215/attributus/internal/metrics"
	"github.com/tomtom215/attributus/internal/models"
)

// Store is the record-store contract the analyzers depend on. The engine
// does not own the store's durability strategy; MemoryStore is the
// reference implementation.
type Store interface {
	// Record appends an event, assigning a unique ID and stamping the
	// current time when the timestamp is zero. Identical payloads recorded
	// twice produce two distinct events (no deduplication).
	Record(ctx context.Context, e models.Event) (uuid.UUID, error)

	// Query returns events matching the filter, at most filter.Limit when
	// set. A malformed filter fails fast with ErrInvalidFilter.
	Query(ctx context.Context, f Filter) ([]models.Event, error)
}

// ConversionSink receives conversion events. Delivery is at-most-once and
// best-effort; sink failures never propagate to the ingestion path.
type ConversionSink interface {
	NotifyConversion(ctx context.Context, e models.Event) error
}

// Observer receives every recorded event. The session recorder implements
// this to capture per-session interaction streams while recording is on.
type Observer interface {
	ObserveEvent(e models.Event)
}

// MemoryStore is an in-memory append-only event log.
type MemoryStore struct {
	mu     sync.RWMutex
	events []models.Event

	// conversions is the set of event names treated as conversions.
	conversions map[string]struct{}

	sink     ConversionSink
	observer Observer
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithConversionSink attaches a sink notified on conversion events.
func WithConversionSink(sink ConversionSink) Option {
	return func(s *MemoryStore) { s.sink = sink }
}

// WithObserver attaches an observer receiving every recorded event.
func WithObserver(obs Observer) Option {
	return func(s *MemoryStore) { s.observer = obs }
}

// WithConversionEvents sets the event names treated as conversions.
func WithConversionEvents(names []string) Option {
	return func(s *MemoryStore) {
		s.conversions = make(map[string]struct{}, len(names))
		for _, n := range names {
			s.conversions[n] = struct{}{}
		}
	}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		conversions: map[string]struct{}{
			"conversion":       {},
			"purchase":         {},
			"signup_completed": {},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record implements Store.
func (s *MemoryStore) Record(ctx context.Context, e models.Event) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	e.ID = uuid.New()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()

	metrics.EventsIngested.WithLabelValues(e.Name).Inc()

	if s.observer != nil {
		s.observer.ObserveEvent(e)
	}

	if s.sink != nil {
		if _, ok := s.conversions[e.Name]; ok {
			// Failure-isolated: the sink runs on its own goroutine with its
			// own deadline and cannot affect the ingestion response.
			go s.notifyConversion(e)
		}
	}

	return e.ID, nil
}

func (s *MemoryStore) notifyConversion(e models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.sink.NotifyConversion(ctx, e); err != nil {
		logging.Warn().Err(err).
			Str("event_id", e.ID.String()).
			Str("event_name", e.Name).
			Msg("Conversion notification failed")
	}
}

// Query implements Store. The returned slice is freshly allocated; callers
// may retain or mutate it freely.
func (s *MemoryStore) Query(ctx context.Context, f Filter) ([]models.Event, error) {
	start := time.Now()
	defer metrics.ObserveQuery(start)

	if err := f.Validate(); err != nil {
		metrics.QueryErrors.Inc()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := s.snapshot()

	matched := make([]models.Event, 0, len(snapshot))
	for i := range snapshot {
		if f.matches(&snapshot[i]) {
			matched = append(matched, snapshot[i])
		}
	}

	if f.Order == OrderAsc {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		})
	} else {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		})
	}

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []models.Event{}, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	return matched, nil
}

// snapshot returns the current event slice header. The backing array is
// append-only, so the snapshot stays consistent without holding the lock.
func (s *MemoryStore) snapshot() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events[:len(s.events):len(s.events)]
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
