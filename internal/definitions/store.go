// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// Package definitions persists analysis definitions (funnels, cohorts,
// segments) in BadgerDB. Definitions survive restarts; derived results
// never do, they are recomputed from the event log on demand.
package definitions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/attributus/internal/models"
)

// ErrNotFound indicates a definition that does not exist.
var ErrNotFound = errors.New("definition not found")

// Key prefixes for BadgerDB storage
const (
	funnelKeyPrefix  = "funnel:"
	cohortKeyPrefix  = "cohort:"
	segmentKeyPrefix = "segment:"
)

// Store is a BadgerDB-backed definition store.
type Store struct {
	db *badger.DB
}

// NewStore wraps an open BadgerDB handle.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) a definition database at path. An empty path
// opens an in-memory database, used by tests and ephemeral deployments.
func Open(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	// Badger's own logger is noisy at INFO; the caller owns log output.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open definition database: %w", err)
	}
	return db, nil
}

// RunGC runs one value-log garbage collection cycle. Returns true when a
// log file was rewritten and another cycle may be worthwhile.
func (s *Store) RunGC() bool {
	err := s.db.RunValueLogGC(0.5)
	return err == nil
}

func (s *Store) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Store) get(key string, v any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get definition: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return err
}

func (s *Store) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
}

// list appends every value under prefix via the decode callback.
func (s *Store) list(prefix string, decode func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := it.Item().Value(decode); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveFunnel stores a funnel definition, assigning an ID and creation
// timestamp on first save.
func (s *Store) SaveFunnel(ctx context.Context, funnel *models.Funnel) error {
	if funnel.ID == "" {
		funnel.ID = uuid.New().String()
		funnel.CreatedAt = time.Now()
	}
	funnel.UpdatedAt = time.Now()
	return s.put(funnelKeyPrefix+funnel.ID, funnel)
}

// GetFunnel retrieves a funnel definition by ID.
func (s *Store) GetFunnel(ctx context.Context, id string) (*models.Funnel, error) {
	var funnel models.Funnel
	if err := s.get(funnelKeyPrefix+id, &funnel); err != nil {
		return nil, err
	}
	return &funnel, nil
}

// ListFunnels returns all stored funnel definitions.
func (s *Store) ListFunnels(ctx context.Context) ([]*models.Funnel, error) {
	var funnels []*models.Funnel
	err := s.list(funnelKeyPrefix, func(val []byte) error {
		var funnel models.Funnel
		if err := json.Unmarshal(val, &funnel); err != nil {
			return err
		}
		funnels = append(funnels, &funnel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list funnels: %w", err)
	}
	return funnels, nil
}

// DeleteFunnel removes a funnel definition.
func (s *Store) DeleteFunnel(ctx context.Context, id string) error {
	return s.delete(funnelKeyPrefix + id)
}

// SaveCohort stores a cohort definition, assigning an ID and creation
// timestamp on first save.
func (s *Store) SaveCohort(ctx context.Context, cohort *models.Cohort) error {
	if cohort.ID == "" {
		cohort.ID = uuid.New().String()
		cohort.CreatedAt = time.Now()
	}
	cohort.UpdatedAt = time.Now()
	return s.put(cohortKeyPrefix+cohort.ID, cohort)
}

// GetCohort retrieves a cohort definition by ID.
func (s *Store) GetCohort(ctx context.Context, id string) (*models.Cohort, error) {
	var cohort models.Cohort
	if err := s.get(cohortKeyPrefix+id, &cohort); err != nil {
		return nil, err
	}
	return &cohort, nil
}

// ListCohorts returns all stored cohort definitions.
func (s *Store) ListCohorts(ctx context.Context) ([]*models.Cohort, error) {
	var cohorts []*models.Cohort
	err := s.list(cohortKeyPrefix, func(val []byte) error {
		var cohort models.Cohort
		if err := json.Unmarshal(val, &cohort); err != nil {
			return err
		}
		cohorts = append(cohorts, &cohort)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}
	return cohorts, nil
}

// DeleteCohort removes a cohort definition.
func (s *Store) DeleteCohort(ctx context.Context, id string) error {
	return s.delete(cohortKeyPrefix + id)
}

// SaveSegment stores a segment definition, assigning an ID on first save.
func (s *Store) SaveSegment(ctx context.Context, segment *models.Segment) error {
	if segment.ID == "" {
		segment.ID = uuid.New().String()
	}
	return s.put(segmentKeyPrefix+segment.ID, segment)
}

// GetSegment retrieves a segment definition by ID.
func (s *Store) GetSegment(ctx context.Context, id string) (*models.Segment, error) {
	var segment models.Segment
	if err := s.get(segmentKeyPrefix+id, &segment); err != nil {
		return nil, err
	}
	return &segment, nil
}

// ListSegments returns all stored segment definitions.
func (s *Store) ListSegments(ctx context.Context) ([]*models.Segment, error) {
	var segments []*models.Segment
	err := s.list(segmentKeyPrefix, func(val []byte) error {
		var segment models.Segment
		if err := json.Unmarshal(val, &segment); err != nil {
			return err
		}
		segments = append(segments, &segment)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	return segments, nil
}

// DeleteSegment removes a segment definition.
func (s *Store) DeleteSegment(ctx context.Context, id string) error {
	return s.delete(segmentKeyPrefix + id)
}
