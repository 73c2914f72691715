// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package services

import (
	"context"
	"time"

	"github.com/tomtom215/attributus/internal/logging"
)

// GCRunner triggers one storage garbage-collection pass. It reports whether
// anything was reclaimed, in which case another pass may be worthwhile.
type GCRunner interface {
	RunGC() bool
}

// GCService periodically runs Badger value-log garbage collection. Badger
// never reclaims value-log space on its own; without this loop the
// definition store grows unbounded.
type GCService struct {
	runner   GCRunner
	interval time.Duration
}

// NewGCService wraps a GC runner as a supervised service.
func NewGCService(runner GCRunner, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{runner: runner, interval: interval}
}

// Serve implements suture.Service. Each tick runs GC passes until a pass
// reclaims nothing.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			passes := 0
			for g.runner.RunGC() {
				passes++
			}
			if passes > 0 {
				logging.Debug().Int("passes", passes).Msg("Badger value log GC reclaimed space")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (g *GCService) String() string {
	return "badger-gc"
}
