// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingRunner struct {
	calls atomic.Int64

	// reclaimFirst makes the first call of each pair report reclaimed space,
	// exercising the run-until-clean loop.
	reclaimFirst bool
}

func (c *countingRunner) RunGC() bool {
	n := c.calls.Add(1)
	return c.reclaimFirst && n%2 == 1
}

func TestGCServiceRunsOnTick(t *testing.T) {
	runner := &countingRunner{}
	svc := NewGCService(runner, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want context.DeadlineExceeded", err)
	}
	if runner.calls.Load() == 0 {
		t.Error("expected at least one GC pass")
	}
}

func TestGCServiceRepeatsWhileReclaiming(t *testing.T) {
	runner := &countingRunner{reclaimFirst: true}
	svc := NewGCService(runner, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	// Each tick should produce an even number of calls: one reclaiming pass
	// followed by one clean pass.
	if calls := runner.calls.Load(); calls%2 != 0 {
		t.Errorf("calls = %d, want an even count", calls)
	}
}

func TestGCServiceDefaultInterval(t *testing.T) {
	svc := NewGCService(&countingRunner{}, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", svc.interval)
	}
}
