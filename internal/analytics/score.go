// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/attributus/internal/metrics"
	"github.com/tomtom215/attributus/internal/models"
)

// ErrInvalidBenchmark indicates a benchmark with a non-positive target or
// negative weight.
var ErrInvalidBenchmark = errors.New("invalid benchmark")

// Score folds actual metric values against weighted benchmarks into a
// single 0-100 composite with a per-metric breakdown.
//
// Each metric contributes min(actual/target, 1) of its weight; a
// lower-is-better benchmark inverts the ratio so falling below target earns
// full credit. Exceeding a target never earns more than its weight, so one
// outlier cannot mask everything else. Metrics missing from actuals score
// zero but stay in the breakdown. A zero total weight yields a zero score,
// never NaN.
func Score(actuals map[string]float64, benchmarks []models.Benchmark) (*models.PerformanceScore, error) {
	metrics.AnalyzerRuns.WithLabelValues("score").Inc()

	var totalWeight, weighted float64
	breakdown := make([]models.MetricContribution, 0, len(benchmarks))

	for _, b := range benchmarks {
		if b.Target <= 0 {
			return nil, fmt.Errorf("%w: %s target must be positive, got %v", ErrInvalidBenchmark, b.Metric, b.Target)
		}
		if b.Weight < 0 {
			return nil, fmt.Errorf("%w: %s weight must not be negative, got %v", ErrInvalidBenchmark, b.Metric, b.Weight)
		}

		actual := actuals[b.Metric]
		var ratio float64
		if b.LowerIsBetter {
			switch {
			case actual <= b.Target:
				ratio = 1
			default:
				ratio = b.Target / actual
			}
		} else {
			ratio = actual / b.Target
			if ratio > 1 {
				ratio = 1
			}
			if ratio < 0 {
				ratio = 0
			}
		}

		contribution := ratio * b.Weight
		totalWeight += b.Weight
		weighted += contribution

		breakdown = append(breakdown, models.MetricContribution{
			Metric:       b.Metric,
			Actual:       actual,
			Target:       b.Target,
			Weight:       b.Weight,
			Contribution: contribution,
		})
	}

	var score float64
	if totalWeight > 0 {
		score = 100 * weighted / totalWeight
	}

	return &models.PerformanceScore{
		Score:       score,
		Breakdown:   breakdown,
		GeneratedAt: time.Now(),
	}, nil
}
