// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/metrics"
	"github.com/tomtom215/attributus/internal/models"
)

// ErrUnknownMetric indicates a trend metric the analyzer cannot compute.
var ErrUnknownMetric = errors.New("unknown trend metric")

// stableBand is the relative change within which a trend is classified as
// stable rather than improving or declining.
const stableBand = 0.05

// TrendAnalyzer buckets a metric into daily points and classifies its
// direction by comparing the recent half of the window to the prior half.
type TrendAnalyzer struct {
	store eventstore.Store
}

// NewTrendAnalyzer creates an analyzer reading from the given store.
func NewTrendAnalyzer(store eventstore.Store) *TrendAnalyzer {
	return &TrendAnalyzer{store: store}
}

// Analyze buckets the metric into windowDays daily UTC points ending at the
// latest event's date (or today for an empty store) and classifies the
// direction. Supported metrics:
//
//	count          events per day
//	sum:<key>      daily sum of a numeric data point
//	avg:<key>      daily mean of a numeric data point
//
// An optional eventName restricts the series to one event. A window with no
// activity at all is stable with zero change, never NaN.
func (a *TrendAnalyzer) Analyze(ctx context.Context, metric, eventName string, windowDays int) (*models.TrendResult, error) {
	agg, key, err := parseMetric(metric)
	if err != nil {
		return nil, err
	}
	if windowDays < 2 {
		windowDays = 2
	}
	metrics.AnalyzerRuns.WithLabelValues("trend").Inc()

	filter := eventstore.Filter{Order: eventstore.OrderAsc}
	if eventName != "" {
		filter.Names = []string{eventName}
	}
	events, err := a.store.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query trend events: %w", err)
	}

	// Anchor the window at the latest observed activity so historical data
	// replays produce the same series as live ingestion did.
	anchor := time.Now().UTC()
	if len(events) > 0 {
		anchor = events[len(events)-1].Timestamp.UTC()
	}
	anchorDay := anchor.Truncate(24 * time.Hour)
	windowStart := anchorDay.AddDate(0, 0, -(windowDays - 1))

	type bucket struct {
		sum   float64
		count float64
	}
	buckets := make([]bucket, windowDays)
	for i := range events {
		ev := &events[i]
		day := ev.Timestamp.UTC().Truncate(24 * time.Hour)
		idx := int(day.Sub(windowStart) / (24 * time.Hour))
		if idx < 0 || idx >= windowDays {
			continue
		}
		buckets[idx].count++
		if key != "" {
			buckets[idx].sum += ev.DataPoints[key].Number()
		}
	}

	points := make([]models.TrendPoint, windowDays)
	for i := range buckets {
		var value float64
		switch agg {
		case "count":
			value = buckets[i].count
		case "sum":
			value = buckets[i].sum
		case "avg":
			if buckets[i].count > 0 {
				value = buckets[i].sum / buckets[i].count
			}
		}
		points[i] = models.TrendPoint{
			Date:  windowStart.AddDate(0, 0, i),
			Value: value,
		}
	}

	direction, change := classify(points)
	return &models.TrendResult{
		Metric:        metric,
		WindowDays:    windowDays,
		Points:        points,
		Direction:     direction,
		PercentChange: change,
		GeneratedAt:   time.Now(),
	}, nil
}

// classify splits the series in half and compares mean values. The prior
// half is the floor half, so odd windows weight the recent half heavier.
func classify(points []models.TrendPoint) (models.TrendDirection, float64) {
	half := len(points) / 2
	priorMean := meanOf(points[:half])
	recentMean := meanOf(points[half:])

	var change float64
	switch {
	case priorMean == 0 && recentMean == 0:
		return models.TrendStable, 0
	case priorMean == 0:
		// All activity is new; report a full step up.
		change = 1.0
	default:
		change = (recentMean - priorMean) / priorMean
	}

	switch {
	case change >= stableBand:
		return models.TrendImproving, change
	case change <= -stableBand:
		return models.TrendDeclining, change
	default:
		return models.TrendStable, change
	}
}

func meanOf(points []models.TrendPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var total float64
	for _, p := range points {
		total += p.Value
	}
	return total / float64(len(points))
}

// parseMetric splits a metric spec into aggregate and data-point key.
func parseMetric(metric string) (agg, key string, err error) {
	if metric == "" || metric == "count" {
		return "count", "", nil
	}
	for _, prefix := range []string{"sum:", "avg:"} {
		if rest, ok := strings.CutPrefix(metric, prefix); ok {
			if rest == "" {
				return "", "", fmt.Errorf("%w: %q has no data point key", ErrUnknownMetric, metric)
			}
			return strings.TrimSuffix(prefix, ":"), rest, nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
}
