// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// This file contains multi-touch attribution following industry practice
// from Google Analytics, Adjust, and similar platforms: a per-user model
// selection, a look-back window anchored at the conversion, and weight
// assignment that always sums to 1.0 across the credited touchpoints.

package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/attributus/internal/eventstore"
	"github.com/tomtom215/attributus/internal/metrics"
	"github.com/tomtom215/attributus/internal/models"
)

// ErrUnknownModel indicates an unsupported attribution model name.
var ErrUnknownModel = errors.New("unknown attribution model")

// ErrMissingUserID indicates an attribution report was requested without a
// user. A report blends one user's timeline; there is no cross-user variant.
var ErrMissingUserID = errors.New("user id is required")

// AttributionConfig tunes the attribution engine.
type AttributionConfig struct {
	// DefaultModel applies to users without an explicit selection.
	// Default: lastTouch.
	DefaultModel models.AttributionModel

	// WindowDays is the look-back window before a conversion during which
	// touchpoints are credited. Default: 30.
	WindowDays int

	// DecayHalfLifeDays is the timeDecay half-life. Default: 7.
	DecayHalfLifeDays float64

	// ConversionEvents are the event names that anchor attribution windows.
	ConversionEvents []string

	// ValueKey is the data point carrying the conversion value. Default: "value".
	ValueKey string

	// ChannelKey is the data point carrying the explicit channel. Default: "channel".
	ChannelKey string
}

// DefaultAttributionConfig returns production defaults.
func DefaultAttributionConfig() AttributionConfig {
	return AttributionConfig{
		DefaultModel:      models.ModelLastTouch,
		WindowDays:        30,
		DecayHalfLifeDays: 7,
		ConversionEvents:  []string{"conversion", "purchase", "signup_completed"},
		ValueKey:          "value",
		ChannelKey:        "channel",
	}
}

// AttributionEngine distributes conversion credit across per-user
// touchpoint timelines. The only mutable state is the per-user model
// selection; reports are pure functions of queried events.
type AttributionEngine struct {
	store eventstore.Store
	cfg   AttributionConfig

	mu          sync.RWMutex
	modelByUser map[string]models.AttributionModel
	conversions map[string]struct{}
}

// NewAttributionEngine creates an engine reading from the given store.
func NewAttributionEngine(store eventstore.Store, cfg AttributionConfig) *AttributionEngine {
	defaults := DefaultAttributionConfig()
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaults.DefaultModel
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = defaults.WindowDays
	}
	if cfg.DecayHalfLifeDays <= 0 {
		cfg.DecayHalfLifeDays = defaults.DecayHalfLifeDays
	}
	if len(cfg.ConversionEvents) == 0 {
		cfg.ConversionEvents = defaults.ConversionEvents
	}
	if cfg.ValueKey == "" {
		cfg.ValueKey = defaults.ValueKey
	}
	if cfg.ChannelKey == "" {
		cfg.ChannelKey = defaults.ChannelKey
	}

	conversions := make(map[string]struct{}, len(cfg.ConversionEvents))
	for _, name := range cfg.ConversionEvents {
		conversions[name] = struct{}{}
	}

	return &AttributionEngine{
		store:       store,
		cfg:         cfg,
		modelByUser: make(map[string]models.AttributionModel),
		conversions: conversions,
	}
}

// SetModel selects the attribution model for a user. Unknown model names
// fail with ErrUnknownModel.
func (e *AttributionEngine) SetModel(userID, model string) error {
	parsed, err := models.ParseAttributionModel(model)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	e.mu.Lock()
	e.modelByUser[userID] = parsed
	e.mu.Unlock()
	return nil
}

// ModelFor returns the user's selected model, or the default.
func (e *AttributionEngine) ModelFor(userID string) models.AttributionModel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if m, ok := e.modelByUser[userID]; ok {
		return m
	}
	return e.cfg.DefaultModel
}

// Report builds the weighted touchpoint timeline for a user. The window
// ends at the user's latest conversion event, or now when the user has not
// converted. A user with no qualifying events yields an empty report, not
// an error; an empty user ID fails with ErrMissingUserID.
func (e *AttributionEngine) Report(ctx context.Context, userID string) (*models.AttributionReport, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	metrics.AnalyzerRuns.WithLabelValues("attribution").Inc()

	events, err := e.store.Query(ctx, eventstore.Filter{UserID: userID, Order: eventstore.OrderAsc})
	if err != nil {
		return nil, fmt.Errorf("query user events: %w", err)
	}

	model := e.ModelFor(userID)
	report := &models.AttributionReport{
		UserID:      userID,
		Model:       model,
		WindowDays:  e.cfg.WindowDays,
		Touchpoints: []models.Touchpoint{},
		GeneratedAt: time.Now(),
	}

	anchor := time.Now()
	for i := len(events) - 1; i >= 0; i-- {
		if _, ok := e.conversions[events[i].Name]; ok {
			anchor = events[i].Timestamp
			report.Converted = true
			report.ConversionValue = events[i].DataPoints[e.cfg.ValueKey].Number()
			break
		}
	}

	report.Touchpoints = e.touchpoints(events, anchor)
	assignWeights(model, report.Touchpoints, anchor, e.cfg.DecayHalfLifeDays)
	return report, nil
}

// touchpoints extracts the credited interactions inside the window ending
// at anchor. Conversion events themselves are not touchpoints.
func (e *AttributionEngine) touchpoints(events []models.Event, anchor time.Time) []models.Touchpoint {
	windowStart := anchor.AddDate(0, 0, -e.cfg.WindowDays)

	touches := make([]models.Touchpoint, 0, len(events))
	for i := range events {
		ev := &events[i]
		if _, ok := e.conversions[ev.Name]; ok {
			continue
		}
		if ev.Timestamp.Before(windowStart) || ev.Timestamp.After(anchor) {
			continue
		}
		touches = append(touches, models.Touchpoint{
			Channel:   e.channelOf(ev),
			EventID:   ev.ID.String(),
			EventName: ev.Name,
			Timestamp: ev.Timestamp,
		})
	}

	sort.SliceStable(touches, func(i, j int) bool {
		return touches[i].Timestamp.Before(touches[j].Timestamp)
	})
	return touches
}

// channelOf derives the marketing channel for an event: the explicit
// channel data point when present, then a referrer classification, then
// the event name itself.
func (e *AttributionEngine) channelOf(ev *models.Event) string {
	if v, ok := ev.DataPoints[e.cfg.ChannelKey]; ok && v.Kind == models.KindString && v.Str != "" {
		return v.Str
	}
	if ch := classifyReferrer(ev.Context.Referrer); ch != "" {
		return ch
	}
	if ev.Name != "" {
		return ev.Name
	}
	return "direct"
}

// classifyReferrer maps a referrer URL to a coarse channel.
func classifyReferrer(referrer string) string {
	if referrer == "" {
		return ""
	}
	ref := strings.ToLower(referrer)
	switch {
	case strings.Contains(ref, "google.") || strings.Contains(ref, "bing.") || strings.Contains(ref, "duckduckgo."):
		return "search"
	case strings.Contains(ref, "facebook.") || strings.Contains(ref, "twitter.") ||
		strings.Contains(ref, "linkedin.") || strings.Contains(ref, "instagram.") ||
		strings.Contains(ref, "t.co"):
		return "social"
	case strings.Contains(ref, "mail.") || strings.Contains(ref, "utm_medium=email"):
		return "email"
	default:
		return "referral"
	}
}

// assignWeights distributes credit in place. Weights always sum to 1.0
// within floating-point tolerance for a non-empty touchpoint list.
func assignWeights(model models.AttributionModel, touches []models.Touchpoint, anchor time.Time, halfLifeDays float64) {
	n := len(touches)
	if n == 0 {
		return
	}
	if n == 1 {
		touches[0].Weight = 1.0
		return
	}

	switch model {
	case models.ModelFirstTouch:
		touches[0].Weight = 1.0
	case models.ModelLastTouch:
		touches[n-1].Weight = 1.0
	case models.ModelTimeDecay:
		// Exponential decay favoring recency, normalized to sum to 1.
		var total float64
		raw := make([]float64, n)
		for i := range touches {
			ageDays := anchor.Sub(touches[i].Timestamp).Hours() / 24
			raw[i] = math.Pow(0.5, ageDays/halfLifeDays)
			total += raw[i]
		}
		for i := range touches {
			touches[i].Weight = raw[i] / total
		}
	case models.ModelPositionBased:
		if n == 2 {
			// No middle touchpoints: degrade to linear, 0.5 each.
			touches[0].Weight = 0.5
			touches[1].Weight = 0.5
			return
		}
		touches[0].Weight = 0.4
		touches[n-1].Weight = 0.4
		middle := 0.2 / float64(n-2)
		for i := 1; i < n-1; i++ {
			touches[i].Weight = middle
		}
	default: // linear
		w := 1.0 / float64(n)
		for i := range touches {
			touches[i].Weight = w
		}
	}
}

// ChannelPerformance aggregates attributed revenue per channel across all
// conversions in the time range, ranked descending by attributed revenue.
func (e *AttributionEngine) ChannelPerformance(ctx context.Context, start, end time.Time) ([]models.ChannelPerformance, error) {
	metrics.AnalyzerRuns.WithLabelValues("attribution").Inc()

	conversions, err := e.store.Query(ctx, eventstore.Filter{
		StartTime: &start,
		EndTime:   &end,
		Names:     e.cfg.ConversionEvents,
		Order:     eventstore.OrderAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}

	type channelAccum struct {
		revenue     float64
		users       map[string]struct{}
		conversions int
	}
	accum := make(map[string]*channelAccum)

	// One query per converting user, reused across that user's conversions.
	eventsByUser := make(map[string][]models.Event)

	for i := range conversions {
		conv := &conversions[i]
		if conv.UserID == "" {
			continue
		}

		userEvents, ok := eventsByUser[conv.UserID]
		if !ok {
			userEvents, err = e.store.Query(ctx, eventstore.Filter{UserID: conv.UserID, Order: eventstore.OrderAsc})
			if err != nil {
				return nil, fmt.Errorf("query events for user %s: %w", conv.UserID, err)
			}
			eventsByUser[conv.UserID] = userEvents
		}

		touches := e.touchpoints(userEvents, conv.Timestamp)
		assignWeights(e.ModelFor(conv.UserID), touches, conv.Timestamp, e.cfg.DecayHalfLifeDays)

		value := conv.DataPoints[e.cfg.ValueKey].Number()

		// A conversion counts once per channel no matter how many of its
		// touchpoints share that channel.
		credited := make(map[string]struct{}, len(touches))
		for _, tp := range touches {
			if tp.Weight == 0 {
				continue
			}
			ca, ok := accum[tp.Channel]
			if !ok {
				ca = &channelAccum{users: make(map[string]struct{})}
				accum[tp.Channel] = ca
			}
			ca.revenue += tp.Weight * value
			ca.users[conv.UserID] = struct{}{}
			if _, dup := credited[tp.Channel]; !dup {
				credited[tp.Channel] = struct{}{}
				ca.conversions++
			}
		}
	}

	out := make([]models.ChannelPerformance, 0, len(accum))
	for channel, ca := range accum {
		out = append(out, models.ChannelPerformance{
			Channel:           channel,
			AttributedRevenue: ca.revenue,
			UniqueUsers:       len(ca.users),
			Conversions:       ca.conversions,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AttributedRevenue != out[j].AttributedRevenue {
			return out[i].AttributedRevenue > out[j].AttributedRevenue
		}
		return out[i].Channel < out[j].Channel
	})
	return out, nil
}
