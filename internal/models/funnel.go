// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package models

import "time"

// Funnel defines an ordered conversion sequence. Step order is significant
// and fixed at creation; a valid funnel has at least two steps.
type Funnel struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Steps []FunnelStep `json:"steps"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FunnelStep is one stage in a funnel, matched by an event predicate:
// the event name plus optional data-point equality filters.
type FunnelStep struct {
	Name      string `json:"name"`
	EventName string `json:"event_name"`

	// DataPointFilters narrows matching events; every listed key must be
	// present on the event and equal the given value.
	DataPointFilters map[string]Value `json:"data_point_filters,omitempty"`
}

// Matches reports whether an event satisfies this step's predicate.
func (s FunnelStep) Matches(e *Event) bool {
	if e.Name != s.EventName {
		return false
	}
	for key, want := range s.DataPointFilters {
		got, ok := e.DataPoints[key]
		if !ok || !got.Equals(want) {
			return false
		}
	}
	return true
}

// FunnelStepResult is the computed outcome for one step.
type FunnelStepResult struct {
	Name string `json:"name"`

	// Entrants is the count of distinct entities that reached this step in
	// order (having satisfied every prior step first).
	Entrants int `json:"entrants"`

	// ConversionRate is entrants divided by the prior step's entrants
	// (step 1: entrants over the total entities observed).
	ConversionRate float64 `json:"conversion_rate"`

	// DropoffRate is 1 - ConversionRate.
	DropoffRate float64 `json:"dropoff_rate"`
}

// FunnelAnalysis is the full step-by-step result for one funnel run.
type FunnelAnalysis struct {
	FunnelID   string             `json:"funnel_id"`
	FunnelName string             `json:"funnel_name"`
	Steps      []FunnelStepResult `json:"steps"`

	// TotalEntities is the count of distinct users/sessions observed in the
	// analyzed window, the denominator for step 1.
	TotalEntities int `json:"total_entities"`

	GeneratedAt time.Time `json:"generated_at"`
}
