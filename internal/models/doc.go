// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// Package models defines data structures used throughout the Attributus
// application: behavioral events, sessions, attribution touchpoints, funnel
// and cohort definitions, segments, trend results, performance scores, and
// API response envelopes.
//
// Types in this package are plain data with no behavior beyond small
// self-contained helpers (value comparisons, model parsing). All analytics
// computation lives in internal/analytics; all persistence lives in
// internal/eventstore and internal/definitions.
package models
