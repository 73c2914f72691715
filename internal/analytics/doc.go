// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

// Package analytics implements the analytical core of Attributus:
// conversion attribution, funnel analysis, cohort metrics, behavioral
// segmentation, trend classification, and performance scoring.
//
// Every analyzer is a pure function of the events it queries or receives:
// no analyzer owns mutable state beyond per-user model selection in the
// attribution engine, so unrelated requests parallelize freely. Analyzers
// fail fast on invalid structural input (bad funnel definitions, unknown
// models) and degrade gracefully on empty data, returning well-defined
// zero results instead of errors.
package analytics
