// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event represents a single immutable behavioral fact: a page view, a form
// submission, a purchase. Once stored an event is never mutated; corrections
// are new events.
//
// Key Fields:
//   - ID: Unique UUID assigned at ingestion (two identical payloads get two IDs)
//   - Name: Event name (e.g., "page_view", "purchase")
//   - Category: Optional grouping (e.g., "engagement", "conversion")
//   - UserID/SessionID: Optional identity attachment
//   - DataPoints: Open schema-less mapping of typed values
//   - Context: Request context captured at ingestion (IP, user agent, referrer)
//
// DataPoints are forward-compatible: unknown keys are stored as-is and
// surfaced to analyzers unchanged. Value kinds are validated at the
// ingestion boundary, not inside analyzers.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Category   string            `json:"category,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	UserID     string            `json:"user_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	DataPoints map[string]Value  `json:"data_points,omitempty"`
	Context    EventContext      `json:"context"`
}

// EventContext captures the request environment at ingestion time.
type EventContext struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// ValueKind identifies the type of a data-point value. The set is closed:
// string, number, boolean, timestamp.
type ValueKind int

const (
	// KindString is a string value.
	KindString ValueKind = iota
	// KindNumber is a float64 value (all JSON numbers).
	KindNumber
	// KindBool is a boolean value.
	KindBool
	// KindTime is an RFC3339 timestamp value.
	KindTime
)

// String returns the kind name for logging and error messages.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a tagged data-point value. Exactly one of the payload fields is
// meaningful, selected by Kind. Values serialize to their natural JSON
// representation (string, number, boolean; timestamps as RFC3339 strings).
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
}

// StringValue wraps a string as a Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue wraps a float64 as a Value.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// BoolValue wraps a bool as a Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// TimeValue wraps a timestamp as a Value.
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// MarshalJSON serializes the value as its natural JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindTime:
		return json.Marshal(v.Time.Format(time.RFC3339Nano))
	default:
		return nil, fmt.Errorf("cannot marshal value of kind %d", v.Kind)
	}
}

// UnmarshalJSON infers the value kind from the JSON type. Strings that parse
// as RFC3339 timestamps become KindTime.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch t := raw.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			*v = TimeValue(ts)
			return nil
		}
		*v = StringValue(t)
		return nil
	case float64:
		*v = NumberValue(t)
		return nil
	case bool:
		*v = BoolValue(t)
		return nil
	default:
		return fmt.Errorf("unsupported data point type %T", raw)
	}
}

// Equals reports whether two values are equal. Values of different kinds are
// never equal.
func (v Value) Equals(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	case KindBool:
		return v.Bool == other.Bool
	case KindTime:
		return v.Time.Equal(other.Time)
	default:
		return false
	}
}

// GreaterThan reports whether v > other. Only numbers and timestamps are
// ordered; all other comparisons return false.
func (v Value) GreaterThan(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num > other.Num
	case KindTime:
		return v.Time.After(other.Time)
	default:
		return false
	}
}

// LessThan reports whether v < other. Only numbers and timestamps are
// ordered; all other comparisons return false.
func (v Value) LessThan(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num < other.Num
	case KindTime:
		return v.Time.Before(other.Time)
	default:
		return false
	}
}

// Contains reports whether the string form of v contains the string form of
// other as a substring. Defined for string values only.
func (v Value) Contains(other Value) bool {
	if v.Kind != KindString || other.Kind != KindString {
		return false
	}
	return strings.Contains(v.Str, other.Str)
}

// Number returns the numeric payload, or 0 for non-number kinds. Convenience
// for analyzers aggregating numeric data points.
func (v Value) Number() float64 {
	if v.Kind != KindNumber {
		return 0
	}
	return v.Num
}
