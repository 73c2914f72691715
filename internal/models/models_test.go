// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestValueJSONRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   Value
	}{
		{"string", StringValue("organic")},
		{"number", NumberValue(42.5)},
		{"bool", BoolValue(true)},
		{"time", TimeValue(ts)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			var out Value
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if !out.Equals(tt.in) {
				t.Errorf("round trip mismatch: got %+v, want %+v", out, tt.in)
			}
		})
	}
}

func TestValueUnmarshalInfersKinds(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`"2026-08-30T12:00:00Z"`), &v); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if v.Kind != KindTime {
		t.Errorf("expected KindTime for RFC3339 string, got %v", v.Kind)
	}

	if err := json.Unmarshal([]byte(`"hello"`), &v); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if v.Kind != KindString {
		t.Errorf("expected KindString, got %v", v.Kind)
	}

	if err := json.Unmarshal([]byte(`3.14`), &v); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if v.Kind != KindNumber {
		t.Errorf("expected KindNumber, got %v", v.Kind)
	}

	if err := json.Unmarshal([]byte(`[1,2]`), &v); err == nil {
		t.Error("expected error for array value")
	}
}

func TestValueComparisons(t *testing.T) {
	if !NumberValue(10).GreaterThan(NumberValue(5)) {
		t.Error("10 should be greater than 5")
	}
	if NumberValue(5).GreaterThan(NumberValue(10)) {
		t.Error("5 should not be greater than 10")
	}
	if !NumberValue(5).LessThan(NumberValue(10)) {
		t.Error("5 should be less than 10")
	}
	if !StringValue("mobile-safari").Contains(StringValue("safari")) {
		t.Error("expected substring match")
	}
	if StringValue("a").GreaterThan(StringValue("b")) {
		t.Error("strings are not ordered")
	}
	if NumberValue(1).Equals(StringValue("1")) {
		t.Error("values of different kinds are never equal")
	}
}

func TestParseAttributionModel(t *testing.T) {
	for _, valid := range []string{"firstTouch", "lastTouch", "linear", "timeDecay", "positionBased"} {
		if _, err := ParseAttributionModel(valid); err != nil {
			t.Errorf("ParseAttributionModel(%q) unexpected error: %v", valid, err)
		}
	}

	if _, err := ParseAttributionModel("markovChain"); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestFunnelStepMatches(t *testing.T) {
	step := FunnelStep{
		Name:      "Started checkout",
		EventName: "checkout_started",
		DataPointFilters: map[string]Value{
			"plan": StringValue("pro"),
		},
	}

	match := &Event{
		Name:       "checkout_started",
		DataPoints: map[string]Value{"plan": StringValue("pro")},
	}
	if !step.Matches(match) {
		t.Error("expected event to match step")
	}

	wrongName := &Event{Name: "page_view"}
	if step.Matches(wrongName) {
		t.Error("event with wrong name must not match")
	}

	wrongPlan := &Event{
		Name:       "checkout_started",
		DataPoints: map[string]Value{"plan": StringValue("free")},
	}
	if step.Matches(wrongPlan) {
		t.Error("event with non-matching data point must not match")
	}

	missingPlan := &Event{Name: "checkout_started"}
	if step.Matches(missingPlan) {
		t.Error("event missing filtered data point must not match")
	}
}

func TestConditionValidate(t *testing.T) {
	tests := []struct {
		name    string
		cond    *Condition
		wantErr bool
	}{
		{
			name: "valid leaf",
			cond: &Condition{Kind: ConditionLeaf, Field: "plan", Operator: OpEquals, Value: StringValue("pro")},
		},
		{
			name: "valid and",
			cond: &Condition{Kind: ConditionAnd, Children: []*Condition{
				{Kind: ConditionLeaf, Field: "visits", Operator: OpGreaterThan, Value: NumberValue(10)},
				{Kind: ConditionLeaf, Field: "plan", Operator: OpEquals, Value: StringValue("pro")},
			}},
		},
		{
			name: "valid not",
			cond: &Condition{Kind: ConditionNot, Children: []*Condition{
				{Kind: ConditionLeaf, Field: "churned", Operator: OpEquals, Value: BoolValue(true)},
			}},
		},
		{
			name:    "leaf missing field",
			cond:    &Condition{Kind: ConditionLeaf, Operator: OpEquals, Value: StringValue("x")},
			wantErr: true,
		},
		{
			name:    "leaf unknown operator",
			cond:    &Condition{Kind: ConditionLeaf, Field: "f", Operator: "regex", Value: StringValue("x")},
			wantErr: true,
		},
		{
			name:    "and without children",
			cond:    &Condition{Kind: ConditionAnd},
			wantErr: true,
		},
		{
			name: "not with two children",
			cond: &Condition{Kind: ConditionNot, Children: []*Condition{
				{Kind: ConditionLeaf, Field: "a", Operator: OpEquals, Value: NumberValue(1)},
				{Kind: ConditionLeaf, Field: "b", Operator: OpEquals, Value: NumberValue(2)},
			}},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			cond:    &Condition{Kind: "xor"},
			wantErr: true,
		},
		{
			name: "invalid nested child",
			cond: &Condition{Kind: ConditionOr, Children: []*Condition{
				{Kind: ConditionLeaf, Field: "", Operator: OpEquals},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionEndedAndDuration(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	end := start.Add(30 * time.Minute)

	open := Session{ID: "s1", StartTime: start}
	if open.Ended() {
		t.Error("session without end time must not report ended")
	}

	closed := Session{ID: "s2", StartTime: start, EndTime: &end}
	if !closed.Ended() {
		t.Error("session with end time must report ended")
	}
	if got := closed.Duration(); got != 30*time.Minute {
		t.Errorf("Duration() = %v, want 30m", got)
	}
}
