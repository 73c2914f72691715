// Attributus - Marketing Attribution & Product Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attributus

package models

import (
	"errors"
	"fmt"
)

// ConditionOperator is the comparison applied by a leaf condition.
type ConditionOperator string

const (
	// OpEquals matches data points equal to the condition value.
	OpEquals ConditionOperator = "equals"
	// OpGreaterThan matches data points strictly greater than the value.
	OpGreaterThan ConditionOperator = "greaterThan"
	// OpLessThan matches data points strictly less than the value.
	OpLessThan ConditionOperator = "lessThan"
	// OpContains matches string data points containing the value.
	OpContains ConditionOperator = "contains"
)

// ConditionKind tags a condition tree node.
type ConditionKind string

const (
	// ConditionLeaf compares one data point against a value.
	ConditionLeaf ConditionKind = "leaf"
	// ConditionAnd is satisfied when all children are satisfied.
	ConditionAnd ConditionKind = "and"
	// ConditionOr is satisfied when any child is satisfied.
	ConditionOr ConditionKind = "or"
	// ConditionNot inverts its single child.
	ConditionNot ConditionKind = "not"
)

// Condition is a tagged recursive tree of AND/OR/NOT over data-point
// comparisons. Leaf nodes set Field/Operator/Value; composite nodes set
// Children. Membership is evaluated on demand by a single recursive
// interpreter; it is never materialized.
type Condition struct {
	Kind ConditionKind `json:"kind"`

	// Leaf fields
	Field    string            `json:"field,omitempty"`
	Operator ConditionOperator `json:"operator,omitempty"`
	Value    Value             `json:"value,omitempty"`

	// Composite fields
	Children []*Condition `json:"children,omitempty"`
}

// Validate checks the structural invariants of the condition tree: leaves
// carry a field and a known operator, AND/OR carry at least one child, NOT
// carries exactly one.
func (c *Condition) Validate() error {
	if c == nil {
		return errors.New("condition is nil")
	}

	switch c.Kind {
	case ConditionLeaf:
		if c.Field == "" {
			return errors.New("leaf condition requires a field")
		}
		switch c.Operator {
		case OpEquals, OpGreaterThan, OpLessThan, OpContains:
		default:
			return fmt.Errorf("unknown condition operator %q", c.Operator)
		}
		if len(c.Children) > 0 {
			return errors.New("leaf condition must not have children")
		}
		return nil
	case ConditionAnd, ConditionOr:
		if len(c.Children) == 0 {
			return fmt.Errorf("%s condition requires at least one child", c.Kind)
		}
	case ConditionNot:
		if len(c.Children) != 1 {
			return errors.New("not condition requires exactly one child")
		}
	default:
		return fmt.Errorf("unknown condition kind %q", c.Kind)
	}

	for _, child := range c.Children {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Segment is a named group of users defined by evaluable conditions over
// their behavior. Conditions are the sole source of truth for membership.
type Segment struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Conditions is the membership rule tree.
	Conditions *Condition `json:"conditions"`

	// Generated marks segments produced by the behavioral heuristic rather
	// than registered by a caller.
	Generated bool `json:"generated,omitempty"`

	// Description explains generated segments ("event frequency above the
	// 80th percentile").
	Description string `json:"description,omitempty"`
}
