// Package models: rule evaluation for condition nodes and trigger filters.
package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oliveagle/jsonpath"
)

// Operator is a comparison operator applied to a context field.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorExists      Operator = "exists"
)

// Combinator combines the outcomes of a condition node's rules.
type Combinator string

const (
	CombinatorAnd Combinator = "and"
	CombinatorOr  Combinator = "or"
)

// Rule compares a dot-path field from the execution context against a
// literal value.
type Rule struct {
	Field    string   `json:"field"    validate:"required"`
	Operator Operator `json:"operator" validate:"required"`
	Value    any      `json:"value"`
}

// ResolveField resolves a dot path ("contact.email") against the context.
// A missing key at any depth yields nil rather than an error, so downstream
// operators fail naturally.
func ResolveField(context map[string]any, path string) any {
	if path == "" {
		return nil
	}

	value, err := jsonpath.JsonPathLookup(context, "$."+path)
	if err != nil {
		return nil
	}

	return value
}

// EvaluateRule applies operator to (fieldValue, comparison) and returns the
// outcome. Unknown operators evaluate to false, never to an error.
func EvaluateRule(fieldValue any, operator Operator, comparison any) bool {
	switch operator {
	case OperatorEquals:
		return looselyEqual(fieldValue, comparison)
	case OperatorNotEquals:
		return !looselyEqual(fieldValue, comparison)
	case OperatorContains:
		if fieldValue == nil {
			return false
		}

		return strings.Contains(stringify(fieldValue), stringify(comparison))
	case OperatorGreaterThan:
		left, leftOK := toFloat(fieldValue)
		right, rightOK := toFloat(comparison)

		return leftOK && rightOK && left > right
	case OperatorLessThan:
		left, leftOK := toFloat(fieldValue)
		right, rightOK := toFloat(comparison)

		return leftOK && rightOK && left < right
	case OperatorExists:
		return fieldValue != nil
	default:
		return false
	}
}

// Evaluate resolves and evaluates the rule against the context.
func (r Rule) Evaluate(context map[string]any) bool {
	return EvaluateRule(ResolveField(context, r.Field), r.Operator, r.Value)
}

// Evaluate combines all rule outcomes under the configured combinator.
// AND requires every rule to hold and short-circuits on the first false;
// OR requires at least one. An empty rule list evaluates to true.
func (c *ConditionConfig) Evaluate(context map[string]any) bool {
	switch c.Combinator {
	case CombinatorOr:
		for _, rule := range c.Rules {
			if rule.Evaluate(context) {
				return true
			}
		}

		return len(c.Rules) == 0
	case CombinatorAnd:
		fallthrough
	default:
		for _, rule := range c.Rules {
			if !rule.Evaluate(context) {
				return false
			}
		}

		return true
	}
}

// looselyEqual compares numerically when both sides coerce to numbers,
// otherwise by string form. JSON decoding yields float64 for all numbers, so
// 1 and 1.0 compare equal.
func looselyEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}

	leftNum, leftOK := toFloat(left)
	rightNum, rightOK := toFloat(right)

	if leftOK && rightOK {
		return leftNum == rightNum
	}

	return stringify(left) == stringify(right)
}

func stringify(value any) string {
	if value == nil {
		return ""
	}

	return fmt.Sprintf("%v", value)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)

		return parsed, err == nil
	default:
		return 0, false
	}
}
