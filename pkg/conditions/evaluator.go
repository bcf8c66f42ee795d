// Package conditions evaluates boolean predicates against an execution context.
package conditions

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/tasklab/automation/pkg/models"
)

// Evaluate applies a condition list to the context. The logic operator
// combines the list uniformly: "or" passes when any condition holds,
// anything else behaves as "and". An empty list always passes. Fields
// missing from the context are undefined and satisfy only "not-exists".
func Evaluate(conds []models.Condition, logic models.LogicOperator, execCtx *models.ExecutionContext) bool {
	if len(conds) == 0 {
		return true
	}

	if logic == models.LogicOr {
		for _, cond := range conds {
			if evaluateOne(cond, execCtx) {
				return true
			}
		}

		return false
	}

	for _, cond := range conds {
		if !evaluateOne(cond, execCtx) {
			return false
		}
	}

	return true
}

// EvaluatePayload applies a condition list to a bare payload, outside any
// run. Used for trigger-level gating, where fields address the raw
// trigger data directly, bare or with the "trigger." prefix.
func EvaluatePayload(conds []models.Condition, logic models.LogicOperator, payload map[string]any) bool {
	ctx := models.ExecutionContext{Variables: payload, TriggerPayload: payload}

	return Evaluate(conds, logic, &ctx)
}

func evaluateOne(cond models.Condition, execCtx *models.ExecutionContext) bool {
	actual, found := execCtx.Lookup(cond.Field)

	switch cond.Operator {
	case models.OpExists:
		return found
	case models.OpNotExists:
		return !found
	}

	if !found {
		return false
	}

	switch cond.Operator {
	case models.OpEquals:
		return looseEqual(actual, cond.Value)
	case models.OpNotEquals:
		return !looseEqual(actual, cond.Value)
	case models.OpContains:
		return contains(actual, cond.Value)
	case models.OpNotContains:
		return !contains(actual, cond.Value)
	case models.OpGreater, models.OpLess, models.OpGreaterOrEqual, models.OpLessOrEqual:
		return compareNumeric(cond.Operator, actual, cond.Value)
	case models.OpIn:
		return in(actual, cond.Value)
	case models.OpNotIn:
		return !in(actual, cond.Value)
	}

	return false
}

// looseEqual compares across the numeric types JSON decoding produces,
// falling back to string equality for everything else.
func looseEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)

	if aok && bok {
		return af == bf
	}

	return stringify(a) == stringify(b)
}

func compareNumeric(op models.ConditionOperator, a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)

	if !aok || !bok {
		// Non-numeric operands fall back to lexicographic comparison.
		cmp := strings.Compare(stringify(a), stringify(b))

		switch op {
		case models.OpGreater:
			return cmp > 0
		case models.OpLess:
			return cmp < 0
		case models.OpGreaterOrEqual:
			return cmp >= 0
		case models.OpLessOrEqual:
			return cmp <= 0
		}

		return false
	}

	switch op {
	case models.OpGreater:
		return af > bf
	case models.OpLess:
		return af < bf
	case models.OpGreaterOrEqual:
		return af >= bf
	case models.OpLessOrEqual:
		return af <= bf
	}

	return false
}

func contains(actual, value any) bool {
	switch v := actual.(type) {
	case string:
		return strings.Contains(v, stringify(value))
	case []any:
		for _, item := range v {
			if looseEqual(item, value) {
				return true
			}
		}

		return false
	case []string:
		for _, item := range v {
			if item == stringify(value) {
				return true
			}
		}

		return false
	}

	return false
}

// in checks membership of the actual value in the condition's list value.
func in(actual, value any) bool {
	switch list := value.(type) {
	case []any:
		for _, item := range list {
			if looseEqual(actual, item) {
				return true
			}
		}
	case []string:
		for _, item := range list {
			if looseEqual(actual, item) {
				return true
			}
		}
	}

	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)

		return f, err == nil
	}

	return 0, false
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}
