package models

// ConditionOperator is the comparison applied between a resolved field
// and the condition's literal value.
type ConditionOperator string

const (
	OpEquals         ConditionOperator = "equals"
	OpNotEquals      ConditionOperator = "not-equals"
	OpContains       ConditionOperator = "contains"
	OpNotContains    ConditionOperator = "not-contains"
	OpGreater        ConditionOperator = "greater"
	OpLess           ConditionOperator = "less"
	OpGreaterOrEqual ConditionOperator = "greater-or-equal"
	OpLessOrEqual    ConditionOperator = "less-or-equal"
	OpIn             ConditionOperator = "in"
	OpNotIn          ConditionOperator = "not-in"
	OpExists         ConditionOperator = "exists"
	OpNotExists      ConditionOperator = "not-exists"
)

// Valid reports whether the operator belongs to the supported set.
func (op ConditionOperator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual,
		OpIn, OpNotIn, OpExists, OpNotExists:
		return true
	}

	return false
}

// LogicOperator combines a condition list. A single operator applies
// uniformly across the whole list; mixed precedence is not supported.
type LogicOperator string

const (
	LogicAnd LogicOperator = "and"
	LogicOr  LogicOperator = "or"
)

// Condition is a boolean predicate over the execution context. Field
// addresses a context variable by name, the trigger payload as
// "trigger.<key>", or a prior step's output as "<stepId>.<field>".
type Condition struct {
	Field    string            `json:"field"    validate:"required"`
	Operator ConditionOperator `json:"operator" validate:"required"`
	Value    any               `json:"value,omitempty"`
}
