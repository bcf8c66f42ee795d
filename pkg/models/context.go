package models

import "strings"

// ExecutionContext is the mutable state threaded through one workflow run.
// It is exclusively owned by its Execution and never shared across runs.
type ExecutionContext struct {
	ExecutionID    string                    `json:"execution_id"`
	WorkflowID     string                    `json:"workflow_id"`
	Variables      map[string]any            `json:"variables,omitempty"`
	TriggerPayload map[string]any            `json:"trigger_payload,omitempty"` // Read-only snapshot
	StepResults    map[string]map[string]any `json:"step_results,omitempty"`    // Append-only, keyed by step id
	CurrentStepID  string                    `json:"current_step_id,omitempty"`
}

// NewExecutionContext builds the context for a fresh run.
func NewExecutionContext(executionID, workflowID string, variables, payload map[string]any) *ExecutionContext {
	if variables == nil {
		variables = make(map[string]any)
	}

	return &ExecutionContext{
		ExecutionID:    executionID,
		WorkflowID:     workflowID,
		Variables:      variables,
		TriggerPayload: payload,
		StepResults:    make(map[string]map[string]any),
	}
}

// RecordStepResult merges a step's output into the step-results map.
func (c *ExecutionContext) RecordStepResult(stepID string, output map[string]any) {
	if c.StepResults == nil {
		c.StepResults = make(map[string]map[string]any)
	}

	existing, ok := c.StepResults[stepID]
	if !ok {
		existing = make(map[string]any, len(output))
		c.StepResults[stepID] = existing
	}

	for k, v := range output {
		existing[k] = v
	}
}

// Lookup resolves a dotted field address against the context. A bare
// token reads context variables; "trigger.<key>" reads the payload;
// "<stepId>.<field>" reads a prior step's output. The second return is
// false when the field is undefined.
func (c *ExecutionContext) Lookup(field string) (any, bool) {
	if field == "" {
		return nil, false
	}

	head, rest, dotted := strings.Cut(field, ".")

	if dotted {
		if head == "trigger" {
			return dig(c.TriggerPayload, rest)
		}

		if result, ok := c.StepResults[head]; ok {
			return dig(result, rest)
		}
	}

	if v, ok := c.Variables[field]; ok {
		return v, true
	}

	return nil, false
}

// dig walks a dotted path through nested string-keyed maps.
func dig(m map[string]any, path string) (any, bool) {
	head, rest, dotted := strings.Cut(path, ".")

	v, ok := m[head]
	if !ok {
		return nil, false
	}

	if !dotted {
		return v, true
	}

	nested, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}

	return dig(nested, rest)
}
