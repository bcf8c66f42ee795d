// Package models defines the core domain models for the workflow automation engine.
package models

import (
	"errors"
	"fmt"
	"time"
)

// WorkflowStatus represents the lifecycle state of a workflow definition.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, not executable
	WorkflowStatusActive   WorkflowStatus = "active"   // Trigger wired, executable
	WorkflowStatusInactive WorkflowStatus = "inactive" // Trigger unwired, history preserved
	WorkflowStatusArchived WorkflowStatus = "archived" // Terminal, never hard-deleted
)

// ErrorStrategy controls how the engine reacts when a step exhausts its retries.
type ErrorStrategy string

const (
	ErrorStrategyStop     ErrorStrategy = "stop"     // Abort the run (default)
	ErrorStrategyContinue ErrorStrategy = "continue" // Log a warning and proceed in declared order
	ErrorStrategyRollback ErrorStrategy = "rollback" // Reserved for compensating actions, treated as stop
)

// Variable declares a workflow variable seeded into every execution context.
type Variable struct {
	Name    string `json:"name"             validate:"required"`
	Type    string `json:"type,omitempty"`
	Default any    `json:"default,omitempty"`
	Scope   string `json:"scope,omitempty"`
}

// Settings holds execution-wide tuning for a workflow.
type Settings struct {
	MaxConcurrentExecutions int           `json:"max_concurrent_executions" validate:"min=1"`
	ExecutionTimeoutSeconds int           `json:"execution_timeout_seconds,omitempty"`
	DefaultRetry            RetryPolicy   `json:"default_retry"`
	ErrorStrategy           ErrorStrategy `json:"error_strategy,omitempty"`
	LogLevel                string        `json:"log_level,omitempty"`
	NotifyOnCompletion      bool          `json:"notify_on_completion,omitempty"`
}

// DefaultSettings returns the settings applied to a workflow created without any.
func DefaultSettings() Settings {
	return Settings{
		MaxConcurrentExecutions: 1,
		DefaultRetry:            DefaultRetryPolicy(),
		ErrorStrategy:           ErrorStrategyStop,
		LogLevel:                "info",
	}
}

// Workflow represents an automation blueprint: a trigger plus an ordered set of steps.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description,omitempty"`
	Version     int            `json:"version"`
	Status      WorkflowStatus `json:"status"      validate:"required"`
	Trigger     *TriggerSpec   `json:"trigger,omitempty"`
	Steps       []*Step        `json:"steps"`
	Variables   []Variable     `json:"variables,omitempty"`
	Conditions  []Condition    `json:"conditions,omitempty"` // Workflow-level gate, evaluated at trigger time
	Logic       LogicOperator  `json:"logic,omitempty"`
	Settings    Settings       `json:"settings"`
	Owner       string         `json:"owner,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ArchivedAt  *time.Time     `json:"archived_at,omitempty"`
}

var (
	ErrDuplicateStepID    = errors.New("duplicate step id")
	ErrDanglingStepRef    = errors.New("step references unknown step id")
	ErrNoTrigger          = errors.New("active workflow requires a trigger")
	ErrInvalidConcurrency = errors.New("max concurrent executions must be at least 1")
	ErrInvalidOperator    = errors.New("unknown condition operator")
)

// ValidateStructure checks the structural invariants of a definition:
// unique step ids, resolvable onSuccess/onFailure references, a sane
// concurrency ceiling and well-formed conditions. Step-type and
// config validation happens against the handler registry at activation.
func (w *Workflow) ValidateStructure() error {
	if w.Settings.MaxConcurrentExecutions < 1 {
		return ErrInvalidConcurrency
	}

	ids := make(map[string]struct{}, len(w.Steps))
	for _, step := range w.Steps {
		if _, dup := ids[step.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateStepID, step.ID)
		}

		ids[step.ID] = struct{}{}
	}

	for _, step := range w.Steps {
		for _, ref := range []*string{step.OnSuccess, step.OnFailure} {
			if ref == nil || *ref == "" {
				continue
			}

			if _, ok := ids[*ref]; !ok {
				return fmt.Errorf("%w: step %s references %s", ErrDanglingStepRef, step.ID, *ref)
			}
		}

		for _, cond := range step.Conditions {
			if !cond.Operator.Valid() {
				return fmt.Errorf("%w: %s (step %s)", ErrInvalidOperator, cond.Operator, step.ID)
			}
		}
	}

	for _, cond := range w.Conditions {
		if !cond.Operator.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidOperator, cond.Operator)
		}
	}

	if w.Trigger != nil {
		if err := w.Trigger.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ValidateForActivation runs the structural checks plus the invariants that
// only matter once the workflow is about to execute.
func (w *Workflow) ValidateForActivation() error {
	if err := w.ValidateStructure(); err != nil {
		return err
	}

	if w.Trigger == nil {
		return ErrNoTrigger
	}

	return nil
}

// SeedVariables materializes the declared variables into the initial
// key/value map for a new execution context.
func (w *Workflow) SeedVariables() map[string]any {
	vars := make(map[string]any, len(w.Variables))
	for _, v := range w.Variables {
		vars[v.Name] = v.Default
	}

	return vars
}

// OrderedSteps returns the steps sorted by their declared order hint.
// Steps with equal order keep their slice position.
func (w *Workflow) OrderedSteps() []*Step {
	ordered := make([]*Step, len(w.Steps))
	copy(ordered, w.Steps)

	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j-1].Order > ordered[j].Order; j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}

	return ordered
}

// StepByID finds a step in the definition.
func (w *Workflow) StepByID(id string) (*Step, bool) {
	for _, step := range w.Steps {
		if step.ID == id {
			return step, true
		}
	}

	return nil, false
}
