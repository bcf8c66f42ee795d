package models

// StepType tags the unit of work a step performs. The set is closed:
// every tag maps to exactly one registered handler, and unknown tags
// are rejected when the workflow is activated, never at run time.
type StepType string

const (
	StepTypeCreateRecord      StepType = "create-record"
	StepTypeSendNotification  StepType = "send-notification"
	StepTypeCallExternalAPI   StepType = "call-external-api"
	StepTypeEvaluateCondition StepType = "evaluate-condition"
	StepTypeWait              StepType = "wait"
	StepTypeRunScript         StepType = "run-script"
	StepTypeRequireApproval   StepType = "require-approval"
	StepTypeInvokeIntegration StepType = "invoke-integration"
	StepTypeCustom            StepType = "custom"
)

// AllStepTypes lists the closed set of step type tags.
func AllStepTypes() []StepType {
	return []StepType{
		StepTypeCreateRecord,
		StepTypeSendNotification,
		StepTypeCallExternalAPI,
		StepTypeEvaluateCondition,
		StepTypeWait,
		StepTypeRunScript,
		StepTypeRequireApproval,
		StepTypeInvokeIntegration,
		StepTypeCustom,
	}
}

// Step is one node in the workflow graph.
type Step struct {
	ID             string         `json:"id"      validate:"required"`
	Name           string         `json:"name"    validate:"required"`
	Type           StepType       `json:"type"    validate:"required"`
	Order          int            `json:"order"`
	Enabled        bool           `json:"enabled"`
	Config         map[string]any `json:"config"` // Opaque to the engine, validated by the handler
	Conditions     []Condition    `json:"conditions,omitempty"`
	Logic          LogicOperator  `json:"logic,omitempty"`
	OnSuccess      *string        `json:"on_success,omitempty"`
	OnFailure      *string        `json:"on_failure,omitempty"`
	TimeoutSeconds int            `json:"timeout_seconds,omitempty"`
	Retry          *RetryPolicy   `json:"retry,omitempty"` // Overrides the workflow default when set
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// EffectiveRetry returns the step's retry policy, falling back to the
// workflow default when the step carries no override.
func (s *Step) EffectiveRetry(workflowDefault RetryPolicy) RetryPolicy {
	if s.Retry != nil {
		return *s.Retry
	}

	return workflowDefault
}
