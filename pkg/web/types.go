package web

import "github.com/tasklab/automation/pkg/models"

// CreateWorkflowRequest creates a draft definition. Steps and trigger
// may arrive later through updates; they are only required to activate.
type CreateWorkflowRequest struct {
	Name        string               `json:"name"        validate:"required,min=3"`
	Description string               `json:"description,omitempty"`
	Trigger     *models.TriggerSpec  `json:"trigger,omitempty"`
	Steps       []*models.Step       `json:"steps,omitempty"`
	Variables   []models.Variable    `json:"variables,omitempty"`
	Conditions  []models.Condition   `json:"conditions,omitempty"`
	Logic       models.LogicOperator `json:"logic,omitempty"`
	Settings    *models.Settings     `json:"settings,omitempty"`
	Owner       string               `json:"owner,omitempty"`
}

// UpdateWorkflowRequest applies a partial update to a definition. Nil
// fields keep their current value.
type UpdateWorkflowRequest struct {
	Name        *string               `json:"name,omitempty" validate:"omitempty,min=3"`
	Description *string               `json:"description,omitempty"`
	Trigger     *models.TriggerSpec   `json:"trigger,omitempty"`
	Steps       []*models.Step        `json:"steps,omitempty"`
	Variables   []models.Variable     `json:"variables,omitempty"`
	Conditions  []models.Condition    `json:"conditions,omitempty"`
	Logic       *models.LogicOperator `json:"logic,omitempty"`
	Settings    *models.Settings      `json:"settings,omitempty"`
}

// TriggerWorkflowRequest fires an active workflow manually.
type TriggerWorkflowRequest struct {
	Payload map[string]any `json:"payload,omitempty"`
}

// StepTypeInfo describes one registered step type for the catalog endpoint.
type StepTypeInfo struct {
	Type   string         `json:"type"`
	Schema map[string]any `json:"schema,omitempty"`
}
