package approval

import (
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

// Factory creates require-approval handlers bound to one Approver.
type Factory struct {
	approver Approver
}

func NewFactory(approver Approver) *Factory {
	if approver == nil {
		approver = AutoApprover{}
	}

	return &Factory{approver: approver}
}

func (f *Factory) Type() models.StepType {
	return models.StepTypeRequireApproval
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	return NewHandler(config, f.approver)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"approver_ids": map[string]any{
				"type":        "array",
				"description": "Identifiers of the people or roles that may approve.",
				"items":       map[string]any{"type": "string"},
			},
			"message": map[string]any{
				"type":        "string",
				"description": "What is being approved. Supports templating.",
				"examples": []string{
					"Approve refund of {{trigger.amount}} for order {{trigger.order_id}}",
				},
			},
		},
		"additionalProperties": false,
	}
}
