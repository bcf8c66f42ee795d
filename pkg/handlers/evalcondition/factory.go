package evalcondition

import (
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() models.StepType {
	return models.StepTypeEvaluateCondition
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	return NewHandler(config)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"conditions": map[string]any{
				"type":        "array",
				"description": "Conditions to evaluate against the execution context.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"field": map[string]any{
							"type":        "string",
							"description": "Context field to inspect, e.g. trigger.amount or lookup.status.",
						},
						"operator": map[string]any{
							"type": "string",
							"enum": []string{
								"equals", "not-equals", "greater", "less",
								"greater-or-equal", "less-or-equal", "contains",
								"not-contains", "in", "not-in", "exists", "not-exists",
							},
						},
						"value": map[string]any{
							"description": "Comparison operand. Ignored by exists and not-exists.",
						},
					},
					"required": []string{"field", "operator"},
				},
				"minItems": 1,
			},
			"logic": map[string]any{
				"type":        "string",
				"description": "How condition outcomes combine.",
				"default":     "and",
				"enum":        []string{"and", "or"},
			},
		},
		"required":             []string{"conditions"},
		"additionalProperties": false,
	}
}
