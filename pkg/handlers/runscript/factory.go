package runscript

import (
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() models.StepType {
	return models.StepTypeRunScript
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	return NewHandler(config)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"outputs": map[string]any{
				"type":        "object",
				"description": "Named outputs. Each value is a template over trigger data, variables and step results.",
				"examples": []map[string]any{
					{
						"full_name": "{{trigger.first_name}} {{trigger.last_name}}",
						"total":     "{{pricing.total}}",
					},
				},
			},
			"expression": map[string]any{
				"type":        "string",
				"format":      "code",
				"description": "Single template expression. The resolved value is published as 'result'.",
				"examples":    []string{"{{lookup.user.email}}"},
			},
		},
		"additionalProperties": false,
	}
}
