package wait

import (
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Type() models.StepType {
	return models.StepTypeWait
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	return NewHandler(config)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration_seconds": map[string]any{
				"type":             "number",
				"description":      "How long to pause before the next step. Bounded by the step timeout.",
				"exclusiveMinimum": 0,
				"examples":         []float64{5, 30, 0.5},
			},
		},
		"required":             []string{"duration_seconds"},
		"additionalProperties": false,
	}
}
