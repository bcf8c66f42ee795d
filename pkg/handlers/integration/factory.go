package integration

import (
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

// Factory creates invoke-integration handlers over a registry of named
// invokers. Unknown integration names fail at workflow activation.
type Factory struct {
	invokers map[string]Invoker
}

func NewFactory(invokers map[string]Invoker) *Factory {
	if invokers == nil {
		invokers = make(map[string]Invoker)
	}

	return &Factory{invokers: invokers}
}

// RegisterInvoker adds or replaces the invoker for an integration name.
func (f *Factory) RegisterInvoker(name string, invoker Invoker) {
	f.invokers[name] = invoker
}

func (f *Factory) Type() models.StepType {
	return models.StepTypeInvokeIntegration
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	return NewHandler(config, f.invokers)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"integration": map[string]any{
				"type":        "string",
				"description": "Name of a registered integration.",
				"examples":    []string{"crm", "billing", "slack"},
			},
			"operation": map[string]any{
				"type":        "string",
				"description": "Operation the integration performs.",
				"examples":    []string{"create_contact", "charge", "post_message"},
			},
			"params": map[string]any{
				"type":        "object",
				"description": "Operation parameters. Values support templating.",
			},
		},
		"required":             []string{"integration", "operation"},
		"additionalProperties": false,
	}
}
