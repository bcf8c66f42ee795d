package createrecord

import (
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

// Factory creates create-record handlers bound to one Store.
type Factory struct {
	store Store
}

func NewFactory(store Store) *Factory {
	if store == nil {
		store = NewMemoryStore()
	}

	return &Factory{store: store}
}

func (f *Factory) Type() models.StepType {
	return models.StepTypeCreateRecord
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	return NewHandler(config, f.store)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"collection": map[string]any{
				"type":        "string",
				"description": "Name of the collection the record is written to.",
				"examples":    []string{"orders", "audit_log"},
			},
			"data": map[string]any{
				"type":        "object",
				"description": "Record fields. Values support templating with trigger data and step results.",
			},
		},
		"required":             []string{"collection"},
		"additionalProperties": false,
	}
}
