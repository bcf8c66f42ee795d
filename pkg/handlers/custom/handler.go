// Package custom provides the custom step handler, dispatching to
// functions registered in code at startup. The step type stays closed:
// workflows name a function, and unknown names fail at activation.
package custom

import (
	"errors"
	"fmt"

	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

var (
	// ErrFunctionRequired is returned when the configuration names no function.
	ErrFunctionRequired = errors.New("missing or invalid 'function' in configuration")
	// ErrFunctionUnknown is returned when the named function is not registered.
	ErrFunctionUnknown = errors.New("unknown custom function")
)

// Factory creates custom handlers over a registry of named functions.
type Factory struct {
	functions map[string]protocol.HandlerFunc
}

func NewFactory(functions map[string]protocol.HandlerFunc) *Factory {
	if functions == nil {
		functions = make(map[string]protocol.HandlerFunc)
	}

	return &Factory{functions: functions}
}

// RegisterFunction adds or replaces a named function.
func (f *Factory) RegisterFunction(name string, fn protocol.HandlerFunc) {
	f.functions[name] = fn
}

func (f *Factory) Type() models.StepType {
	return models.StepTypeCustom
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	name, ok := config["function"].(string)
	if !ok || name == "" {
		return nil, ErrFunctionRequired
	}

	fn, ok := f.functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFunctionUnknown, name)
	}

	return fn, nil
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"function": map[string]any{
				"type":        "string",
				"description": "Name of a function registered at startup.",
			},
		},
		"required": []string{"function"},
	}
}
