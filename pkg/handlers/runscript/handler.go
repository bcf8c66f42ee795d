// Package runscript provides the run-script step handler. Scripts are
// declarative output mappings: each output value is a template over the
// execution context, resolved before the handler runs, so the handler's
// job is shaping the resolved values into a step result.
package runscript

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tasklab/automation/pkg/models"
)

// ErrScriptRequired is returned when the configuration carries neither
// an outputs mapping nor an expression.
var ErrScriptRequired = errors.New("configuration requires 'outputs' or 'expression'")

type Handler struct {
	outputs    map[string]any
	expression any
}

func NewHandler(config map[string]any) (*Handler, error) {
	outputs, _ := config["outputs"].(map[string]any)
	expression, hasExpression := config["expression"]

	if outputs == nil && !hasExpression {
		return nil, ErrScriptRequired
	}

	return &Handler{outputs: outputs, expression: expression}, nil
}

func (h *Handler) Execute(ctx context.Context, input map[string]any, _ *models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("module", "run_script_handler")

	// The executor resolves templates in the step config, so the input
	// carries final values. Prefer it over the raw construction config.
	if outputs, ok := input["outputs"].(map[string]any); ok {
		logger.DebugContext(ctx, "Script outputs resolved", "keys", len(outputs))

		return outputs, nil
	}

	if h.outputs != nil {
		return h.outputs, nil
	}

	expression := h.expression
	if resolved, ok := input["expression"]; ok {
		expression = resolved
	}

	logger.DebugContext(ctx, "Script expression resolved")

	return map[string]any{"result": expression}, nil
}
