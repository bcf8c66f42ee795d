// Package integration provides the invoke-integration step handler.
package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tasklab/automation/pkg/models"
)

var (
	// ErrIntegrationRequired is returned when the configuration names no integration.
	ErrIntegrationRequired = errors.New("missing or invalid 'integration' in configuration")
	// ErrOperationRequired is returned when the configuration names no operation.
	ErrOperationRequired = errors.New("missing or invalid 'operation' in configuration")
	// ErrIntegrationUnknown is returned when no invoker is registered
	// for the named integration.
	ErrIntegrationUnknown = errors.New("unknown integration")
)

// Invoker performs one operation against an external integration.
type Invoker interface {
	Invoke(ctx context.Context, operation string, params map[string]any) (map[string]any, error)
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(ctx context.Context, operation string, params map[string]any) (map[string]any, error)

func (f InvokerFunc) Invoke(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	return f(ctx, operation, params)
}

type Handler struct {
	integration string
	operation   string
	params      map[string]any
	invoker     Invoker
}

func NewHandler(config map[string]any, invokers map[string]Invoker) (*Handler, error) {
	integration, ok := config["integration"].(string)
	if !ok || integration == "" {
		return nil, ErrIntegrationRequired
	}

	operation, ok := config["operation"].(string)
	if !ok || operation == "" {
		return nil, ErrOperationRequired
	}

	invoker, ok := invokers[integration]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIntegrationUnknown, integration)
	}

	params, _ := config["params"].(map[string]any)

	return &Handler{
		integration: integration,
		operation:   operation,
		params:      params,
		invoker:     invoker,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input map[string]any, _ *models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With(
		"module", "invoke_integration_handler",
		"integration", h.integration,
		"operation", h.operation,
	)

	params := h.params
	if resolved, ok := input["params"].(map[string]any); ok {
		params = resolved
	}

	logger.InfoContext(ctx, "Invoking integration")

	output, err := h.invoker.Invoke(ctx, h.operation, params)
	if err != nil {
		return nil, fmt.Errorf("integration %s operation %s failed: %w", h.integration, h.operation, err)
	}

	logger.InfoContext(ctx, "Integration invocation completed")

	return output, nil
}
