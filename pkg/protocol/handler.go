// Package protocol defines the contracts between the engine and its
// pluggable step handlers and trigger sources.
package protocol

import (
	"context"
	"log/slog"

	"github.com/tasklab/automation/pkg/models"
)

// Handler executes one unit of work. Implementations must be free of
// shared mutable state across calls; anything they need (HTTP clients,
// connections) is constructed once by the factory and reused read-only.
// The input map is the step configuration with all templates already
// resolved. A non-nil error marks the attempt as failed and subject to
// the step's retry policy. Handlers are expected to respect ctx
// cancellation; the engine only bounds them with a timeout.
type Handler interface {
	Execute(ctx context.Context, input map[string]any, execCtx *models.ExecutionContext, logger *slog.Logger) (map[string]any, error)
}

// HandlerFactory builds handlers for one step type. Create is called at
// workflow activation, so configuration errors surface to the operator
// and never mid-run.
type HandlerFactory interface {
	// Type returns the step-type tag this factory serves.
	Type() models.StepType

	// Schema describes the step configuration as a JSON schema document.
	Schema() map[string]any

	// Create parses and validates the raw configuration into a handler.
	Create(config map[string]any) (Handler, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, input map[string]any, execCtx *models.ExecutionContext, logger *slog.Logger) (map[string]any, error)

func (f HandlerFunc) Execute(ctx context.Context, input map[string]any, execCtx *models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	return f(ctx, input, execCtx, logger)
}
