// Package wait provides the wait step handler.
package wait

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tasklab/automation/pkg/models"
)

// ErrDurationRequired is returned when the configuration carries no
// positive duration.
var ErrDurationRequired = errors.New("missing or invalid 'duration_seconds' in configuration")

// Handler pauses the workflow for a fixed duration. The pause is
// bounded by the step timeout and the run deadline through ctx, so a
// wait longer than either fails as a timeout rather than stalling the
// engine.
type Handler struct {
	duration time.Duration
}

func NewHandler(config map[string]any) (*Handler, error) {
	seconds, ok := toSeconds(config["duration_seconds"])
	if !ok || seconds <= 0 {
		return nil, ErrDurationRequired
	}

	return &Handler{duration: time.Duration(seconds * float64(time.Second))}, nil
}

func toSeconds(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}

	return 0, false
}

func (h *Handler) Execute(ctx context.Context, _ map[string]any, _ *models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger.DebugContext(ctx, "Waiting", "module", "wait_handler", "duration", h.duration)

	timer := time.NewTimer(h.duration)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return map[string]any{
		"waited_seconds": h.duration.Seconds(),
	}, nil
}
