// Package schedule provides the recurring schedule trigger source.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

// Trigger fires on a structured recurring schedule. Each tick computes
// the next fire time from the spec, so daylight-saving transitions and
// month boundaries are handled by the spec's own calendar math instead
// of a fixed ticker interval.
type Trigger struct {
	spec     *models.ScheduleSpec
	callback protocol.TriggerCallback
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup

	// now is replaced in tests to pin fire-time computation.
	now func() time.Time
}

func NewTrigger(spec *models.ScheduleSpec, logger *slog.Logger) (*Trigger, error) {
	if spec == nil {
		return nil, errors.New("schedule trigger requires a schedule spec")
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &Trigger{
		spec:   spec,
		stopCh: make(chan struct{}),
		now:    time.Now,
		logger: logger.With(
			"module", "schedule_trigger",
			"frequency", string(spec.Frequency),
		),
	}, nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	t.callback = callback

	next := t.spec.NextAfter(t.now())
	t.logger.InfoContext(ctx, "Starting schedule trigger", "next_fire", next)

	t.wg.Add(1)

	go t.run(ctx, next)

	return nil
}

func (t *Trigger) run(ctx context.Context, next time.Time) {
	defer t.wg.Done()

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-t.stopCh:
			t.logger.InfoContext(ctx, "Schedule trigger stopped")

			return
		case <-ctx.Done():
			t.logger.InfoContext(ctx, "Context cancelled, stopping schedule trigger")

			return
		case firedAt := <-timer.C:
			payload := map[string]any{
				"scheduled_at": next.UTC().Format(time.RFC3339),
				"fired_at":     firedAt.UTC().Format(time.RFC3339),
			}

			if err := t.callback(ctx, payload); err != nil {
				t.logger.ErrorContext(ctx, "Error firing scheduled workflow", "error", err)
			}

			next = t.spec.NextAfter(t.now())
			timer.Reset(time.Until(next))

			t.logger.DebugContext(ctx, "Schedule re-armed", "next_fire", next)
		}
	}
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping schedule trigger")

	close(t.stopCh)
	t.wg.Wait()

	return nil
}
