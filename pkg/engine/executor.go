package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tasklab/automation/pkg/conditions"
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
	"github.com/tasklab/automation/pkg/registry"
	"github.com/tasklab/automation/pkg/template"
)

const defaultStepTimeout = 30 * time.Second

// ErrStepTimeout marks an attempt that exceeded the per-attempt timeout.
var ErrStepTimeout = errors.New("timeout")

// StepExecutor runs one step to completion: condition gating, template
// resolution, handler invocation under a per-attempt timeout, and
// retry with backoff.
type StepExecutor struct {
	registry *registry.Registry
	logger   *slog.Logger

	// sleep waits between retry attempts and returns early with the
	// context error when the run is cancelled or times out. Tests
	// replace it to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewStepExecutor(reg *registry.Registry, logger *slog.Logger) *StepExecutor {
	return &StepExecutor{
		registry: reg,
		logger:   logger,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes one step and appends its StepExecution record to the
// execution. The returned record's status is one of completed, failed,
// skipped or timed-out.
func (x *StepExecutor) Run(ctx context.Context, step *models.Step, execution *models.Execution, workflowDefault models.RetryPolicy) *models.StepExecution {
	logger := x.logger.With(
		"execution_id", execution.ID,
		"step_id", step.ID,
		"step_type", string(step.Type),
	)

	record := &models.StepExecution{
		ID:        "stepexec-" + uuid.New().String()[:8],
		StepID:    step.ID,
		Status:    models.StepStatusPending,
		StartedAt: time.Now().UTC(),
	}
	execution.Steps = append(execution.Steps, record)

	execCtx := execution.Context
	execCtx.CurrentStepID = step.ID

	if !step.Enabled {
		x.finish(record, execution, models.StepStatusSkipped, "step disabled, skipped")

		return record
	}

	if !conditions.Evaluate(step.Conditions, step.Logic, execCtx) {
		x.finish(record, execution, models.StepStatusSkipped, "step conditions not met, skipped")

		return record
	}

	record.Input = template.ResolveConfig(step.Config, execCtx, logger)

	handler, err := x.registry.CreateHandler(step.Type, record.Input)
	if err != nil {
		record.Error = err.Error()
		x.finish(record, execution, models.StepStatusFailed, "handler creation failed: "+err.Error())

		return record
	}

	record.Status = models.StepStatusRunning
	execution.AppendLog("info", step.ID, fmt.Sprintf("step %s running", step.Name))

	policy := step.EffectiveRetry(workflowDefault)
	attempts := policy.Attempts()

	timeout := defaultStepTimeout
	if step.TimeoutSeconds > 0 {
		timeout = time.Duration(step.TimeoutSeconds) * time.Second
	}

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		record.RetryCount = attempt + 1

		output, err := x.attempt(ctx, handler, record.Input, execCtx, timeout, logger)
		if err == nil {
			record.Output = output
			execCtx.RecordStepResult(step.ID, output)
			x.finish(record, execution, models.StepStatusCompleted, fmt.Sprintf("step %s completed (attempt %d)", step.Name, attempt+1))

			return record
		}

		lastErr = err
		execution.AppendLog("warn", step.ID, fmt.Sprintf("attempt %d/%d failed: %s", attempt+1, attempts, err))

		if attempt+1 >= attempts {
			break
		}

		delay := policy.BackoffDelay(attempt)
		execution.AppendLog("debug", step.ID, fmt.Sprintf("backing off %s before retry", delay))

		if err := x.sleep(ctx, delay); err != nil {
			// Run cancelled or timed out during backoff, stop retrying.
			lastErr = err

			break
		}
	}

	record.Error = lastErr.Error()

	status := models.StepStatusFailed
	if errors.Is(lastErr, ErrStepTimeout) {
		status = models.StepStatusTimedOut
	}

	x.finish(record, execution, status, fmt.Sprintf("step %s %s: %s", step.Name, status, lastErr))

	return record
}

// attempt races the handler call against the per-attempt timeout. The
// handler receives the deadline through ctx; one that ignores it keeps
// running in its goroutine, but the attempt is still accounted as a
// timeout failure.
func (x *StepExecutor) attempt(ctx context.Context, handler protocol.Handler, input map[string]any, execCtx *models.ExecutionContext, timeout time.Duration, logger *slog.Logger) (map[string]any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		output map[string]any
		err    error
	}

	done := make(chan result, 1)

	go func() {
		output, err := handler.Execute(attemptCtx, input, execCtx, logger)
		done <- result{output: output, err: err}
	}()

	select {
	case r := <-done:
		return r.output, r.err
	case <-attemptCtx.Done():
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrStepTimeout
		}

		return nil, attemptCtx.Err()
	}
}

func (x *StepExecutor) finish(record *models.StepExecution, execution *models.Execution, status models.StepStatus, message string) {
	now := time.Now().UTC()
	record.Status = status
	record.FinishedAt = &now

	level := "info"

	switch status {
	case models.StepStatusFailed, models.StepStatusTimedOut:
		level = "error"
	}

	execution.AppendLog(level, record.StepID, message)
}
