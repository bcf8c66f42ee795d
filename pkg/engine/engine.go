package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tasklab/automation/pkg/eventbus"
	"github.com/tasklab/automation/pkg/events"
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/otelhelper"
	"github.com/tasklab/automation/pkg/persistence"
)

const defaultPollInterval = time.Second

var (
	// ErrWorkflowNotActive is returned when a run is submitted for a
	// workflow absent from the active store.
	ErrWorkflowNotActive = errors.New("workflow not active")
	// ErrExecutionNotRunning is returned when cancelling an execution
	// the engine does not know about.
	ErrExecutionNotRunning = errors.New("execution not pending or running")
)

// Engine owns the run queue and drives executions through their state
// machine. Within one execution, steps run strictly sequentially;
// across executions of the same workflow, concurrency is bounded by the
// gate; different workflows are fully independent.
type Engine struct {
	store        *WorkflowStore
	gate         *Gate
	queue        *RunQueue
	executor     *StepExecutor
	persistence  persistence.Persistence
	bus          eventbus.EventPublisher
	logger       *slog.Logger
	tracer       trace.Tracer
	pollInterval time.Duration

	mu        sync.Mutex
	cancelled map[string]bool // Execution ids with a pending cancel request
}

// Option tweaks engine construction.
type Option func(*Engine)

func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

func NewEngine(store *WorkflowStore, executor *StepExecutor, db persistence.Persistence, bus eventbus.EventPublisher, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		gate:         NewGate(),
		queue:        NewRunQueue(),
		executor:     executor,
		persistence:  db,
		bus:          bus,
		logger:       logger.With("module", "engine"),
		pollInterval: defaultPollInterval,
		cancelled:    make(map[string]bool),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Gate exposes the concurrency gate, mainly for observability.
func (e *Engine) Gate() *Gate { return e.gate }

// QueueDepth reports how many executions are waiting.
func (e *Engine) QueueDepth() int { return e.queue.Len() }

// Submit creates a pending execution for an active workflow and
// enqueues it. The run starts when the polling loop dequeues it and the
// concurrency gate admits it.
func (e *Engine) Submit(ctx context.Context, workflowID, triggeredBy string, payload map[string]any) (*models.Execution, error) {
	workflow, ok := e.store.Get(workflowID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotActive, workflowID)
	}

	executionID := "exec-" + uuid.New().String()[:8]

	execution := &models.Execution{
		ID:              executionID,
		WorkflowID:      workflow.ID,
		WorkflowVersion: workflow.Version,
		Status:          models.ExecutionStatusPending,
		StartedAt:       time.Now().UTC(),
		TriggeredBy:     triggeredBy,
		TriggerPayload:  payload,
		Context:         models.NewExecutionContext(executionID, workflow.ID, workflow.SeedVariables(), payload),
	}
	execution.AppendLog("info", "", fmt.Sprintf("execution created by %s", triggeredBy))

	e.persistBestEffort(ctx, execution, true)
	e.queue.Enqueue(execution)

	e.logger.InfoContext(ctx, "execution enqueued",
		"workflow_id", workflow.ID,
		"execution_id", execution.ID,
		"triggered_by", triggeredBy,
	)

	return execution, nil
}

// Cancel requests cooperative cancellation. A pending execution is
// removed from the queue immediately; a running one stops at the next
// step boundary. An in-flight handler call is never interrupted.
func (e *Engine) Cancel(ctx context.Context, executionID string) error {
	if execution, ok := e.queue.Remove(executionID); ok {
		execution.AppendLog("info", "", "execution cancelled before start")
		execution.Finish(models.ExecutionStatusCancelled)
		e.persistBestEffort(ctx, execution, false)
		e.emitTerminal(ctx, execution)

		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, running := e.cancelled[executionID]; !running {
		return fmt.Errorf("%w: %s", ErrExecutionNotRunning, executionID)
	}

	e.cancelled[executionID] = true

	return nil
}

// Start drains the run queue until the context is done: every poll
// interval it pops at most one pending execution and drives it to
// completion before returning to the queue.
func (e *Engine) Start(ctx context.Context) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	e.logger.InfoContext(ctx, "engine started", "poll_interval", e.pollInterval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped")

			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick performs one drain step: dequeue, admit, run. Exposed so tests
// and embedders can drive the queue without the polling goroutine.
func (e *Engine) Tick(ctx context.Context) {
	execution, ok := e.queue.Dequeue()
	if !ok {
		return
	}

	workflow, active := e.store.Get(execution.WorkflowID)
	if !active {
		execution.AppendLog("warn", "", "workflow deactivated before run started")
		execution.Error = "workflow no longer active"
		execution.Finish(models.ExecutionStatusCancelled)
		e.persistBestEffort(ctx, execution, false)
		e.emitTerminal(ctx, execution)

		return
	}

	if !e.gate.Admit(workflow.ID, workflow.Settings.MaxConcurrentExecutions) {
		e.queue.Requeue(execution)

		return
	}

	e.run(ctx, workflow, execution)
}

func (e *Engine) run(ctx context.Context, workflow *models.Workflow, execution *models.Execution) {
	defer e.gate.Release(workflow.ID)

	e.mu.Lock()
	e.cancelled[execution.ID] = false
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.cancelled, execution.ID)
		e.mu.Unlock()
	}()

	logger := e.logger.With(
		"workflow_id", workflow.ID,
		"execution_id", execution.ID,
	)

	runCtx := ctx

	var span trace.Span

	if e.tracer != nil {
		runCtx, span = otelhelper.StartSpan(runCtx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
			attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		)
		defer span.End()
	}

	if workflow.Settings.ExecutionTimeoutSeconds > 0 {
		var cancel context.CancelFunc

		deadline := time.Now().Add(time.Duration(workflow.Settings.ExecutionTimeoutSeconds) * time.Second)
		runCtx, cancel = context.WithDeadline(runCtx, deadline)

		defer cancel()
	}

	execution.Status = models.ExecutionStatusRunning
	execution.StartedAt = time.Now().UTC()
	execution.AppendLog("info", "", "execution running")
	e.persistBestEffort(runCtx, execution, false)
	e.emitStarted(runCtx, execution)

	logger.InfoContext(runCtx, "execution started")

	ordered := workflow.OrderedSteps()
	current := firstEnabled(ordered)

	for current != nil {
		// Cancellation and the execution-level timeout are honored at
		// step boundaries only; an in-flight handler is never interrupted.
		if e.cancelRequested(execution.ID) {
			execution.AppendLog("info", "", "cancellation requested, stopping")
			execution.Finish(models.ExecutionStatusCancelled)

			break
		}

		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			execution.AppendLog("error", "", "execution timeout exceeded")
			execution.Error = "execution timeout exceeded"
			execution.Finish(models.ExecutionStatusTimedOut)

			break
		}

		record := e.executor.Run(runCtx, current, execution, workflow.Settings.DefaultRetry)
		e.persistBestEffort(runCtx, execution, false)

		// The execution-level timeout outranks the step outcome: it is
		// its own terminal status, independent of what the step reported.
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			execution.AppendLog("error", "", "execution timeout exceeded")
			execution.Error = "execution timeout exceeded"
			execution.Finish(models.ExecutionStatusTimedOut)

			break
		}

		next, terminal := e.nextStep(workflow, ordered, current, record, execution, logger)
		if terminal {
			break
		}

		current = next
	}

	if !execution.Status.Terminal() {
		execution.AppendLog("info", "", "all steps processed")
		execution.Finish(models.ExecutionStatusCompleted)
	}

	e.persistBestEffort(context.WithoutCancel(runCtx), execution, false)
	e.emitTerminal(context.WithoutCancel(runCtx), execution)

	if span != nil && execution.Error != "" {
		otelhelper.SetError(span, errors.New(execution.Error))
	}

	logger.InfoContext(runCtx, "execution finished",
		"status", string(execution.Status),
		"duration", execution.Duration(),
	)
}

// nextStep applies the branching rules after one step outcome. The
// second return is true when the run reached a terminal decision.
func (e *Engine) nextStep(workflow *models.Workflow, ordered []*models.Step, step *models.Step, record *models.StepExecution, execution *models.Execution, logger *slog.Logger) (*models.Step, bool) {
	failed := record.Status == models.StepStatusFailed || record.Status == models.StepStatusTimedOut

	if failed {
		// Under continue the run always proceeds in declared order; the
		// on-failure branch applies only to the stop and rollback strategies.
		if workflow.Settings.ErrorStrategy == models.ErrorStrategyContinue {
			execution.AppendLog("warn", step.ID, "step failed, continuing in declared order")
			logger.Warn("step failed, continuing", "step_id", step.ID)

			return declaredOrderNext(ordered, step), false
		}

		if step.OnFailure != nil && *step.OnFailure != "" {
			next, _ := workflow.StepByID(*step.OnFailure)
			execution.AppendLog("info", step.ID, "following on-failure branch to "+*step.OnFailure)

			return next, false
		}

		if workflow.Settings.ErrorStrategy == models.ErrorStrategyRollback {
			// Compensating actions are not implemented; accepted and
			// treated as stop.
			execution.AppendLog("warn", step.ID, "rollback strategy not supported, stopping run")
		}

		execution.Error = record.Error
		execution.AppendLog("error", step.ID, "step failed, aborting run")
		execution.Finish(models.ExecutionStatusFailed)

		return nil, true
	}

	// Completed and skipped steps follow the success chain.
	if step.OnSuccess != nil && *step.OnSuccess != "" {
		next, _ := workflow.StepByID(*step.OnSuccess)

		return next, false
	}

	return declaredOrderNext(ordered, step), false
}

func firstEnabled(ordered []*models.Step) *models.Step {
	for _, step := range ordered {
		if step.Enabled {
			return step
		}
	}

	return nil
}

// declaredOrderNext finds the next enabled step after the current one in
// declared order.
func declaredOrderNext(ordered []*models.Step, current *models.Step) *models.Step {
	for i, step := range ordered {
		if step.ID != current.ID {
			continue
		}

		for _, candidate := range ordered[i+1:] {
			if candidate.Enabled {
				return candidate
			}
		}

		return nil
	}

	return nil
}

func (e *Engine) cancelRequested(executionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cancelled[executionID]
}

// persistBestEffort saves the execution without letting a storage
// failure abort a run in progress.
func (e *Engine) persistBestEffort(ctx context.Context, execution *models.Execution, create bool) {
	if e.persistence == nil {
		return
	}

	var err error
	if create {
		err = e.persistence.SaveExecution(ctx, execution)
	} else {
		err = e.persistence.UpdateExecution(ctx, execution)
	}

	if err != nil {
		e.logger.ErrorContext(ctx, "failed to persist execution",
			"execution_id", execution.ID,
			"error", err,
		)
	}
}

func (e *Engine) emitStarted(ctx context.Context, execution *models.Execution) {
	if e.bus == nil {
		return
	}

	event := events.ExecutionStarted{
		BaseEvent: events.BaseEvent{
			ID:         uuid.New().String(),
			Type:       events.ExecutionStartedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: execution.WorkflowID,
		},
		ExecutionID: execution.ID,
		TriggeredBy: execution.TriggeredBy,
	}

	if err := e.bus.Publish(ctx, execution.WorkflowID, event); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish execution started", "error", err)
	}
}

func (e *Engine) emitTerminal(ctx context.Context, execution *models.Execution) {
	if e.bus == nil {
		return
	}

	finished := events.ExecutionFinished{
		BaseEvent: events.BaseEvent{
			ID:         uuid.New().String(),
			Timestamp:  time.Now().UTC(),
			WorkflowID: execution.WorkflowID,
		},
		ExecutionID: execution.ID,
		Status:      execution.Status,
		Error:       execution.Error,
		Duration:    execution.Duration(),
	}

	var event eventbus.Event

	switch execution.Status {
	case models.ExecutionStatusFailed:
		finished.BaseEvent.Type = events.ExecutionFailedEvent
		event = events.ExecutionFailed{ExecutionFinished: finished}
	case models.ExecutionStatusTimedOut:
		finished.BaseEvent.Type = events.ExecutionTimedOutEvent
		event = events.ExecutionTimedOut{ExecutionFinished: finished}
	case models.ExecutionStatusCancelled:
		finished.BaseEvent.Type = events.ExecutionCancelledEvent
		event = events.ExecutionCancelled{ExecutionFinished: finished}
	default:
		finished.BaseEvent.Type = events.ExecutionCompletedEvent
		event = events.ExecutionCompleted{ExecutionFinished: finished}
	}

	if err := e.bus.Publish(ctx, execution.WorkflowID, event); err != nil {
		e.logger.ErrorContext(ctx, "failed to publish execution finished", "error", err)
	}
}
