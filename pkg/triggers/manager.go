// Package triggers wires trigger sources to engine invocation. The
// manager owns all trigger registration explicitly: arming a workflow
// creates its source, disarming stops it and removes every
// subscription, so nothing leaks through ambient listeners.
package triggers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	redis "github.com/redis/go-redis/v9"

	"github.com/tasklab/automation/pkg/conditions"
	"github.com/tasklab/automation/pkg/eventbus"
	"github.com/tasklab/automation/pkg/events"
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
	"github.com/tasklab/automation/pkg/triggers/queue"
	"github.com/tasklab/automation/pkg/triggers/schedule"
)

var (
	// ErrWorkflowNotArmed is returned when firing a workflow the
	// manager does not hold.
	ErrWorkflowNotArmed = errors.New("workflow not armed")
	// ErrFiringDiscarded is returned when trigger-level conditions
	// reject a firing. Not an error condition for trigger sources.
	ErrFiringDiscarded = errors.New("trigger firing discarded by conditions")
	// ErrRedisNotConfigured is returned when arming a queue trigger
	// without a Redis client.
	ErrRedisNotConfigured = errors.New("queue triggers require a redis client")
)

// Submitter is the slice of the engine the manager needs.
type Submitter interface {
	Submit(ctx context.Context, workflowID, triggeredBy string, payload map[string]any) (*models.Execution, error)
}

type armedWorkflow struct {
	workflow *models.Workflow
	source   protocol.Trigger // nil for manual, webhook and event triggers
}

// Manager arms and disarms workflow triggers and gates every firing
// through trigger-level conditions before the engine sees it.
type Manager struct {
	engine Submitter
	bus    eventbus.EventBus
	redis  redis.UniversalClient
	logger *slog.Logger

	mu      sync.Mutex
	armed   map[string]*armedWorkflow
	byEvent map[string]map[string]struct{} // event name -> workflow ids
}

func NewManager(engine Submitter, bus eventbus.EventBus, redisClient redis.UniversalClient, logger *slog.Logger) *Manager {
	m := &Manager{
		engine:  engine,
		bus:     bus,
		redis:   redisClient,
		logger:  logger.With("module", "trigger_manager"),
		armed:   make(map[string]*armedWorkflow),
		byEvent: make(map[string]map[string]struct{}),
	}

	if bus != nil {
		bus.Handle(events.SignalEvent, m.onSignal)
	}

	return m
}

// Arm wires the workflow's trigger. Re-arming an already armed workflow
// replaces its source.
func (m *Manager) Arm(ctx context.Context, workflow *models.Workflow) error {
	if workflow.Trigger == nil {
		return models.ErrNoTrigger
	}

	if err := workflow.Trigger.Validate(); err != nil {
		return err
	}

	if err := m.Disarm(ctx, workflow.ID); err != nil && !errors.Is(err, ErrWorkflowNotArmed) {
		return err
	}

	armed := &armedWorkflow{workflow: workflow}
	spec := workflow.Trigger

	switch spec.Type {
	case models.TriggerTypeSchedule:
		source, err := schedule.NewTrigger(spec.Schedule, m.logger)
		if err != nil {
			return fmt.Errorf("failed to build schedule trigger for %s: %w", workflow.ID, err)
		}

		if err := source.Start(ctx, m.callback(workflow.ID, "schedule")); err != nil {
			return fmt.Errorf("failed to start schedule trigger for %s: %w", workflow.ID, err)
		}

		armed.source = source

	case models.TriggerTypeQueue:
		if m.redis == nil {
			return ErrRedisNotConfigured
		}

		source, err := queue.NewTrigger(m.redis, spec.Queue, m.logger)
		if err != nil {
			return fmt.Errorf("failed to build queue trigger for %s: %w", workflow.ID, err)
		}

		if err := source.Start(ctx, m.callback(workflow.ID, "queue")); err != nil {
			return fmt.Errorf("failed to start queue trigger for %s: %w", workflow.ID, err)
		}

		armed.source = source

	case models.TriggerTypeEvent:
		m.mu.Lock()
		subscribers, ok := m.byEvent[spec.EventName]
		if !ok {
			subscribers = make(map[string]struct{})
			m.byEvent[spec.EventName] = subscribers
		}
		subscribers[workflow.ID] = struct{}{}
		m.mu.Unlock()

	case models.TriggerTypeManual, models.TriggerTypeWebhook:
		// Fired directly through Fire, nothing to start.
	}

	m.mu.Lock()
	m.armed[workflow.ID] = armed
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "workflow armed",
		"workflow_id", workflow.ID,
		"trigger_type", string(spec.Type),
	)

	return nil
}

// Disarm stops the workflow's trigger source and removes its event
// subscriptions.
func (m *Manager) Disarm(ctx context.Context, workflowID string) error {
	m.mu.Lock()
	armed, ok := m.armed[workflowID]
	if ok {
		delete(m.armed, workflowID)

		for name, subscribers := range m.byEvent {
			delete(subscribers, workflowID)

			if len(subscribers) == 0 {
				delete(m.byEvent, name)
			}
		}
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrWorkflowNotArmed, workflowID)
	}

	if armed.source != nil {
		if err := armed.source.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop trigger for %s: %w", workflowID, err)
		}
	}

	m.logger.InfoContext(ctx, "workflow disarmed", "workflow_id", workflowID)

	return nil
}

// Fire evaluates the trigger-level and workflow-level conditions against
// the raw payload and submits a run. A rejected firing returns
// ErrFiringDiscarded; trigger sources treat that as a non-event.
func (m *Manager) Fire(ctx context.Context, workflowID, source string, payload map[string]any) (*models.Execution, error) {
	m.mu.Lock()
	armed, ok := m.armed[workflowID]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotArmed, workflowID)
	}

	workflow := armed.workflow
	spec := workflow.Trigger

	if !conditions.EvaluatePayload(spec.Conditions, spec.Logic, payload) ||
		!conditions.EvaluatePayload(workflow.Conditions, workflow.Logic, payload) {
		m.logger.DebugContext(ctx, "trigger firing discarded",
			"workflow_id", workflowID,
			"source", source,
		)

		return nil, ErrFiringDiscarded
	}

	return m.engine.Submit(ctx, workflowID, source, payload)
}

// callback adapts Fire to the trigger source contract. Condition
// discards are swallowed: they are expected, not source errors.
func (m *Manager) callback(workflowID, source string) protocol.TriggerCallback {
	return func(ctx context.Context, payload map[string]any) error {
		_, err := m.Fire(ctx, workflowID, source, payload)
		if errors.Is(err, ErrFiringDiscarded) {
			return nil
		}

		return err
	}
}

// onSignal routes a named internal event to every armed workflow whose
// event trigger subscribes to it.
func (m *Manager) onSignal(ctx context.Context, event any) error {
	signal, ok := event.(*events.Signal)
	if !ok {
		return nil
	}

	m.mu.Lock()
	ids := make([]string, 0)
	for id := range m.byEvent[signal.Name] {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, workflowID := range ids {
		if _, err := m.Fire(ctx, workflowID, "event:"+signal.Name, signal.Payload); err != nil &&
			!errors.Is(err, ErrFiringDiscarded) {
			m.logger.ErrorContext(ctx, "failed to fire event trigger",
				"workflow_id", workflowID,
				"event", signal.Name,
				"error", err,
			)
		}
	}

	return nil
}

// Shutdown disarms everything, stopping all trigger sources.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.armed))
	for id := range m.armed {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.Disarm(ctx, id); err != nil {
			m.logger.ErrorContext(ctx, "failed to disarm workflow", "workflow_id", id, "error", err)
		}
	}
}
