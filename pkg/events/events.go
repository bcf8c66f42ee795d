// Package events defines the event types published on the bus for
// execution lifecycle notifications and internal signals.
package events

import (
	"time"

	"github.com/tasklab/automation/pkg/models"
)

type EventType string

// Topic is the bus topic all engine events travel on.
const Topic = "automation.events"

const EventKeyMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionTimedOutEvent  EventType = "execution.timed_out"
	ExecutionCancelledEvent EventType = "execution.cancelled"

	// SignalEvent carries a named internal event for event-type triggers.
	SignalEvent EventType = "signal"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

// ExecutionFinished is the shared shape of every terminal notification.
type ExecutionFinished struct {
	BaseEvent

	ExecutionID string                 `json:"execution_id"`
	Status      models.ExecutionStatus `json:"status"`
	Error       string                 `json:"error,omitempty"`
	Duration    time.Duration          `json:"duration"`
}

type ExecutionCompleted struct{ ExecutionFinished }

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionFailed struct{ ExecutionFinished }

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

type ExecutionTimedOut struct{ ExecutionFinished }

func (e ExecutionTimedOut) GetType() EventType { return ExecutionTimedOutEvent }

type ExecutionCancelled struct{ ExecutionFinished }

func (e ExecutionCancelled) GetType() EventType { return ExecutionCancelledEvent }

// Signal is a named internal event. Any workflow whose event trigger
// subscribes to Name is fired with Payload as trigger data.
type Signal struct {
	BaseEvent

	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (e Signal) GetType() EventType { return SignalEvent }
