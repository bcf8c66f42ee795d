package models

import "errors"

// TriggerType names how a workflow run gets started.
type TriggerType string

const (
	TriggerTypeManual   TriggerType = "manual"   // Operator or API call
	TriggerTypeSchedule TriggerType = "schedule" // Recurring structured schedule
	TriggerTypeEvent    TriggerType = "event"    // Named internal event
	TriggerTypeWebhook  TriggerType = "webhook"  // Inbound call with payload, manual semantics
	TriggerTypeQueue    TriggerType = "queue"    // External queue consumer
)

var (
	ErrTriggerTypeUnknown   = errors.New("unknown trigger type")
	ErrTriggerScheduleEmpty = errors.New("schedule trigger requires a schedule")
	ErrTriggerEventEmpty    = errors.New("event trigger requires an event name")
	ErrTriggerQueueEmpty    = errors.New("queue trigger requires a queue name")
)

// TriggerSpec describes what starts a workflow. Trigger-level conditions
// are evaluated against the raw payload before an execution is created;
// a failed condition discards the firing.
type TriggerSpec struct {
	Type       TriggerType   `json:"type"                 validate:"required"`
	Schedule   *ScheduleSpec `json:"schedule,omitempty"`
	EventName  string        `json:"event_name,omitempty"`
	Queue      string        `json:"queue,omitempty"`
	Conditions []Condition   `json:"conditions,omitempty"`
	Logic      LogicOperator `json:"logic,omitempty"`
}

// Validate checks the spec carries the fields its type needs.
func (t *TriggerSpec) Validate() error {
	switch t.Type {
	case TriggerTypeManual, TriggerTypeWebhook:
		return nil
	case TriggerTypeSchedule:
		if t.Schedule == nil {
			return ErrTriggerScheduleEmpty
		}

		return t.Schedule.Validate()
	case TriggerTypeEvent:
		if t.EventName == "" {
			return ErrTriggerEventEmpty
		}

		return nil
	case TriggerTypeQueue:
		if t.Queue == "" {
			return ErrTriggerQueueEmpty
		}

		return nil
	default:
		return ErrTriggerTypeUnknown
	}
}
