package models

import (
	"time"
)

// ExecutionStatus represents the lifecycle state of one workflow run.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
	ExecutionStatusTimedOut  ExecutionStatus = "timed-out"
)

// Terminal reports whether the status is final.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed,
		ExecutionStatusCancelled, ExecutionStatusTimedOut:
		return true
	}

	return false
}

// StepStatus represents the lifecycle state of one step attempt group.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusTimedOut  StepStatus = "timed-out"
)

// LogEntry is one timestamped, leveled line in the execution log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	StepID    string    `json:"step_id,omitempty"`
}

// StepExecution records one step attempt group within a run.
type StepExecution struct {
	ID         string         `json:"id"`
	StepID     string         `json:"step_id"`
	Status     StepStatus     `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Input      map[string]any `json:"input,omitempty"` // Resolved step configuration
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	RetryCount int            `json:"retry_count"` // Attempts performed, never above the policy's max
}

// Execution is one run of a workflow definition.
type Execution struct {
	ID              string           `json:"id"`
	WorkflowID      string           `json:"workflow_id"`
	WorkflowVersion int              `json:"workflow_version"`
	Status          ExecutionStatus  `json:"status"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
	TriggeredBy     string           `json:"triggered_by,omitempty"` // Actor or trigger source
	TriggerPayload  map[string]any   `json:"trigger_payload,omitempty"`
	Context         *ExecutionContext `json:"context,omitempty"`
	Steps           []*StepExecution `json:"steps,omitempty"`
	Error           string           `json:"error,omitempty"`
	Log             []LogEntry       `json:"log,omitempty"`
}

// AppendLog adds a timestamped entry to the execution log.
func (e *Execution) AppendLog(level, stepID, message string) {
	e.Log = append(e.Log, LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		StepID:    stepID,
	})
}

// Finish stamps a terminal status and the end time. It is a no-op when
// the execution is already terminal: terminal statuses are final.
func (e *Execution) Finish(status ExecutionStatus) {
	if e.Status.Terminal() {
		return
	}

	now := time.Now().UTC()
	e.Status = status
	e.FinishedAt = &now
}

// Duration returns the wall-clock span of the run, zero while in flight.
func (e *Execution) Duration() time.Duration {
	if e.FinishedAt == nil {
		return 0
	}

	return e.FinishedAt.Sub(e.StartedAt)
}
