package protocol

import "context"

// TriggerCallback is invoked by a trigger source when it fires. The
// payload becomes the trigger data of the resulting execution.
type TriggerCallback func(ctx context.Context, payload map[string]any) error

// Trigger is a long-lived source of workflow firings. Start must not
// block; Stop must release every resource the trigger holds, including
// subscriptions, so that disarming a workflow leaks nothing.
type Trigger interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
}
