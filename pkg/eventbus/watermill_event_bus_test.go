package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklab/automation/pkg/channels/gochannel"
	"github.com/tasklab/automation/pkg/eventbus"
	"github.com/tasklab/automation/pkg/events"
)

func newTestBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub := gochannel.CreateTestChannel(watermill.NopLogger{})
	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.Signal, 1)

	bus.Handle(events.SignalEvent, func(_ context.Context, event any) error {
		signal, ok := event.(*events.Signal)
		require.True(t, ok)

		received <- signal

		return nil
	})

	require.NoError(t, bus.Subscribe(ctx))

	signal := events.Signal{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.SignalEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: "wf-1",
		},
		Name:    "order.created",
		Payload: map[string]any{"order_id": "ord-42"},
	}

	require.NoError(t, bus.Publish(ctx, "wf-1", signal))

	select {
	case got := <-received:
		assert.Equal(t, "order.created", got.Name)
		assert.Equal(t, "ord-42", got.Payload["order_id"])
		assert.Equal(t, "wf-1", got.WorkflowID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal event")
	}
}

func TestWatermillEventBus_UnhandledEventTypeIsAcked(t *testing.T) {
	bus := newTestBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan any, 2)

	// Only signal events have a handler; lifecycle events pass through.
	bus.Handle(events.SignalEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})

	require.NoError(t, bus.Subscribe(ctx))

	started := events.ExecutionStarted{
		BaseEvent:   events.BaseEvent{ID: bus.GenerateID(), Type: events.ExecutionStartedEvent},
		ExecutionID: "exec-1",
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", started))

	signal := events.Signal{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.SignalEvent},
		Name:      "after",
	}
	require.NoError(t, bus.Publish(ctx, "wf-1", signal))

	select {
	case got := <-received:
		parsed, ok := got.(*events.Signal)
		require.True(t, ok)
		assert.Equal(t, "after", parsed.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
