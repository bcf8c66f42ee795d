package sendnotification

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklab/automation/pkg/models"
)

type captureNotifier struct {
	notificationType string
	recipients       []string
	title            string
	message          string
	data             map[string]any
}

func (c *captureNotifier) Notify(_ context.Context, notificationType string, recipientIDs []string, title, message string, data map[string]any) error {
	c.notificationType = notificationType
	c.recipients = recipientIDs
	c.title = title
	c.message = message
	c.data = data

	return nil
}

func TestNewHandler(t *testing.T) {
	t.Run("message required", func(t *testing.T) {
		_, err := NewHandler(map[string]any{"title": "no body"}, LogNotifier{})
		assert.ErrorIs(t, err, ErrMessageRequired)
	})

	t.Run("type defaults to info", func(t *testing.T) {
		handler, err := NewHandler(map[string]any{"message": "hi"}, LogNotifier{})
		require.NoError(t, err)
		assert.Equal(t, "info", handler.notificationType)
	})

	t.Run("recipient list parsed from json shape", func(t *testing.T) {
		handler, err := NewHandler(map[string]any{
			"message":       "hi",
			"recipient_ids": []any{"u-1", "u-2"},
		}, LogNotifier{})
		require.NoError(t, err)
		assert.Equal(t, []string{"u-1", "u-2"}, handler.recipientIDs)
	})
}

func TestHandler_Execute(t *testing.T) {
	notifier := &captureNotifier{}

	handler, err := NewHandler(map[string]any{
		"type":          "approval_request",
		"message":       "Order {{trigger.order_id}} needs review",
		"title":         "Review",
		"recipient_ids": []any{"u-1"},
	}, notifier)
	require.NoError(t, err)

	// Input carries the executor-resolved templates.
	input := map[string]any{
		"message": "Order ord-42 needs review",
		"title":   "Review",
	}

	output, err := handler.Execute(context.Background(), input, &models.ExecutionContext{}, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, "approval_request", notifier.notificationType)
	assert.Equal(t, "Order ord-42 needs review", notifier.message)
	assert.Equal(t, []string{"u-1"}, notifier.recipients)

	assert.Equal(t, true, output["notified"])
	assert.Equal(t, 1, output["recipients"])
}

func TestHandler_ExecuteResolvedRecipientsAndData(t *testing.T) {
	notifier := &captureNotifier{}

	handler, err := NewHandler(map[string]any{
		"message":       "Order {{trigger.order_id}} needs review",
		"recipient_ids": []any{"{{trigger.assignee}}"},
		"data":          map[string]any{"order_id": "{{trigger.order_id}}"},
	}, notifier)
	require.NoError(t, err)

	// Input carries the executor-resolved templates, recipient list and
	// data payload included.
	input := map[string]any{
		"message":       "Order ord-42 needs review",
		"recipient_ids": []any{"u-7"},
		"data":          map[string]any{"order_id": "ord-42"},
	}

	output, err := handler.Execute(context.Background(), input, &models.ExecutionContext{}, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{"u-7"}, notifier.recipients)
	assert.Equal(t, map[string]any{"order_id": "ord-42"}, notifier.data)
	assert.Equal(t, 1, output["recipients"])
}

func TestFactory(t *testing.T) {
	factory := NewFactory(nil)
	assert.Equal(t, models.StepTypeSendNotification, factory.Type())

	_, err := factory.Create(map[string]any{"message": "hi"})
	assert.NoError(t, err)
}
