// Package sendnotification provides the send-notification step handler.
package sendnotification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasklab/automation/pkg/models"
)

var (
	// ErrMessageRequired is returned when the configuration has no message.
	ErrMessageRequired = errors.New("missing or invalid 'message' in configuration")
)

// Notifier delivers one notification to a set of recipients.
type Notifier interface {
	Notify(ctx context.Context, notificationType string, recipientIDs []string, title, message string, data map[string]any) error
}

// LogNotifier writes notifications to the logger. It is the default
// delivery channel when no external notifier is wired in.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, notificationType string, recipientIDs []string, title, message string, _ map[string]any) error {
	slog.Default().InfoContext(ctx, "Notification delivered",
		"module", "log_notifier",
		"type", notificationType,
		"recipients", len(recipientIDs),
		"title", title,
		"message", message,
	)

	return nil
}

// Handler sends one notification through the configured Notifier.
type Handler struct {
	notificationType string
	recipientIDs     []string
	title            string
	message          string
	data             map[string]any
	notifier         Notifier
}

func NewHandler(config map[string]any, notifier Notifier) (*Handler, error) {
	message, ok := config["message"].(string)
	if !ok || message == "" {
		return nil, ErrMessageRequired
	}

	notificationType, _ := config["type"].(string)
	if notificationType == "" {
		notificationType = "info"
	}

	title, _ := config["title"].(string)
	data, _ := config["data"].(map[string]any)

	return &Handler{
		notificationType: notificationType,
		recipientIDs:     parseRecipients(config["recipient_ids"]),
		title:            title,
		message:          message,
		data:             data,
		notifier:         notifier,
	}, nil
}

func parseRecipients(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	}

	return nil
}

func (h *Handler) Execute(ctx context.Context, input map[string]any, _ *models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("module", "send_notification_handler")

	message := h.message
	if resolved, ok := input["message"].(string); ok && resolved != "" {
		message = resolved
	}

	title := h.title
	if resolved, ok := input["title"].(string); ok {
		title = resolved
	}

	recipients := h.recipientIDs
	if resolved := parseRecipients(input["recipient_ids"]); resolved != nil {
		recipients = resolved
	}

	data := h.data
	if resolved, ok := input["data"].(map[string]any); ok {
		data = resolved
	}

	if err := h.notifier.Notify(ctx, h.notificationType, recipients, title, message, data); err != nil {
		return nil, fmt.Errorf("failed to deliver notification: %w", err)
	}

	logger.InfoContext(ctx, "Notification sent",
		"type", h.notificationType,
		"recipients", len(recipients),
	)

	return map[string]any{
		"notified":   true,
		"type":       h.notificationType,
		"recipients": len(recipients),
		"sent_at":    time.Now().UTC().Format(time.RFC3339),
	}, nil
}
