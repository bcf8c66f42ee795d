package sendnotification

import (
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

// Factory creates send-notification handlers bound to one Notifier.
type Factory struct {
	notifier Notifier
}

func NewFactory(notifier Notifier) *Factory {
	if notifier == nil {
		notifier = LogNotifier{}
	}

	return &Factory{notifier: notifier}
}

func (f *Factory) Type() models.StepType {
	return models.StepTypeSendNotification
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	return NewHandler(config, f.notifier)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type":        "string",
				"description": "Notification category.",
				"default":     "info",
				"examples":    []string{"info", "warning", "approval_request"},
			},
			"recipient_ids": map[string]any{
				"type":        "array",
				"description": "Recipient identifiers the notifier resolves to delivery targets.",
				"items":       map[string]any{"type": "string"},
			},
			"title": map[string]any{
				"type":        "string",
				"description": "Short subject line. Supports templating.",
			},
			"message": map[string]any{
				"type":        "string",
				"description": "Notification body. Supports templating with trigger data and step results.",
				"examples": []string{
					"Order {{trigger.order_id}} needs review",
				},
			},
			"data": map[string]any{
				"type":        "object",
				"description": "Arbitrary structured payload forwarded to the notifier.",
			},
		},
		"required":             []string{"message"},
		"additionalProperties": false,
	}
}
