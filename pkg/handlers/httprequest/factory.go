package httprequest

import (
	"net/http"
	"time"

	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

const defaultClientTimeout = 60 * time.Second

// Factory creates call-external-api handlers sharing one HTTP client.
type Factory struct {
	client *http.Client
}

func NewFactory(client *http.Client) *Factory {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}

	return &Factory{client: client}
}

func (f *Factory) Type() models.StepType {
	return models.StepTypeCallExternalAPI
}

func (f *Factory) Create(config map[string]any) (protocol.Handler, error) {
	return NewHandler(config, f.client)
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to send the HTTP request to. Supports templating with step results.",
				"examples": []string{
					"https://api.example.com/users",
					"https://api.example.com/users/{{lookup_user.user_id}}",
				},
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method to use.",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "HTTP headers to include in the request. Values support templating.",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
			"body": map[string]any{
				"type":        "string",
				"format":      "code",
				"description": "Request body content. Supports templating for dynamic JSON or text content.",
				"examples": []string{
					`{"order_id": "{{trigger.order_id}}", "status": "active"}`,
				},
			},
		},
		"required":             []string{"url"},
		"additionalProperties": false,
	}
}
