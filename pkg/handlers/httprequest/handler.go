// Package httprequest provides the call-external-api step handler.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tasklab/automation/pkg/models"
)

var (
	// ErrURLRequired is returned when the configuration has no URL.
	ErrURLRequired = errors.New("missing or invalid 'url' in configuration")
	// ErrMethodInvalid is returned for an unsupported HTTP method.
	ErrMethodInvalid = errors.New("invalid HTTP method")
	// ErrServerError is returned when the response status is 500 or
	// above, so the attempt fails and the retry policy applies.
	ErrServerError = errors.New("server error during HTTP request")
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodDelete:  {},
	http.MethodPatch:   {},
	http.MethodHead:    {},
	http.MethodOptions: {},
}

// Handler performs one HTTP request per attempt. Retries belong to the
// step's retry policy, not to the handler, so a failed attempt returns
// an error and nothing more.
type Handler struct {
	method  string
	url     string
	headers map[string]string
	body    string
	client  *http.Client
}

func NewHandler(config map[string]any, client *http.Client) (*Handler, error) {
	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, ErrURLRequired
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	method = strings.ToUpper(method)
	if _, ok := allowedMethods[method]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodInvalid, method)
	}

	body, _ := config["body"].(string)

	headers := make(map[string]string)

	if headersConfig, ok := config["headers"].(map[string]any); ok {
		for k, v := range headersConfig {
			if str, ok := v.(string); ok {
				headers[k] = str
			}
		}
	}

	return &Handler{
		method:  method,
		url:     url,
		headers: headers,
		body:    body,
		client:  client,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input map[string]any, _ *models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("module", "http_request_handler")

	url := h.url
	if resolved, ok := input["url"].(string); ok && resolved != "" {
		url = resolved
	}

	body := h.body
	if resolved, ok := input["body"].(string); ok {
		body = resolved
	}

	req, err := http.NewRequestWithContext(ctx, h.method, url, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	for key, value := range h.headers {
		req.Header.Set(key, value)
	}

	logger.DebugContext(ctx, "Sending HTTP request", "method", h.method, "url", url)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	return h.processResponse(ctx, resp, logger)
}

func (h *Handler) processResponse(ctx context.Context, resp *http.Response, logger *slog.Logger) (map[string]any, error) {
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var body any

	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		body = string(bodyBytes)

		logger.WarnContext(ctx, "Failed to parse response as JSON, returning as string", "error", err)
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"body":        body,
		"headers":     flattenHeaders(resp.Header),
	}

	logger.InfoContext(ctx, "HTTP request completed",
		"status_code", resp.StatusCode,
		"body_length", len(bodyBytes),
	)

	if resp.StatusCode >= http.StatusInternalServerError {
		return result, fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
	}

	return result, nil
}

func flattenHeaders(header http.Header) map[string]any {
	out := make(map[string]any, len(header))
	for key := range header {
		out[key] = header.Get(key)
	}

	return out
}
