package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklab/automation/pkg/cmd"
	"github.com/tasklab/automation/pkg/engine"
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/persistence/file"
	"github.com/tasklab/automation/pkg/triggers"
	"github.com/tasklab/automation/pkg/web"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.Default()
	db := file.NewPersistence(t.TempDir())
	reg := cmd.NewRegistry(logger)
	store := engine.NewWorkflowStore()
	executor := engine.NewStepExecutor(reg, logger)
	eng := engine.NewEngine(store, executor, db, nil, logger)
	manager := triggers.NewManager(eng, nil, nil, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	handlers := web.NewAPIHandlers(db, store, eng, manager, reg, validate)

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/deactivate", handlers.DeactivateWorkflow)
	w.Post("/:id/archive", handlers.ArchiveWorkflow)
	w.Post("/:id/trigger", handlers.TriggerWorkflow)
	w.Get("/:id/executions", handlers.GetExecutions)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Post("/:id/cancel", handlers.CancelExecution)

	app.Get("/step-types", handlers.GetStepTypes)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, payload
}

func createTestWorkflow(t *testing.T, app *fiber.App) *models.Workflow {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/", web.CreateWorkflowRequest{
		Name:    "Order Notifications",
		Trigger: &models.TriggerSpec{Type: models.TriggerTypeManual},
		Steps: []*models.Step{
			{
				ID:      "notify",
				Name:    "Notify",
				Type:    models.StepTypeSendNotification,
				Order:   1,
				Enabled: true,
				Config:  map[string]any{"message": "order {{trigger.order_id}} received"},
			},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))

	return &workflow
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	app := setupTestApp(t)

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name: "successful creation",
			requestBody: web.CreateWorkflowRequest{
				Name:  "Test Workflow",
				Owner: "test-user",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "name too short",
			requestBody:    web.CreateWorkflowRequest{Name: "ab"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing name",
			requestBody:    map[string]any{"owner": "test-user"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate step ids rejected",
			requestBody: web.CreateWorkflowRequest{
				Name: "Broken",
				Steps: []*models.Step{
					{ID: "a", Name: "A", Type: models.StepTypeWait, Config: map[string]any{"duration_seconds": 1.0}},
					{ID: "a", Name: "B", Type: models.StepTypeWait, Config: map[string]any{"duration_seconds": 1.0}},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "dangling success reference rejected",
			requestBody: web.CreateWorkflowRequest{
				Name: "Broken",
				Steps: []*models.Step{
					{ID: "a", Name: "A", Type: models.StepTypeWait,
						Config: map[string]any{"duration_seconds": 1.0}, OnSuccess: strPtr("ghost")},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, http.MethodPost, "/workflows/", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var workflow models.Workflow
				require.NoError(t, json.Unmarshal(body, &workflow))
				assert.NotEmpty(t, workflow.ID)
				assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
				assert.Equal(t, 1, workflow.Version)
			}
		})
	}
}

func TestAPIHandlers_GetWorkflows(t *testing.T) {
	app := setupTestApp(t)

	createTestWorkflow(t, app)
	createTestWorkflow(t, app)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Workflows  []*models.Workflow `json:"workflows"`
		TotalCount int                `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 2, result.TotalCount)

	t.Run("status filter excludes drafts", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/workflows/?status=active", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, 0, result.TotalCount)
	})
}

func TestAPIHandlers_GetWorkflow(t *testing.T) {
	app := setupTestApp(t)
	workflow := createTestWorkflow(t, app)

	resp, body := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loaded models.Workflow
	require.NoError(t, json.Unmarshal(body, &loaded))
	assert.Equal(t, workflow.ID, loaded.ID)

	t.Run("unknown id returns 404", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/workflows/wf-ghost", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPIHandlers_UpdateWorkflow(t *testing.T) {
	app := setupTestApp(t)
	workflow := createTestWorkflow(t, app)

	resp, body := doJSON(t, app, http.MethodPatch, "/workflows/"+workflow.ID, map[string]any{
		"name": "Renamed Workflow",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Workflow
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Renamed Workflow", updated.Name)
	assert.Equal(t, workflow.Version+1, updated.Version)

	t.Run("active workflow cannot be edited", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, app, http.MethodPatch, "/workflows/"+workflow.ID, map[string]any{"name": "Nope"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestAPIHandlers_ActivateWorkflow(t *testing.T) {
	app := setupTestApp(t)

	t.Run("activates valid workflow", func(t *testing.T) {
		workflow := createTestWorkflow(t, app)

		resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var activated models.Workflow
		require.NoError(t, json.Unmarshal(body, &activated))
		assert.Equal(t, models.WorkflowStatusActive, activated.Status)
	})

	t.Run("rejects workflow without trigger", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/workflows/", web.CreateWorkflowRequest{
			Name: "No Trigger",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var workflow models.Workflow
		require.NoError(t, json.Unmarshal(body, &workflow))

		resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects invalid step config", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/workflows/", web.CreateWorkflowRequest{
			Name:    "Bad Config",
			Trigger: &models.TriggerSpec{Type: models.TriggerTypeManual},
			Steps: []*models.Step{
				{ID: "w", Name: "Wait", Type: models.StepTypeWait, Enabled: true,
					Config: map[string]any{}},
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var workflow models.Workflow
		require.NoError(t, json.Unmarshal(body, &workflow))

		resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPIHandlers_DeactivateWorkflow(t *testing.T) {
	app := setupTestApp(t)
	workflow := createTestWorkflow(t, app)

	t.Run("draft cannot be deactivated", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/deactivate", nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("active workflow goes inactive", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/deactivate", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var deactivated models.Workflow
		require.NoError(t, json.Unmarshal(body, &deactivated))
		assert.Equal(t, models.WorkflowStatusInactive, deactivated.Status)
	})
}

func TestAPIHandlers_ArchiveWorkflow(t *testing.T) {
	app := setupTestApp(t)
	workflow := createTestWorkflow(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/archive", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var archived models.Workflow
	require.NoError(t, json.Unmarshal(body, &archived))
	assert.Equal(t, models.WorkflowStatusArchived, archived.Status)
	assert.NotNil(t, archived.ArchivedAt)

	t.Run("archive is idempotent", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/archive", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("archived workflow is immutable", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPatch, "/workflows/"+workflow.ID, map[string]any{"name": "Nope"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestAPIHandlers_TriggerWorkflow(t *testing.T) {
	app := setupTestApp(t)
	workflow := createTestWorkflow(t, app)

	t.Run("inactive workflow cannot be triggered", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/trigger", nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	resp, _ := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("active workflow queues a run", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/trigger", web.TriggerWorkflowRequest{
			Payload: map[string]any{"order_id": "ord-42"},
		})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		var execution models.Execution
		require.NoError(t, json.Unmarshal(body, &execution))
		assert.Equal(t, models.ExecutionStatusPending, execution.Status)
		assert.Equal(t, workflow.ID, execution.WorkflowID)

		t.Run("execution is listed and retrievable", func(t *testing.T) {
			resp, body := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID+"/executions", nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var result struct {
				TotalCount int `json:"total_count"`
			}
			require.NoError(t, json.Unmarshal(body, &result))
			assert.Equal(t, 1, result.TotalCount)

			resp, _ = doJSON(t, app, http.MethodGet, "/executions/"+execution.ID, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})

		t.Run("pending run can be cancelled", func(t *testing.T) {
			resp, _ := doJSON(t, app, http.MethodPost, "/executions/"+execution.ID+"/cancel", nil)
			assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		})
	})

	t.Run("workflow conditions gate manual firing", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/workflows/", web.CreateWorkflowRequest{
			Name:    "High Value Only",
			Trigger: &models.TriggerSpec{Type: models.TriggerTypeManual},
			Conditions: []models.Condition{
				{Field: "amount", Operator: models.OpGreater, Value: 100},
			},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var gated models.Workflow
		require.NoError(t, json.Unmarshal(body, &gated))

		resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+gated.ID+"/activate", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, app, http.MethodPost, "/workflows/"+gated.ID+"/trigger", web.TriggerWorkflowRequest{
			Payload: map[string]any{"amount": 10},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestAPIHandlers_CancelExecutionNotFound(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/executions/exec-ghost/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_GetStepTypes(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/step-types", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		StepTypes []web.StepTypeInfo `json:"step_types"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	require.Len(t, result.StepTypes, 9)

	byType := make(map[string]web.StepTypeInfo, len(result.StepTypes))
	for _, info := range result.StepTypes {
		byType[info.Type] = info
	}

	waitInfo, ok := byType[string(models.StepTypeWait)]
	require.True(t, ok)
	assert.Equal(t, "object", waitInfo.Schema["type"])
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]any
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "healthy", result["status"])
}

func strPtr(s string) *string {
	return &s
}
