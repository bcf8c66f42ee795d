// Package web provides the REST API for workflow management and
// execution control.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/tasklab/automation/pkg/engine"
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/persistence"
	"github.com/tasklab/automation/pkg/registry"
	"github.com/tasklab/automation/pkg/triggers"
)

type APIHandlers struct {
	persistence persistence.Persistence
	store       *engine.WorkflowStore
	engine      *engine.Engine
	manager     *triggers.Manager
	registry    *registry.Registry
	validator   *validator.Validate
}

func NewAPIHandlers(
	db persistence.Persistence,
	store *engine.WorkflowStore,
	eng *engine.Engine,
	manager *triggers.Manager,
	reg *registry.Registry,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: db,
		store:       store,
		engine:      eng,
		manager:     manager,
		registry:    reg,
		validator:   validate,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.Workflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	status := c.Query("status")
	owner := c.Query("owner")

	filtered := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if status != "" && string(workflow.Status) != status {
			continue
		}

		if owner != "" && workflow.Owner != owner {
			continue
		}

		filtered = append(filtered, workflow)
	}

	return c.JSON(fiber.Map{
		"workflows":   filtered,
		"total_count": len(filtered),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.fetchWorkflow(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	settings := models.DefaultSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:          "wf-" + uuid.New().String()[:8],
		Name:        req.Name,
		Description: req.Description,
		Version:     1,
		Status:      models.WorkflowStatusDraft,
		Trigger:     req.Trigger,
		Steps:       req.Steps,
		Variables:   req.Variables,
		Conditions:  req.Conditions,
		Logic:       req.Logic,
		Settings:    settings,
		Owner:       req.Owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := workflow.ValidateStructure(); err != nil {
		return handleServiceError(c, err)
	}

	if err := h.persistence.SaveWorkflow(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	workflow, err := h.fetchWorkflow(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	if workflow.Status == models.WorkflowStatusArchived {
		return conflict(c, "archived workflows are immutable")
	}

	if workflow.Status == models.WorkflowStatusActive {
		return conflict(c, "deactivate the workflow before editing it")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.Name != nil {
		workflow.Name = *req.Name
	}

	if req.Description != nil {
		workflow.Description = *req.Description
	}

	if req.Trigger != nil {
		workflow.Trigger = req.Trigger
	}

	if req.Steps != nil {
		workflow.Steps = req.Steps
	}

	if req.Variables != nil {
		workflow.Variables = req.Variables
	}

	if req.Conditions != nil {
		workflow.Conditions = req.Conditions
	}

	if req.Logic != nil {
		workflow.Logic = *req.Logic
	}

	if req.Settings != nil {
		workflow.Settings = *req.Settings
	}

	if err := workflow.ValidateStructure(); err != nil {
		return handleServiceError(c, err)
	}

	workflow.Version++
	workflow.UpdatedAt = time.Now().UTC()

	if err := h.persistence.SaveWorkflow(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflow)
}

// ActivateWorkflow validates the full definition, registers it with the
// engine and arms its trigger. Every step type and configuration is
// checked here so runs never meet an unknown handler.
func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	workflow, err := h.fetchWorkflow(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	if workflow.Status == models.WorkflowStatusArchived {
		return conflict(c, "archived workflows cannot be activated")
	}

	if err := h.validator.Struct(workflow); err != nil {
		return badRequest(c, err.Error())
	}

	if err := workflow.ValidateForActivation(); err != nil {
		return handleServiceError(c, err)
	}

	for _, step := range workflow.Steps {
		if err := h.registry.ValidateConfig(step.Type, step.Config); err != nil {
			return handleServiceError(c, err)
		}
	}

	workflow.Status = models.WorkflowStatusActive
	workflow.UpdatedAt = time.Now().UTC()

	if err := h.persistence.SaveWorkflow(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	h.store.Add(workflow)

	if err := h.manager.Arm(c.Context(), workflow); err != nil {
		h.store.Remove(workflow.ID)

		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeactivateWorkflow(c fiber.Ctx) error {
	workflow, err := h.fetchWorkflow(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	if workflow.Status != models.WorkflowStatusActive {
		return conflict(c, "workflow is not active")
	}

	if err := h.manager.Disarm(c.Context(), workflow.ID); err != nil {
		return handleServiceError(c, err)
	}

	h.store.Remove(workflow.ID)

	workflow.Status = models.WorkflowStatusInactive
	workflow.UpdatedAt = time.Now().UTC()

	if err := h.persistence.SaveWorkflow(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflow)
}

// ArchiveWorkflow retires a definition. Archived workflows keep their
// execution history and are never hard-deleted.
func (h *APIHandlers) ArchiveWorkflow(c fiber.Ctx) error {
	workflow, err := h.fetchWorkflow(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	if workflow.Status == models.WorkflowStatusArchived {
		return c.JSON(workflow)
	}

	if workflow.Status == models.WorkflowStatusActive {
		if err := h.manager.Disarm(c.Context(), workflow.ID); err != nil {
			return handleServiceError(c, err)
		}

		h.store.Remove(workflow.ID)
	}

	now := time.Now().UTC()
	workflow.Status = models.WorkflowStatusArchived
	workflow.ArchivedAt = &now
	workflow.UpdatedAt = now

	if err := h.persistence.SaveWorkflow(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflow)
}

// TriggerWorkflow fires an active workflow manually. The run is queued;
// the response carries the pending execution record.
func (h *APIHandlers) TriggerWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req TriggerWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	execution, err := h.manager.Fire(c.Context(), id, "manual", req.Payload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(execution)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	executions, err := h.persistence.Executions(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  executions,
		"total_count": len(executions),
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.persistence.ExecutionByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	if err := h.engine.Cancel(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// GetStepTypes lists the closed step-type catalog with each handler's
// configuration schema.
func (h *APIHandlers) GetStepTypes(c fiber.Ctx) error {
	types := h.registry.StepTypes()

	catalog := make([]StepTypeInfo, 0, len(types))

	for _, stepType := range types {
		schema, err := h.registry.Schema(stepType)
		if err != nil {
			continue
		}

		catalog = append(catalog, StepTypeInfo{
			Type:   string(stepType),
			Schema: schema,
		})
	}

	return c.JSON(fiber.Map{"step_types": catalog})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK

	repositoryErr := h.persistence.HealthCheck(c.Context())
	if repositoryErr != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":      status,
		"queue_depth": h.engine.QueueDepth(),
		"timestamp":   time.Now().UTC(),
	})
}

func (h *APIHandlers) fetchWorkflow(c fiber.Ctx) (*models.Workflow, error) {
	id := c.Params("id")

	return h.persistence.WorkflowByID(c.Context(), id)
}
