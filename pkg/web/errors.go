package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/tasklab/automation/pkg/engine"
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/persistence"
	"github.com/tasklab/automation/pkg/registry"
	"github.com/tasklab/automation/pkg/triggers"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps domain errors onto problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow not found")

	case persistence.IsExecutionNotFound(err):
		return notFound(c, "execution not found")

	case errors.Is(err, engine.ErrWorkflowNotActive):
		return conflict(c, "workflow is not active")

	case errors.Is(err, engine.ErrExecutionNotRunning):
		return conflict(c, "execution is not pending or running")

	case errors.Is(err, triggers.ErrWorkflowNotArmed):
		return conflict(c, "workflow trigger is not armed")

	case errors.Is(err, triggers.ErrFiringDiscarded):
		return unprocessable(c, "trigger conditions rejected the payload")

	case errors.Is(err, registry.ErrHandlerNotFound),
		errors.Is(err, registry.ErrConfigInvalid),
		errors.Is(err, models.ErrNoTrigger),
		errors.Is(err, models.ErrDuplicateStepID),
		errors.Is(err, models.ErrDanglingStepRef),
		errors.Is(err, models.ErrInvalidConcurrency),
		errors.Is(err, models.ErrInvalidOperator):
		return badRequest(c, err.Error())

	default:
		return internalError(c, err)
	}
}

func unprocessable(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(422).
		WithInstance(c.Path()).
		WithType("conditions_not_met").
		WithDetail(detail)

	return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
}
