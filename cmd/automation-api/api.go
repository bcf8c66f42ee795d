// Package main provides the automation API server: the full engine
// in-process plus the REST surface for managing workflows.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/tasklab/automation/pkg/engine"
	"github.com/tasklab/automation/pkg/persistence"
	"github.com/tasklab/automation/pkg/registry"
	"github.com/tasklab/automation/pkg/triggers"
	"github.com/tasklab/automation/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	store       *engine.WorkflowStore
	engine      *engine.Engine
	manager     *triggers.Manager
	registry    *registry.Registry
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	db persistence.Persistence,
	store *engine.WorkflowStore,
	eng *engine.Engine,
	manager *triggers.Manager,
	reg *registry.Registry,
) *API {
	return &API{
		logger:      logger,
		persistence: db,
		store:       store,
		engine:      eng,
		manager:     manager,
		registry:    reg,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.persistence, a.store, a.engine, a.manager, a.registry, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Automation API")
	})

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

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
