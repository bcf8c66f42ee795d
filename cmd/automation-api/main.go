package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	redis "github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"

	"github.com/tasklab/automation/pkg/cmd"
	"github.com/tasklab/automation/pkg/engine"
	"github.com/tasklab/automation/pkg/log"
	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/otelhelper"
	"github.com/tasklab/automation/pkg/triggers"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "automation-api",
		Usage:                 "Create, manage and run workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka broker list",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis connection URL for queue triggers",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.Setup(command.String("log-level")).With("module", "api")

			logger.InfoContext(ctx, "Initializing automation API")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := db.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			bus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := bus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var redisClient redis.UniversalClient

			if redisURL := command.String("redis-url"); redisURL != "" {
				opts, err := redis.ParseURL(redisURL)
				if err != nil {
					return err
				}

				redisClient = redis.NewClient(opts)
				defer func() {
					if err := redisClient.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close redis client", "error", err)
					}
				}()
			}

			reg := cmd.NewRegistry(logger)
			store := engine.NewWorkflowStore()
			executor := engine.NewStepExecutor(reg, logger)

			opts := []engine.Option{}

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "automation-api")
				if err != nil {
					return err
				}

				opts = append(opts, engine.WithTracer(tracer))
			}

			eng := engine.NewEngine(store, executor, db, bus, logger, opts...)
			manager := triggers.NewManager(eng, bus, redisClient, logger)

			defer manager.Shutdown(context.WithoutCancel(ctx))

			workflows, err := db.Workflows(ctx)
			if err != nil {
				return err
			}

			for _, workflow := range workflows {
				if workflow.Status != models.WorkflowStatusActive {
					continue
				}

				store.Add(workflow)

				if err := manager.Arm(ctx, workflow); err != nil {
					logger.ErrorContext(ctx, "Failed to arm workflow", "workflow_id", workflow.ID, "error", err)
				}
			}

			go func() {
				if err := bus.Subscribe(ctx); err != nil {
					logger.ErrorContext(ctx, "Event bus subscription ended", "error", err)
				}
			}()

			go eng.Start(ctx)

			api := NewAPI(logger, db, store, eng, manager, reg)

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
