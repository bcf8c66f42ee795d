// Package registry maps step-type tags to their handler factories.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/protocol"
)

var (
	// ErrHandlerNotFound is returned when a step-type tag has no registered factory.
	ErrHandlerNotFound = errors.New("step type not registered")
	// ErrConfigInvalid is returned when a step configuration fails its handler's schema.
	ErrConfigInvalid = errors.New("step configuration invalid")
)

// Registry holds the handler factory table. It is populated once at
// startup and read-only afterwards, so it is safe to share across all
// concurrent executions without synchronization.
type Registry struct {
	logger    *slog.Logger
	factories map[models.StepType]protocol.HandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.StepType]protocol.HandlerFactory),
	}
}

// Register adds a factory under its step-type tag. Registering the same
// tag twice replaces the earlier factory; the closed step-type set makes
// that a deliberate override, not an accident.
func (r *Registry) Register(factory protocol.HandlerFactory) {
	r.factories[factory.Type()] = factory
	r.logger.Debug("registered step handler", "step_type", string(factory.Type()))
}

// Resolve returns the factory for a step-type tag.
func (r *Registry) Resolve(stepType models.StepType) (protocol.HandlerFactory, error) {
	factory, ok := r.factories[stepType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, stepType)
	}

	return factory, nil
}

// CreateHandler builds a handler for the step type from raw configuration.
func (r *Registry) CreateHandler(stepType models.StepType, config map[string]any) (protocol.Handler, error) {
	factory, err := r.Resolve(stepType)
	if err != nil {
		return nil, err
	}

	handler, err := factory.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s handler: %w", stepType, err)
	}

	return handler, nil
}

// ValidateConfig checks a raw step configuration against the handler's
// JSON schema and then against the factory's own constructor. Called at
// workflow activation so a running execution never discovers an invalid
// step mid-flight.
func (r *Registry) ValidateConfig(stepType models.StepType, config map[string]any) error {
	factory, err := r.Resolve(stepType)
	if err != nil {
		return err
	}

	if schema := factory.Schema(); schema != nil {
		result, err := gojsonschema.Validate(
			gojsonschema.NewGoLoader(schema),
			gojsonschema.NewGoLoader(config),
		)
		if err != nil {
			return fmt.Errorf("schema validation for %s: %w", stepType, err)
		}

		if !result.Valid() {
			details := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				details = append(details, desc.String())
			}

			return fmt.Errorf("%w (%s): %s", ErrConfigInvalid, stepType, strings.Join(details, "; "))
		}
	}

	if _, err := factory.Create(config); err != nil {
		return fmt.Errorf("%w (%s): %w", ErrConfigInvalid, stepType, err)
	}

	return nil
}

// Schema returns the JSON schema for a step type's configuration.
func (r *Registry) Schema(stepType models.StepType) (map[string]any, error) {
	factory, err := r.Resolve(stepType)
	if err != nil {
		return nil, err
	}

	return factory.Schema(), nil
}

// StepTypes lists the registered step-type tags.
func (r *Registry) StepTypes() []models.StepType {
	types := make([]models.StepType, 0, len(r.factories))
	for stepType := range r.factories {
		types = append(types, stepType)
	}

	return types
}
