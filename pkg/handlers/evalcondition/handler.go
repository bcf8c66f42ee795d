// Package evalcondition provides the evaluate-condition step handler.
// The step's own conditions gate whether it runs; this handler instead
// evaluates a configured expression and publishes the boolean outcome
// as a step result for downstream branching.
package evalcondition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tasklab/automation/pkg/conditions"
	"github.com/tasklab/automation/pkg/models"
)

var (
	// ErrConditionsRequired is returned when no conditions are configured.
	ErrConditionsRequired = errors.New("missing or invalid 'conditions' in configuration")
	// ErrConditionShape is returned when a condition entry is not an object.
	ErrConditionShape = errors.New("condition entries must be objects with field and operator")
)

type Handler struct {
	conditions []models.Condition
	logic      models.LogicOperator
}

func NewHandler(config map[string]any) (*Handler, error) {
	rawConditions, ok := config["conditions"].([]any)
	if !ok || len(rawConditions) == 0 {
		return nil, ErrConditionsRequired
	}

	parsed := make([]models.Condition, 0, len(rawConditions))

	for i, raw := range rawConditions {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d", ErrConditionShape, i)
		}

		field, _ := entry["field"].(string)
		operator, _ := entry["operator"].(string)

		condition := models.Condition{
			Field:    field,
			Operator: models.ConditionOperator(operator),
			Value:    entry["value"],
		}

		if condition.Field == "" || !condition.Operator.Valid() {
			return nil, fmt.Errorf("%w: entry %d", ErrConditionShape, i)
		}

		parsed = append(parsed, condition)
	}

	logic := models.LogicAnd
	if raw, _ := config["logic"].(string); raw == string(models.LogicOr) {
		logic = models.LogicOr
	}

	return &Handler{conditions: parsed, logic: logic}, nil
}

func (h *Handler) Execute(ctx context.Context, _ map[string]any, execCtx *models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	result := conditions.Evaluate(h.conditions, h.logic, execCtx)

	logger.DebugContext(ctx, "Condition evaluated",
		"module", "evaluate_condition_handler",
		"result", result,
		"conditions", len(h.conditions),
	)

	return map[string]any{
		"result": result,
		"logic":  string(h.logic),
	}, nil
}
