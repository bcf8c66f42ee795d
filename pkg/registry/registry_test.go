package registry

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklab/automation/pkg/handlers/evalcondition"
	"github.com/tasklab/automation/pkg/handlers/wait"
	"github.com/tasklab/automation/pkg/models"
)

func newTestRegistry() *Registry {
	reg := NewRegistry(slog.Default())
	reg.Register(wait.NewFactory())
	reg.Register(evalcondition.NewFactory())

	return reg
}

func TestRegistry_Resolve(t *testing.T) {
	reg := newTestRegistry()

	factory, err := reg.Resolve(models.StepTypeWait)
	require.NoError(t, err)
	assert.Equal(t, models.StepTypeWait, factory.Type())

	_, err = reg.Resolve(models.StepTypeCustom)
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestRegistry_CreateHandler(t *testing.T) {
	reg := newTestRegistry()

	handler, err := reg.CreateHandler(models.StepTypeWait, map[string]any{"duration_seconds": 1.0})
	require.NoError(t, err)
	assert.NotNil(t, handler)

	_, err = reg.CreateHandler(models.StepTypeWait, map[string]any{})
	assert.Error(t, err)

	_, err = reg.CreateHandler("unknown-type", map[string]any{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestRegistry_ValidateConfig(t *testing.T) {
	reg := newTestRegistry()

	t.Run("valid config passes", func(t *testing.T) {
		err := reg.ValidateConfig(models.StepTypeWait, map[string]any{"duration_seconds": 2.0})
		assert.NoError(t, err)
	})

	t.Run("schema violation rejected", func(t *testing.T) {
		err := reg.ValidateConfig(models.StepTypeWait, map[string]any{"duration_seconds": "soon"})
		assert.ErrorIs(t, err, ErrConfigInvalid)
	})

	t.Run("unknown property rejected", func(t *testing.T) {
		err := reg.ValidateConfig(models.StepTypeWait, map[string]any{
			"duration_seconds": 1.0,
			"bogus":            true,
		})
		assert.ErrorIs(t, err, ErrConfigInvalid)
	})

	t.Run("missing required field rejected", func(t *testing.T) {
		err := reg.ValidateConfig(models.StepTypeEvaluateCondition, map[string]any{})
		assert.ErrorIs(t, err, ErrConfigInvalid)
	})

	t.Run("unregistered type rejected", func(t *testing.T) {
		err := reg.ValidateConfig(models.StepTypeCustom, map[string]any{})
		assert.ErrorIs(t, err, ErrHandlerNotFound)
	})
}

func TestRegistry_StepTypes(t *testing.T) {
	reg := newTestRegistry()

	types := reg.StepTypes()
	assert.Len(t, types, 2)
	assert.Contains(t, types, models.StepTypeWait)
	assert.Contains(t, types, models.StepTypeEvaluateCondition)
}

func TestRegistry_Schema(t *testing.T) {
	reg := newTestRegistry()

	schema, err := reg.Schema(models.StepTypeWait)
	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])
}
