package runscript

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklab/automation/pkg/models"
)

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{"outputs mapping", map[string]any{"outputs": map[string]any{"total": "{{trigger.amount}}"}}, false},
		{"single expression", map[string]any{"expression": "{{lookup.score}}"}, false},
		{"neither configured", map[string]any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHandler(tt.config)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrScriptRequired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	t.Run("resolved outputs become the step result", func(t *testing.T) {
		handler, err := NewHandler(map[string]any{
			"outputs": map[string]any{"total": "{{trigger.amount}}", "label": "order"},
		})
		require.NoError(t, err)

		input := map[string]any{
			"outputs": map[string]any{"total": 150.0, "label": "order"},
		}

		output, err := handler.Execute(context.Background(), input, &models.ExecutionContext{}, slog.Default())
		require.NoError(t, err)
		assert.Equal(t, 150.0, output["total"])
		assert.Equal(t, "order", output["label"])
	})

	t.Run("expression resolves to result key", func(t *testing.T) {
		handler, err := NewHandler(map[string]any{"expression": "{{lookup.score}}"})
		require.NoError(t, err)

		output, err := handler.Execute(context.Background(), map[string]any{"expression": 42.0}, &models.ExecutionContext{}, slog.Default())
		require.NoError(t, err)
		assert.Equal(t, 42.0, output["result"])
	})

	t.Run("falls back to construction config without input", func(t *testing.T) {
		handler, err := NewHandler(map[string]any{
			"outputs": map[string]any{"static": "value"},
		})
		require.NoError(t, err)

		output, err := handler.Execute(context.Background(), map[string]any{}, &models.ExecutionContext{}, slog.Default())
		require.NoError(t, err)
		assert.Equal(t, "value", output["static"])
	})
}

func TestFactory(t *testing.T) {
	factory := NewFactory()
	assert.Equal(t, models.StepTypeRunScript, factory.Type())

	_, err := factory.Create(map[string]any{})
	assert.ErrorIs(t, err, ErrScriptRequired)
}
