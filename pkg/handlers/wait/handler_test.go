package wait

import (
	"context"
	"log/slog"
	"testing"
	"time"

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
		{"float duration", map[string]any{"duration_seconds": 0.1}, false},
		{"int duration", map[string]any{"duration_seconds": 2}, false},
		{"missing duration", map[string]any{}, true},
		{"zero duration", map[string]any{"duration_seconds": 0.0}, true},
		{"negative duration", map[string]any{"duration_seconds": -1.0}, true},
		{"non-numeric duration", map[string]any{"duration_seconds": "soon"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHandler(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	handler, err := NewHandler(map[string]any{"duration_seconds": 0.05})
	require.NoError(t, err)

	start := time.Now()
	output, err := handler.Execute(context.Background(), nil, nil, slog.Default())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 0.05, output["waited_seconds"])
}

func TestHandler_ExecuteCancelled(t *testing.T) {
	handler, err := NewHandler(map[string]any{"duration_seconds": 10})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = handler.Execute(ctx, nil, &models.ExecutionContext{}, slog.Default())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFactory(t *testing.T) {
	factory := NewFactory()

	assert.Equal(t, models.StepTypeWait, factory.Type())
	assert.Equal(t, "object", factory.Schema()["type"])

	handler, err := factory.Create(map[string]any{"duration_seconds": 1.0})
	require.NoError(t, err)
	assert.NotNil(t, handler)
}
