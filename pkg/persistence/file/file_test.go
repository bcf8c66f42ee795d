package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/persistence"
)

func TestPersistence_WorkflowRoundTrip(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	ctx := context.Background()

	workflow := &models.Workflow{
		ID:      "wf-1",
		Name:    "round trip",
		Version: 2,
		Status:  models.WorkflowStatusActive,
		Trigger: &models.TriggerSpec{Type: models.TriggerTypeManual},
		Steps: []*models.Step{
			{ID: "s1", Name: "First", Type: models.StepTypeWait, Order: 1, Enabled: true,
				Config: map[string]any{"duration_seconds": 1.0}},
		},
		Settings:  models.DefaultSettings(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, fp.SaveWorkflow(ctx, workflow))

	loaded, err := fp.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	assert.Equal(t, workflow.Version, loaded.Version)
	assert.Equal(t, workflow.Status, loaded.Status)
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, models.StepTypeWait, loaded.Steps[0].Type)

	all, err := fp.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPersistence_WorkflowNotFound(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	_, err := fp.WorkflowByID(context.Background(), "wf-ghost")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_ExecutionRoundTrip(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	ctx := context.Background()

	execution := &models.Execution{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		Status:     models.ExecutionStatusRunning,
		StartedAt:  time.Now().UTC(),
		Context:    models.NewExecutionContext("exec-1", "wf-1", nil, map[string]any{"k": "v"}),
	}
	execution.AppendLog("info", "", "created")

	require.NoError(t, fp.SaveExecution(ctx, execution))

	execution.Finish(models.ExecutionStatusCompleted)
	require.NoError(t, fp.UpdateExecution(ctx, execution))

	loaded, err := fp.ExecutionByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, loaded.Status)
	assert.NotNil(t, loaded.FinishedAt)
	require.Len(t, loaded.Log, 1)
	assert.Equal(t, "created", loaded.Log[0].Message)
}

func TestPersistence_ExecutionsFilteredByWorkflow(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	ctx := context.Background()

	for _, pair := range [][2]string{{"exec-1", "wf-1"}, {"exec-2", "wf-1"}, {"exec-3", "wf-2"}} {
		require.NoError(t, fp.SaveExecution(ctx, &models.Execution{ID: pair[0], WorkflowID: pair[1]}))
	}

	executions, err := fp.Executions(ctx, "wf-1")
	require.NoError(t, err)
	assert.Len(t, executions, 2)
}

func TestPersistence_ExecutionNotFound(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	_, err := fp.ExecutionByID(context.Background(), "exec-ghost")
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestPersistence_EmptyRootListsNothing(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	workflows, err := fp.Workflows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, workflows)

	executions, err := fp.Executions(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, executions)
}

func TestPersistence_FileURLPrefixStripped(t *testing.T) {
	dir := t.TempDir()
	fp := NewPersistence("file://" + dir)

	require.NoError(t, fp.SaveWorkflow(context.Background(), &models.Workflow{ID: "wf-1", Name: "x"}))

	_, err := fp.WorkflowByID(context.Background(), "wf-1")
	assert.NoError(t, err)
}
