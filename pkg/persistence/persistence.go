// Package persistence abstracts durable storage of workflow definitions
// and execution records. The engine treats execution writes as
// best-effort: a failed write is logged, never aborts a run in progress.
package persistence

import (
	"context"

	"github.com/tasklab/automation/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error

	Executions(ctx context.Context, workflowID string) ([]*models.Execution, error)
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	SaveExecution(ctx context.Context, execution *models.Execution) error
	UpdateExecution(ctx context.Context, execution *models.Execution) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
