// Package file provides file-based persistence: one JSON document per
// workflow and per execution under a root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tasklab/automation/pkg/models"
	"github.com/tasklab/automation/pkg/persistence"
)

const dirPerm = 0o750

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (fp *Persistence) workflowPath(id string) string {
	return filepath.Join(fp.root, "workflows", id+".json")
}

func (fp *Persistence) executionPath(id string) string {
	return filepath.Join(fp.root, "executions", id+".json")
}

func (fp *Persistence) Workflows(_ context.Context) ([]*models.Workflow, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	dir := filepath.Join(fp.root, "workflows")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.Workflow{}, nil
		}

		return nil, fmt.Errorf("failed to read workflows directory: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		var workflow models.Workflow
		if err := readJSON(filepath.Join(dir, entry.Name()), &workflow); err != nil {
			return nil, err
		}

		workflows = append(workflows, &workflow)
	}

	return workflows, nil
}

func (fp *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	var workflow models.Workflow

	err := readJSON(fp.workflowPath(id), &workflow)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrWorkflowNotFound, id)
		}

		return nil, err
	}

	return &workflow, nil
}

func (fp *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	return writeJSON(fp.workflowPath(workflow.ID), workflow)
}

func (fp *Persistence) Executions(_ context.Context, workflowID string) ([]*models.Execution, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	dir := filepath.Join(fp.root, "executions")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.Execution{}, nil
		}

		return nil, fmt.Errorf("failed to read executions directory: %w", err)
	}

	executions := make([]*models.Execution, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		var execution models.Execution
		if err := readJSON(filepath.Join(dir, entry.Name()), &execution); err != nil {
			return nil, err
		}

		if workflowID == "" || execution.WorkflowID == workflowID {
			executions = append(executions, &execution)
		}
	}

	return executions, nil
}

func (fp *Persistence) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	var execution models.Execution

	err := readJSON(fp.executionPath(id), &execution)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrExecutionNotFound, id)
		}

		return nil, err
	}

	return &execution, nil
}

func (fp *Persistence) SaveExecution(_ context.Context, execution *models.Execution) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	return writeJSON(fp.executionPath(execution.ID), execution)
}

func (fp *Persistence) UpdateExecution(ctx context.Context, execution *models.Execution) error {
	return fp.SaveExecution(ctx, execution)
}

func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

func readJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return nil
}

func writeJSON(path string, source any) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(source, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return os.Rename(tmp, path)
}
