package engine

import (
	"sync"

	"github.com/tasklab/automation/pkg/models"
)

// WorkflowStore holds the active workflow definitions in memory, keyed
// by id. Activation adds a definition, deactivation removes it; the
// engine only runs workflows present here.
type WorkflowStore struct {
	mu        sync.RWMutex
	workflows map[string]*models.Workflow
}

func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{workflows: make(map[string]*models.Workflow)}
}

func (s *WorkflowStore) Add(workflow *models.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows[workflow.ID] = workflow
}

func (s *WorkflowStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.workflows, id)
}

func (s *WorkflowStore) Get(id string) (*models.Workflow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflow, ok := s.workflows[id]

	return workflow, ok
}

func (s *WorkflowStore) All() []*models.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Workflow, 0, len(s.workflows))
	for _, workflow := range s.workflows {
		all = append(all, workflow)
	}

	return all
}
