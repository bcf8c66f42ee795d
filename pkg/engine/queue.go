package engine

import (
	"sync"

	"github.com/tasklab/automation/pkg/models"
)

// RunQueue is the single logical queue of pending executions, drained
// by the engine's polling loop.
type RunQueue struct {
	mu      sync.Mutex
	pending []*models.Execution
}

func NewRunQueue() *RunQueue {
	return &RunQueue{}
}

func (q *RunQueue) Enqueue(execution *models.Execution) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, execution)
}

// Dequeue pops the oldest pending execution.
func (q *RunQueue) Dequeue() (*models.Execution, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, false
	}

	execution := q.pending[0]
	q.pending = q.pending[1:]

	return execution, true
}

// Requeue puts an execution back at the tail, used when the concurrency
// gate refuses admission.
func (q *RunQueue) Requeue(execution *models.Execution) {
	q.Enqueue(execution)
}

// Remove takes a pending execution out of the queue, used for
// cancellation before the run starts.
func (q *RunQueue) Remove(executionID string) (*models.Execution, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, execution := range q.pending {
		if execution.ID == executionID {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)

			return execution, true
		}
	}

	return nil, false
}

func (q *RunQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}
