// Package engine drives workflow executions: a run queue drained by a
// polling loop, a per-workflow concurrency gate, a step executor with
// retry and timeout handling, and the run state machine.
package engine

import "sync"

// Gate bounds the number of simultaneously running executions per
// workflow. It is the only shared mutable state in the subsystem; every
// Admit must be matched by exactly one Release, including on error paths.
type Gate struct {
	mu      sync.Mutex
	running map[string]int
}

func NewGate() *Gate {
	return &Gate{running: make(map[string]int)}
}

// Admit reserves a running slot for the workflow when the current count
// is below max. The caller must queue or reject the run when it returns
// false.
func (g *Gate) Admit(workflowID string, max int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if max < 1 {
		max = 1
	}

	if g.running[workflowID] >= max {
		return false
	}

	g.running[workflowID]++

	return true
}

// Release frees a slot when an execution reaches a terminal status.
func (g *Gate) Release(workflowID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running[workflowID] > 0 {
		g.running[workflowID]--
	}

	if g.running[workflowID] == 0 {
		delete(g.running, workflowID)
	}
}

// Running returns the current running count for a workflow.
func (g *Gate) Running(workflowID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.running[workflowID]
}
