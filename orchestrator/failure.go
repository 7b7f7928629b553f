package orchestrator

import (
	"sync"

	"codeforge.dev/agentcore/task"
)

// failureSignature identifies a repeated failure by (action_type,
// primary_target, failure_category).
func failureSignature(t *task.Task, category string) string {
	primary := ""
	if len(t.TargetFiles) > 0 {
		primary = t.TargetFiles[0]
	}
	return string(t.ActionType) + ":" + primary + ":" + category
}

// failureTracker counts repeated failure signatures and adaptive prompt
// improvements per signature, both reset independently: a failure-count
// reset happens when the edit-strategy escalation fires; the
// prompt-improvement count is capped separately and never reset within a
// run.
type failureTracker struct {
	mu                sync.Mutex
	failureCounts     map[string]int
	promptImprovements map[string]int
}

func newFailureTracker() *failureTracker {
	return &failureTracker{
		failureCounts:      make(map[string]int),
		promptImprovements: make(map[string]int),
	}
}

func (ft *failureTracker) recordFailure(sig string) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.failureCounts[sig]++
	return ft.failureCounts[sig]
}

func (ft *failureTracker) resetFailure(sig string) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	delete(ft.failureCounts, sig)
}

func (ft *failureTracker) promptImprovementCount(sig string) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.promptImprovements[sig]
}

func (ft *failureTracker) recordPromptImprovement(sig string) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.promptImprovements[sig]++
	return ft.promptImprovements[sig]
}
