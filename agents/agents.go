// Package agents implements the Specialized Agents: a closed set of
// role-bound executors (writer, test executor, refactor, debug, fix,
// document, research, analysis, tool-create), each owning its own system
// prompt, allowed tool subset, and pre/post validation.
//
// The shared Agent interface and Registry register once at startup and
// resolve by a stable key (here task.ActionType) at dispatch time, with no
// reflection-based method lookup.
package agents

import (
	"context"
	"fmt"
	"sync"

	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
)

// Outcome is the closed set of results a Specialized Agent's Execute call
// may return.
type Outcome string

const (
	// OutcomeSuccess means a tool call was executed and appended to the
	// task's tool-event log.
	OutcomeSuccess Outcome = "success"
	// OutcomeRecoveryRequested means the agent could not proceed (a failed
	// pre-check, or a model response with no recoverable tool call) but the
	// Orchestrator may retry after rewording or re-routing.
	OutcomeRecoveryRequested Outcome = "recovery_requested"
	// OutcomeFinalFailure means recovery was attempted and exhausted; the
	// Orchestrator must mark the task failed or escalate.
	OutcomeFinalFailure Outcome = "final_failure"
	// OutcomePromptImproved means the agent's system prompt was rewritten
	// by the Adaptive Prompt Optimizer and the task should be retried with
	// the new prompt on task.OverrideSystemPrompt.
	OutcomePromptImproved Outcome = "prompt_improved"
)

// Result is the structured return value of Agent.Execute.
type Result struct {
	Outcome Outcome

	// Reason is a short machine-readable code (e.g. "MISSING_TARGET_FILE",
	// "NO_TOOL_CALL", "FILE_NOT_FOUND") set on RecoveryRequested and
	// FinalFailure outcomes.
	Reason string
	// Detail is a human-readable elaboration of Reason.
	Detail string
	// NewPrompt carries the rewritten system prompt on PromptImproved.
	NewPrompt string

	// ToolEvents lists every tool invocation this Execute call appended to
	// the task's log, for callers that want the delta without re-reading
	// the full task log.
	ToolEvents []task.ToolEvent
}

// Agent is the shared contract every Specialized Agent role implements.
type Agent interface {
	// Execute runs one agent turn against the task: build the conversation
	// frame, invoke the LLM Gateway, execute or recover a tool call, append
	// the resulting tool event(s), and report the outcome.
	Execute(ctx context.Context, t *task.Task, rc *runctx.Context) (Result, error)
}

// Registry resolves the Agent responsible for a task.ActionType. Built once
// at startup from cmd/agentcore; never mutated mid-run.
type Registry struct {
	mu     sync.RWMutex
	agents map[task.ActionType]Agent
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[task.ActionType]Agent)}
}

// Register binds an Agent to an action type. Registering the same action
// type twice overwrites the previous binding; callers that want federation
// semantics should do so deliberately.
func (r *Registry) Register(a task.ActionType, agent Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a] = agent
}

// Resolve returns the Agent bound to a task's action type.
func (r *Registry) Resolve(a task.ActionType) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ag, ok := r.agents[a]
	return ag, ok
}

// Dispatch resolves and executes the agent for t.ActionType, surfacing a
// descriptive error when no agent is registered for that action type
// rather than letting a nil-interface call panic.
func (r *Registry) Dispatch(ctx context.Context, t *task.Task, rc *runctx.Context) (Result, error) {
	ag, ok := r.Resolve(t.ActionType)
	if !ok {
		return Result{}, fmt.Errorf("agents: no agent registered for action type %q", t.ActionType)
	}
	return ag.Execute(ctx, t, rc)
}
