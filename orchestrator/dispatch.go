package orchestrator

import (
	"context"
	"fmt"

	"codeforge.dev/agentcore/agentreq"
	"codeforge.dev/agentcore/agents"
	"codeforge.dev/agentcore/llmgateway"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
)

// readOnlyTools are the tool names that never mutate the workspace, used
// to detect a mutating task whose agent only read state and never wrote
// anything — the no-op mutation the Adaptive Prompt Optimizer exists to
// correct (the agent only called read_file).
var readOnlyTools = map[string]struct{}{
	"read_file": {}, "list_dir": {}, "tree_view": {}, "file_exists": {},
	"search_code": {}, "git_status": {}, "git_diff": {},
}

func isNoopMutation(t *task.Task, res agents.Result) bool {
	if res.Outcome != agents.OutcomeSuccess {
		return false
	}
	for _, ev := range res.ToolEvents {
		if _, readOnly := readOnlyTools[ev.ToolName]; !readOnly {
			return false
		}
	}
	return len(res.ToolEvents) > 0
}

// dispatchWithEscalation dispatches t through the agent Registry, then
// applies the Orchestrator's two escalation paths: the edit-strategy
// escalation after repeated failures of the same signature, and the
// Adaptive Prompt Optimizer after a mutating task that produced no actual
// mutation. Both retry the dispatch at most once per call.
func (l *Loop) dispatchWithEscalation(ctx context.Context, t *task.Task, rc *runctx.Context) (agents.Result, error) {
	res, err := l.Agents.Dispatch(ctx, t, rc)
	if err != nil {
		return res, err
	}

	switch res.Outcome {
	case agents.OutcomeSuccess:
		if t.ActionType.Mutating() && isNoopMutation(t, res) {
			if improved := l.tryAdaptivePromptImprovement(ctx, t, res, rc); improved {
				return l.Agents.Dispatch(ctx, t, rc)
			}
		}
		return res, nil

	case agents.OutcomeRecoveryRequested, agents.OutcomeFinalFailure:
		sig := failureSignature(t, res.Reason)
		count := l.failures.recordFailure(sig)
		if count >= l.Limits.MaxFailureSignatureRepeats {
			rc.AgentRequests().Push(agentreq.KindEditStrategyEscalation,
				fmt.Sprintf("task %s repeated failure %q %d times on %v; switch to full-file rewrite (read_file, construct new content, write_file)", t.ID, res.Reason, count, t.TargetFiles),
				agentreq.PriorityHigh)
			l.failures.resetFailure(sig)
			t.OverrideSystemPrompt = editStrategyEscalationPrompt
			return l.Agents.Dispatch(ctx, t, rc)
		}
		return res, nil

	default:
		return res, nil
	}
}

const editStrategyEscalationPrompt = `Previous attempts to edit this file via substring or patch replacement failed ` +
	`repeatedly. Switch strategy: call read_file to get the full current content, construct the complete new file ` +
	`content yourself, then call write_file with the entire new content. Do not attempt replace_in_file or apply_patch again.`

// tryAdaptivePromptImprovement asks the Gateway to rewrite t's system
// prompt to emphasize the missing behavior, attaches it via
// OverrideSystemPrompt, and reports whether a retry should be attempted.
// Capped at MaxAdaptivePromptImprovements per failure signature.
func (l *Loop) tryAdaptivePromptImprovement(ctx context.Context, t *task.Task, res agents.Result, rc *runctx.Context) bool {
	sig := failureSignature(t, "NOOP_MUTATION")
	if l.failures.promptImprovementCount(sig) >= l.Limits.MaxAdaptivePromptImprovements {
		return false
	}

	prompt := fmt.Sprintf(
		"The agent for task %q (%s) only called read-only tools (%v) despite the task requiring a file mutation. "+
			"Rewrite its system prompt to explicitly require calling a mutating tool (write_file, replace_in_file, or apply_patch) before returning. "+
			"Respond with only the new system prompt text.", t.Description, t.ActionType, toolNames(res.ToolEvents))

	resp, err := l.Gateway.Chat(ctx, llmgateway.Request{
		Messages: []llmgateway.Message{
			{Role: llmgateway.RoleSystem, Parts: []llmgateway.Part{llmgateway.Text("You improve system prompts for coding agents that failed to act.")}},
			{Role: llmgateway.RoleUser, Parts: []llmgateway.Part{llmgateway.Text(prompt)}},
		},
		SupportsTools: false,
	})
	if err != nil || resp.Text() == "" {
		return false
	}

	t.OverrideSystemPrompt = resp.Text()
	l.failures.recordPromptImprovement(sig)
	rc.AgentRequests().Push(agentreq.KindAdaptivePromptImproved, "system prompt rewritten for task "+t.ID, agentreq.PriorityLow)
	return true
}

func toolNames(events []task.ToolEvent) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ToolName)
	}
	return out
}
