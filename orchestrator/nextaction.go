package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"codeforge.dev/agentcore/llmgateway"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
)

// NextAction is the strict structured form the what's-next call must
// answer with: a single next task, or GOAL_ACHIEVED.
type NextAction struct {
	ActionType   task.ActionType `json:"action_type"`
	Description  string          `json:"description"`
	TargetFiles  []string        `json:"target_files"`
	GoalAchieved bool             `json:"-"`
}

const nextActionSystemPrompt = `You drive an autonomous coding run one task at a time. ` +
	`After each turn you will be told what happened. Respond with EXACTLY ONE of:
  - the literal text GOAL_ACHIEVED, if the original request is fully satisfied, or
  - a single JSON object describing the next task: {"action_type": "...", "description": "...", "target_files": ["..."]}
Do not wrap the JSON in prose. action_type must be one of: read, research, analyze, review, investigate, edit, add, create, refactor, delete, test, debug, fix, document, tool, execute.`

var goalAchievedPattern = regexp.MustCompile(`(?i)^\s*GOAL_ACHIEVED\s*$`)

// candidateObject matches the span from the first '{' to the last '}', in
// case the model wraps its JSON answer in prose despite instructions not
// to — the same defensive extraction style as llmgateway.Recover, kept as
// its own implementation since this call's response shape (a NextAction,
// not a ToolCall) differs from Recover's.
var candidateObject = regexp.MustCompile(`(?s)\{.*\}`)

// proposeNext builds the "what's next?" prompt from the running frame
// plus the run context's pending agent_requests, calls the Gateway with
// supports_tools=false, and parses the strict structured response.
func (l *Loop) proposeNext(ctx context.Context, rc *runctx.Context) (NextAction, error) {
	brief := l.buildNextActionBrief(rc)
	l.frame.Append(llmgateway.RoleUser, llmgateway.Text(brief))

	req := l.frame.ToRequest(nil, llmgateway.ToolChoiceNone, false)
	resp, err := l.Gateway.Chat(ctx, req)
	if err != nil {
		return NextAction{}, err
	}
	text := resp.Text()
	l.frame.Append(llmgateway.RoleAssistant, llmgateway.Text(text))

	if goalAchievedPattern.MatchString(text) {
		return NextAction{GoalAchieved: true}, nil
	}

	candidate := candidateObject.FindString(text)
	if candidate == "" {
		return NextAction{}, fmt.Errorf("orchestrator: what's-next response had no JSON object and was not GOAL_ACHIEVED: %q", text)
	}
	var next NextAction
	if err := json.Unmarshal([]byte(candidate), &next); err != nil {
		return NextAction{}, fmt.Errorf("orchestrator: what's-next response JSON did not parse: %w", err)
	}
	if strings.TrimSpace(string(next.ActionType)) == "" {
		return NextAction{}, fmt.Errorf("orchestrator: what's-next response named no action_type")
	}
	return next, nil
}

// buildNextActionBrief assembles the original request (already in the
// frame), the rolling completed-work summary, and any pending
// agent_requests into the context the what's-next call needs.
func (l *Loop) buildNextActionBrief(rc *runctx.Context) string {
	var b strings.Builder
	b.WriteString("Completed so far:\n")
	b.WriteString(rc.CompletedWorkSummary())
	b.WriteString("\n\nPending notices:\n")
	for _, req := range rc.AgentRequests().Drain() {
		fmt.Fprintf(&b, "- [%s] %s\n", req.Kind, req.Detail)
	}
	b.WriteString("\nWhat is the next task?")
	return b.String()
}
