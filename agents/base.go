package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codeforge.dev/agentcore/llmgateway"
	"codeforge.dev/agentcore/resilient"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolinvoke"
	"codeforge.dev/agentcore/toolreg"
)

// Runner holds the collaborators every Specialized Agent role shares:
// the LLM Gateway, the tool registry and invoker, and the Resilient
// Executor that wraps tool dispatch with retry/backoff and idempotency
// caching. Role files (writer.go, testexec.go, ...) embed a *Runner and
// call run with their own system prompt and allowed-tool subset.
type Runner struct {
	Gateway  llmgateway.Gateway
	ToolReg  *toolreg.Registry
	Invoker  *toolinvoke.Invoker
	Executor *resilient.Executor
}

// roleConfig is the per-role configuration passed to run.
type roleConfig struct {
	systemPrompt        string
	allowedTools        []string
	maxRecoveryAttempts int
}

const defaultMaxRecoveryAttempts = 2

// run implements the common contract shared by every Specialized Agent:
// build the conversation frame from the role's system prompt (overridable
// by task.OverrideSystemPrompt) and a task brief, invoke the LLM Gateway
// once, execute a structured tool call or recover one from prose, and
// append the resulting tool event before returning.
func (r *Runner) run(ctx context.Context, t *task.Task, rc *runctx.Context, cfg roleConfig, brief string) (Result, error) {
	if cfg.maxRecoveryAttempts <= 0 {
		cfg.maxRecoveryAttempts = defaultMaxRecoveryAttempts
	}
	systemPrompt := cfg.systemPrompt
	if t.OverrideSystemPrompt != "" {
		systemPrompt = t.OverrideSystemPrompt
	}

	defs := r.toolDefinitions(t, cfg.allowedTools)

	frame := llmgateway.NewFrame(systemPrompt)
	frame.Append(llmgateway.RoleUser, llmgateway.Text(brief))

	req := frame.ToRequest(defs, llmgateway.ToolChoiceAuto, true)
	resp, err := r.Gateway.Chat(ctx, req)
	if err != nil {
		return Result{}, err
	}

	call, ok := firstToolCall(resp, cfg.allowedTools)
	if !ok {
		return Result{
			Outcome: OutcomeRecoveryRequested,
			Reason:  "NO_TOOL_CALL",
			Detail:  "model response contained no recoverable tool call",
		}, nil
	}

	return r.dispatch(ctx, t, call)
}

// toolDefinitions narrows the registry's tool set for this task's action
// type down to the role's allowed-tool names, preserving registration
// order.
func (r *Runner) toolDefinitions(t *task.Task, allowed []string) []llmgateway.ToolDefinition {
	allowSet := make(map[string]struct{}, len(allowed))
	for _, n := range allowed {
		allowSet[n] = struct{}{}
	}
	specs := r.ToolReg.ForActionType(t.ActionType)
	out := make([]llmgateway.ToolDefinition, 0, len(specs))
	for _, s := range specs {
		if _, ok := allowSet[s.Name]; !ok {
			continue
		}
		out = append(out, llmgateway.ToolDefinition{Name: s.Name, Description: s.Description, Parameters: s.Parameters})
	}
	return out
}

// firstToolCall returns the first structured tool call in resp whose name
// is in allowed, otherwise attempts text-to-tool-call recovery over the
// allowlist.
func firstToolCall(resp llmgateway.Response, allowed []string) (llmgateway.ToolCall, bool) {
	for _, call := range resp.ToolCalls {
		for _, name := range allowed {
			if call.Name == name {
				return call, true
			}
		}
	}
	return llmgateway.Recover(resp.Text(), allowed)
}

// dispatch executes a resolved tool call through the Resilient Executor
// and the Tool Invoker, appends the resulting tool event to t, and
// reports Success or RecoveryRequested depending on the return code.
func (r *Runner) dispatch(ctx context.Context, t *task.Task, call llmgateway.ToolCall) (Result, error) {
	idemKey := t.ID + ":" + task.DigestArgs(call.Payload)
	start := time.Now()

	outcome := r.Executor.Execute(ctx, idemKey, func(ctx context.Context) (any, error) {
		return r.Invoker.Invoke(ctx, call.Name, call.Payload)
	})

	var res toolinvoke.Result
	if len(outcome.Result) > 0 {
		_ = json.Unmarshal(outcome.Result, &res)
	}
	diagnosis := ""
	if res.Diagnosis != nil {
		diagnosis = res.Diagnosis.SuggestedFix
	}

	ev := task.ToolEvent{
		ToolName:       call.Name,
		ArgsDigest:     task.DigestArgs(call.Payload),
		ResultDigest:   task.DigestArgs(outcome.Result),
		RC:             res.RC,
		Diagnosis:      diagnosis,
		DurationMS:     time.Since(start).Milliseconds(),
		IdempotencyKey: idemKey,
	}
	t.AppendToolEvent(ev)

	if !outcome.Success {
		reason := "TOOL_EXECUTION_FAILED"
		detail := ""
		if outcome.Err != nil {
			detail = outcome.Err.Error()
		}
		return Result{Outcome: OutcomeRecoveryRequested, Reason: reason, Detail: detail, ToolEvents: []task.ToolEvent{ev}}, nil
	}
	if res.RC != 0 {
		return Result{
			Outcome:    OutcomeRecoveryRequested,
			Reason:     "TOOL_NONZERO_EXIT",
			Detail:     fmt.Sprintf("%s exited %d", call.Name, res.RC),
			ToolEvents: []task.ToolEvent{ev},
		}, nil
	}
	return Result{Outcome: OutcomeSuccess, ToolEvents: []task.ToolEvent{ev}}, nil
}

// SimpleAgent implements roles that share the common contract with no
// pre/post checks beyond a fixed system prompt and allowed-tool subset:
// Refactor, Debug, Fix, and Document. Research and Analysis also embed it;
// their allowed-tool subsets hold only read-only tools, and run never
// dispatches a tool call whose name is outside the role's subset.
type SimpleAgent struct {
	*Runner
	cfg roleConfig
}

func newSimpleAgent(r *Runner, systemPrompt string, allowedTools []string) *SimpleAgent {
	return &SimpleAgent{Runner: r, cfg: roleConfig{systemPrompt: systemPrompt, allowedTools: allowedTools}}
}

// Execute implements Agent.
func (s *SimpleAgent) Execute(ctx context.Context, t *task.Task, rc *runctx.Context) (Result, error) {
	return s.run(ctx, t, rc, s.cfg, t.Description)
}
