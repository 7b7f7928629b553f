package agents

import (
	"context"

	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
)

// ToolCreateAgent handles action_type tool: requests to define a new tool.
// Mid-run tool registration is forbidden (toolreg.Registry.Register is
// only ever called once at startup, before any run begins), so this
// agent's only job is to produce a structured proposal for a human or a
// subsequent deployment to register, never to register one itself.
type ToolCreateAgent struct{ *Runner }

// NewToolCreateAgent constructs a ToolCreateAgent.
func NewToolCreateAgent(r *Runner) *ToolCreateAgent { return &ToolCreateAgent{Runner: r} }

const toolCreateSystemPrompt = `You are the Tool-Create agent. You cannot ` +
	`register a new tool during this run. Instead, propose the new tool's ` +
	`name, description, and JSON-Schema parameters as a write_file call ` +
	`against a proposal path the task names, so a human can review and ` +
	`register it before the next run.`

var toolCreateAllowedTools = []string{"write_file", "read_file"}

// Execute implements Agent. It runs the common contract with write_file and
// read_file as the only allowed tools. A structured call to any other tool
// is not dispatched; the agent then reports RecoveryRequested with reason
// NO_TOOL_CALL unless an allowed call can be recovered from the response
// text.
func (a *ToolCreateAgent) Execute(ctx context.Context, t *task.Task, rc *runctx.Context) (Result, error) {
	r := &SimpleAgent{Runner: a.Runner, cfg: roleConfig{systemPrompt: toolCreateSystemPrompt, allowedTools: toolCreateAllowedTools}}
	return r.Execute(ctx, t, rc)
}
