package agents

// DebugAgent handles action_type debug: diagnosing a reported failure
// without necessarily changing code. Shares the common contract via
// SimpleAgent.
type DebugAgent struct{ *SimpleAgent }

// NewDebugAgent constructs a DebugAgent.
func NewDebugAgent(r *Runner) *DebugAgent {
	return &DebugAgent{newSimpleAgent(r, debugSystemPrompt, debugAllowedTools)}
}

const debugSystemPrompt = `You are the Debug agent. Investigate the ` +
	`reported failure: read relevant files, search for the failing code ` +
	`path, and run commands needed to reproduce it. Report findings via the ` +
	`tools provided; only write a file when the task explicitly asks for a fix.`

var debugAllowedTools = []string{"read_file", "search_code", "list_dir", "run_cmd", "file_exists"}
