package agents

// FixAgent handles action_type fix: applying a targeted correction once a
// root cause is known (typically following a Debug task). Shares the
// common contract via SimpleAgent.
type FixAgent struct{ *SimpleAgent }

// NewFixAgent constructs a FixAgent.
func NewFixAgent(r *Runner) *FixAgent {
	return &FixAgent{newSimpleAgent(r, fixSystemPrompt, fixAllowedTools)}
}

const fixSystemPrompt = `You are the Fix agent. Apply the smallest change ` +
	`that corrects the described defect. Read the current content of any ` +
	`file before editing it; never guess at content you have not seen.`

var fixAllowedTools = []string{"read_file", "search_code", "apply_patch", "replace_in_file", "write_file", "run_cmd"}
