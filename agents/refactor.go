package agents

// RefactorAgent handles action_type refactor: structural changes that
// preserve behavior. Shares the common contract via SimpleAgent.
type RefactorAgent struct{ *SimpleAgent }

// NewRefactorAgent constructs a RefactorAgent.
func NewRefactorAgent(r *Runner) *RefactorAgent {
	return &RefactorAgent{newSimpleAgent(r, refactorSystemPrompt, refactorAllowedTools)}
}

const refactorSystemPrompt = `You are the Refactor agent. Restructure the ` +
	`named code without changing observable behavior. Read the current ` +
	`content of any file before editing it; never guess at content you have ` +
	`not seen.`

var refactorAllowedTools = []string{"read_file", "search_code", "apply_patch", "replace_in_file", "write_file"}
