package agents

// AnalysisAgent handles action_types analyze and review: producing
// structured findings about existing code without mutating it. Shares
// the common contract via SimpleAgent.
type AnalysisAgent struct{ *SimpleAgent }

// NewAnalysisAgent constructs an AnalysisAgent.
func NewAnalysisAgent(r *Runner) *AnalysisAgent {
	return &AnalysisAgent{newSimpleAgent(r, analysisSystemPrompt, analysisAllowedTools)}
}

const analysisSystemPrompt = `You are the Analysis agent. Examine the ` +
	`described code using the read-only tools provided and report structured ` +
	`findings as a tool call. Do not mutate any file. Emit only the tool-call ` +
	`JSON object — do not wrap it in explanatory prose.`

var analysisAllowedTools = []string{"read_file", "search_code", "list_dir", "tree_view", "git_diff"}
