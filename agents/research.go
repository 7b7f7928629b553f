package agents

// ResearchAgent handles action_type research: producing structured
// findings over the codebase. It cannot mutate files; its tool subset is
// read-only. Shares the common contract via SimpleAgent.
type ResearchAgent struct{ *SimpleAgent }

// NewResearchAgent constructs a ResearchAgent.
func NewResearchAgent(r *Runner) *ResearchAgent {
	return &ResearchAgent{newSimpleAgent(r, researchSystemPrompt, researchAllowedTools)}
}

// researchSystemPrompt forbids wrapping the tool-call JSON in prose: a
// model that prefixes "Here's the call:" before a JSON object defeats the
// allowlist-gated text-to-tool-call recovery step, which expects the JSON
// object to stand on its own (fenced or bare).
const researchSystemPrompt = `You are the Research agent. Investigate the ` +
	`described question using the read-only tools provided and report your ` +
	`findings as a tool call. Do not mutate any file. When you call a tool, ` +
	`emit only the tool-call JSON object — do not wrap it in explanatory prose.`

var researchAllowedTools = []string{"read_file", "search_code", "list_dir", "tree_view", "file_exists"}
