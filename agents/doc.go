package agents

// DocumentAgent handles action_type document: writing or updating
// documentation (README sections, doc comments) without changing program
// behavior. Shares the common contract via SimpleAgent.
type DocumentAgent struct{ *SimpleAgent }

// NewDocumentAgent constructs a DocumentAgent.
func NewDocumentAgent(r *Runner) *DocumentAgent {
	return &DocumentAgent{newSimpleAgent(r, documentSystemPrompt, documentAllowedTools)}
}

const documentSystemPrompt = `You are the Document agent. Write or update ` +
	`documentation for the described subject. Read the current content of ` +
	`any file before editing it; match the surrounding file's existing tone ` +
	`and density rather than imposing a template.`

var documentAllowedTools = []string{"read_file", "list_dir", "write_file", "replace_in_file"}
