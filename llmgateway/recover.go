package llmgateway

import (
	"encoding/json"
	"regexp"
	"strings"
)

// codeFence matches a fenced JSON block: ```json ... ``` or a bare ``` ...
// ``` block, whichever the model produced instead of a real tool call.
var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// candidateObject matches the span from the first '{' to the last '}' in
// free text, used when the model didn't even bother with a code fence.
var candidateObject = regexp.MustCompile(`(?s)\{.*\}`)

// recoveredCall is the shape a model is asked (by convention, never by a
// retry loop that mutates the original request) to emit when it answers
// with prose instead of a real tool call.
type recoveredCall struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// Recover implements bounded text-to-tool-call recovery: when a model
// responds with prose that was clearly meant to be a tool call, extract a
// {"tool": "...", "args": {...}} object from the text and
// turn it into a ToolCall, but only when the named tool is in allowedTools.
// This never invents calls out of nothing — it returns ok=false for any
// text that doesn't parse into the expected shape or names an
// un-allowlisted tool, which callers must treat as a genuine prose
// response rather than retry indefinitely.
func Recover(text string, allowedTools []string) (call ToolCall, ok bool) {
	allowed := make(map[string]struct{}, len(allowedTools))
	for _, t := range allowedTools {
		allowed[t] = struct{}{}
	}

	for _, candidate := range extractCandidates(text) {
		var rc recoveredCall
		if err := json.Unmarshal([]byte(candidate), &rc); err != nil {
			continue
		}
		name := strings.TrimSpace(rc.Tool)
		if name == "" {
			continue
		}
		if _, permitted := allowed[name]; !permitted {
			continue
		}
		args := rc.Args
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		return ToolCall{Name: name, Payload: args}, true
	}
	return ToolCall{}, false
}

// extractCandidates returns, in priority order, every substring of text
// that might be the JSON object the model intended as its tool call: fenced
// blocks first (most likely a deliberate attempt), then the span from the
// first '{' to the last '}'.
func extractCandidates(text string) []string {
	var out []string
	for _, m := range codeFence.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	if m := candidateObject.FindString(text); m != "" {
		out = append(out, m)
	}
	return out
}
