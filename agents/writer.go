package agents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"codeforge.dev/agentcore/agentreq"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
)

// WriterAgent handles action_types edit, add, and create: the only
// Specialized Agent role whose tool set includes the destructive file
// mutation primitives.
type WriterAgent struct{ *Runner }

// NewWriterAgent constructs a WriterAgent over the shared collaborators.
func NewWriterAgent(r *Runner) *WriterAgent { return &WriterAgent{Runner: r} }

const writerSystemPrompt = `You are the Writer agent. You edit, add, or ` +
	`create files in the workspace using the tools provided. Prefer the ` +
	`smallest change that satisfies the task. When calling replace_in_file, ` +
	`the find parameter must be a byte-exact substring of the file's current ` +
	`content shown below; never guess at content you have not been shown.`

var writerEditTools = []string{"apply_patch", "replace_in_file", "write_file"}
var writerCreateTools = []string{"apply_patch", "replace_in_file", "write_file", "copy_file", "move_file"}

// Execute implements Agent.
func (w *WriterAgent) Execute(ctx context.Context, t *task.Task, rc *runctx.Context) (Result, error) {
	allowed := writerCreateTools
	brief := t.Description

	if t.ActionType == task.ActionEdit {
		allowed = writerEditTools
		if len(t.TargetFiles) == 0 {
			return Result{Outcome: OutcomeRecoveryRequested, Reason: "MISSING_TARGET_FILE",
				Detail: "edit task description names no target file"}, nil
		}
		target := t.TargetFiles[0]
		abs, err := w.Invoker.ResolvePath(target)
		if err != nil {
			return Result{Outcome: OutcomeRecoveryRequested, Reason: "FILE_NOT_FOUND", Detail: err.Error()}, nil
		}
		content, err := os.ReadFile(abs)
		if err != nil {
			return Result{Outcome: OutcomeRecoveryRequested, Reason: "FILE_NOT_FOUND", Detail: err.Error()}, nil
		}
		brief = fmt.Sprintf("%s\n\nCurrent contents of %s:\n```\n%s\n```\nAny find parameter to "+
			"replace_in_file must be a byte-exact substring of the content above.", t.Description, target, content)
	}

	res, err := w.run(ctx, t, rc, roleConfig{systemPrompt: writerSystemPrompt, allowedTools: allowed}, brief)
	if err != nil || res.Outcome != OutcomeSuccess {
		return res, err
	}
	w.checkRelativeImports(t, rc)
	return res, nil
}

var relativeImportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:import|from)\s+['"](\.\.?/[^'"]+)['"]`),
	regexp.MustCompile(`require\(\s*['"](\.\.?/[^'"]+)['"]\s*\)`),
	regexp.MustCompile(`from\s+(\.[a-zA-Z0-9_.]*)\s+import`),
}

// checkRelativeImports implements the Writer's post-check: after a
// write_file (or a patch that rewrote a file's content), scan the written
// file for relative import statements and verify the referenced paths
// resolve to files that exist on disk. Failures are non-blocking — the
// user may still approve an intentional new dependency — so this only
// pushes a low-priority agent_request, never a RecoveryRequested outcome.
func (w *WriterAgent) checkRelativeImports(t *task.Task, rc *runctx.Context) {
	if len(t.TargetFiles) == 0 {
		return
	}
	target := t.TargetFiles[0]
	abs, err := w.Invoker.ResolvePath(target)
	if err != nil {
		return
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return
	}
	dir := filepath.Dir(abs)
	var missing []string
	for _, pat := range relativeImportPatterns {
		for _, m := range pat.FindAllStringSubmatch(string(content), -1) {
			ref := m[1]
			candidate := resolveImportCandidate(dir, ref)
			if candidate == "" {
				continue
			}
			if !importTargetExists(candidate) {
				missing = append(missing, ref)
			}
		}
	}
	if len(missing) > 0 {
		rc.AgentRequests().Push(agentreq.KindMissingTargetFile,
			fmt.Sprintf("%s: relative import(s) do not resolve to existing files: %s", target, strings.Join(missing, ", ")),
			agentreq.PriorityLow)
	}
}

func resolveImportCandidate(dir, ref string) string {
	if strings.HasPrefix(ref, ".") {
		return filepath.Join(dir, filepath.FromSlash(ref))
	}
	return ""
}

// importTargetExists checks the literal path plus a handful of common
// extension/index suffixes, since import statements usually omit the
// file extension.
func importTargetExists(path string) bool {
	candidates := []string{path, path + ".go", path + ".js", path + ".ts", path + ".py",
		filepath.Join(path, "index.js"), filepath.Join(path, "index.ts"), filepath.Join(path, "__init__.py")}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return true
		}
	}
	return false
}
