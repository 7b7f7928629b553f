package verify

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"codeforge.dev/agentcore/task"
)

var relativeImportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:import|from)\s+['"](\.\.?/[^'"]+)['"]`),
	regexp.MustCompile(`require\(\s*['"](\.\.?/[^'"]+)['"]\s*\)`),
	regexp.MustCompile(`from\s+(\.[a-zA-Z0-9_.]*)\s+import`),
}

// runImportStage checks that relative imports in every target file
// resolve to files that exist. Unlike the Writer agent's post-check (which
// only surfaces a non-blocking agent_request), a pipeline failure here is
// reported inconclusive rather than failed: an unresolved relative import
// is sometimes a legitimate new file the task is about to create in a
// later step, not necessarily a defect.
func (p *Pipeline) runImportStage(t *task.Task) []StageResult {
	var out []StageResult
	for _, rel := range t.TargetFiles {
		abs, err := p.Invoker.ResolvePath(rel)
		if err != nil {
			continue
		}
		content, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		dir := filepath.Dir(abs)
		var missing []string
		for _, pat := range relativeImportPatterns {
			for _, m := range pat.FindAllStringSubmatch(string(content), -1) {
				ref := m[1]
				if !importTargetExists(resolveImportCandidate(dir, ref)) {
					missing = append(missing, ref)
				}
			}
		}
		if len(missing) > 0 {
			out = append(out, StageResult{
				Stage: "imports", Verdict: VerdictInconclusive, Category: "unresolved_relative_import",
				Detail: rel + ": " + strings.Join(missing, ", "),
			})
		}
	}
	return out
}

func resolveImportCandidate(dir, ref string) string {
	if strings.HasPrefix(ref, ".") {
		return filepath.Join(dir, filepath.FromSlash(ref))
	}
	return ""
}

func importTargetExists(path string) bool {
	if path == "" {
		return true
	}
	candidates := []string{path, path + ".go", path + ".js", path + ".ts", path + ".py",
		filepath.Join(path, "index.js"), filepath.Join(path, "index.ts"), filepath.Join(path, "__init__.py")}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return true
		}
	}
	return false
}
