package verify

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"os/exec"
	"path/filepath"
	"time"

	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolinvoke"
)

// externalToolchain maps a file extension to the command that checks a
// single file's syntax without executing it, shelling out to the project's
// own toolchain rather than vendoring a parser for every language it might
// encounter.
var externalToolchain = map[string]struct {
	command string
	args    func(path string) []string
}{
	".py": {"python3", func(path string) []string { return []string{"-m", "py_compile", path} }},
	".js": {"node", func(path string) []string { return []string{"--check", path} }},
	".mjs": {"node", func(path string) []string { return []string{"--check", path} }},
}

// runSyntaxStage checks every one of t's target files for syntax errors.
// Go files are parsed in-process via go/parser; other known extensions
// shell out to their own toolchain's check mode via the Tool Invoker.
// A missing toolchain binary is reported inconclusive, never failed —
// the pipeline cannot assert a syntax error it has no way to detect.
func (p *Pipeline) runSyntaxStage(ctx context.Context, t *task.Task) []StageResult {
	var out []StageResult
	for _, rel := range t.TargetFiles {
		abs, err := p.Invoker.ResolvePath(rel)
		if err != nil {
			out = append(out, StageResult{Stage: "syntax", Verdict: VerdictFailed, Category: "path_escapes_repo", Detail: err.Error()})
			continue
		}
		ext := filepath.Ext(rel)
		switch ext {
		case ".go":
			out = append(out, checkGoSyntax(abs))
		default:
			if chk, ok := externalToolchain[ext]; ok {
				out = append(out, p.checkExternalSyntax(ctx, abs, chk.command, chk.args(abs)))
			}
			// Unknown extensions (markdown, JSON, config) have no syntax
			// stage; they are skipped rather than reported inconclusive.
		}
	}
	return out
}

func checkGoSyntax(abs string) StageResult {
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, abs, nil, parser.AllErrors); err != nil {
		return StageResult{Stage: "syntax", Verdict: VerdictFailed, Category: "syntax_error", Detail: err.Error()}
	}
	return StageResult{Stage: "syntax", Verdict: VerdictPassed}
}

func (p *Pipeline) checkExternalSyntax(ctx context.Context, abs, command string, args []string) StageResult {
	if _, err := exec.LookPath(command); err != nil {
		return StageResult{Stage: "syntax", Verdict: VerdictInconclusive, Category: "toolchain_unavailable",
			Detail: fmt.Sprintf("%s not found on PATH", command)}
	}
	res := toolinvoke.RunSubprocess(ctx, filepath.Dir(abs), command, args, 30*time.Second)
	if res.RC != 0 {
		return StageResult{Stage: "syntax", Verdict: VerdictFailed, Category: "syntax_error", Detail: res.Stderr}
	}
	return StageResult{Stage: "syntax", Verdict: VerdictPassed}
}
