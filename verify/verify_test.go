package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolinvoke"
	"codeforge.dev/agentcore/toolreg"
)

func newTestPipeline(t *testing.T, ws string) *Pipeline {
	t.Helper()
	reg := toolreg.New()
	for _, spec := range toolinvoke.BuiltinSpecs() {
		if err := reg.Register(spec); err != nil {
			t.Fatal(err)
		}
	}
	inv := toolinvoke.New(ws, reg)
	return &Pipeline{Invoker: inv}
}

func TestRun_GoSyntaxError_Fails(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "broken.go"), []byte("package main\nfunc main( {\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := newTestPipeline(t, ws)
	tk := task.New("t1", task.ActionEdit, "edit broken.go", []string{"broken.go"})

	report := p.Run(context.Background(), tk, nil)
	if report.Verdict != VerdictFailed {
		t.Fatalf("Verdict = %v, want failed: %+v", report.Verdict, report.Stages)
	}
}

func TestRun_GoSyntaxValid_Passes(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "ok.go"), []byte("package main\n\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := newTestPipeline(t, ws)
	tk := task.New("t1", task.ActionEdit, "edit ok.go", []string{"ok.go"})

	report := p.Run(context.Background(), tk, nil)
	if report.Verdict != VerdictPassed {
		t.Fatalf("Verdict = %v, want passed: %+v", report.Verdict, report.Stages)
	}
}

func TestRun_NoTargetFiles_Passes(t *testing.T) {
	ws := t.TempDir()
	p := newTestPipeline(t, ws)
	tk := task.New("t1", task.ActionEdit, "no files", nil)

	report := p.Run(context.Background(), tk, nil)
	if report.Verdict != VerdictPassed {
		t.Fatalf("Verdict = %v, want passed for a task with no target files", report.Verdict)
	}
}

func TestWorse(t *testing.T) {
	if worse(VerdictPassed, VerdictInconclusive) != VerdictInconclusive {
		t.Fatal("inconclusive should outrank passed")
	}
	if worse(VerdictInconclusive, VerdictFailed) != VerdictFailed {
		t.Fatal("failed should outrank inconclusive")
	}
	if worse(VerdictFailed, VerdictPassed) != VerdictFailed {
		t.Fatal("failed should outrank passed")
	}
}
