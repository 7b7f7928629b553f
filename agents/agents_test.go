package agents

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"codeforge.dev/agentcore/llmgateway"
	"codeforge.dev/agentcore/resilient"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolinvoke"
	"codeforge.dev/agentcore/toolreg"
)

type fakeGateway struct {
	resp llmgateway.Response
	err  error
}

func (f *fakeGateway) Chat(ctx context.Context, req llmgateway.Request) (llmgateway.Response, error) {
	return f.resp, f.err
}

func newTestRunner(t *testing.T, ws string, gw llmgateway.Gateway) *Runner {
	t.Helper()
	reg := toolreg.New()
	for _, spec := range toolinvoke.BuiltinSpecs() {
		if err := reg.Register(spec); err != nil {
			t.Fatalf("register %s: %v", spec.Name, err)
		}
	}
	inv := toolinvoke.New(ws, reg)
	inv.RegisterBuiltinHandlers()
	return &Runner{Gateway: gw, ToolReg: reg, Invoker: inv, Executor: resilient.New(nil)}
}

func TestRegistry_DispatchUnknownActionType(t *testing.T) {
	r := NewRegistry()
	tk := task.New("t1", task.ActionEdit, "edit something", nil)
	_, err := r.Dispatch(context.Background(), tk, runctx.New(runctx.Identity{}, t.TempDir()))
	if err == nil {
		t.Fatal("expected error for unregistered action type")
	}
}

func TestRegistry_ResolveAndDispatch(t *testing.T) {
	r := NewRegistry()
	ws := t.TempDir()
	payload, _ := json.Marshal(map[string]string{"path": "notes.txt", "content": "hello"})
	gw := &fakeGateway{resp: llmgateway.Response{ToolCalls: []llmgateway.ToolCall{{Name: "write_file", Payload: payload}}}}
	writer := NewWriterAgent(newTestRunner(t, ws, gw))
	r.Register(task.ActionAdd, writer)

	tk := task.New("t1", task.ActionAdd, "add a notes file", nil)
	res, err := r.Dispatch(context.Background(), tk, runctx.New(runctx.Identity{}, ws))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("Outcome = %v, want success: %+v", res.Outcome, res)
	}
	if _, err := os.Stat(filepath.Join(ws, "notes.txt")); err != nil {
		t.Fatalf("expected notes.txt to be written: %v", err)
	}
	if len(tk.ToolEvents()) != 1 {
		t.Fatalf("expected one tool event, got %d", len(tk.ToolEvents()))
	}
}

func TestWriterAgent_EditWithoutTargetFile(t *testing.T) {
	ws := t.TempDir()
	gw := &fakeGateway{}
	writer := NewWriterAgent(newTestRunner(t, ws, gw))

	tk := task.New("t1", task.ActionEdit, "fix the bug", nil)
	res, err := writer.Execute(context.Background(), tk, runctx.New(runctx.Identity{}, ws))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Outcome != OutcomeRecoveryRequested || res.Reason != "MISSING_TARGET_FILE" {
		t.Fatalf("got %+v, want RecoveryRequested/MISSING_TARGET_FILE", res)
	}
}

func TestWriterAgent_EditMissingFile(t *testing.T) {
	ws := t.TempDir()
	gw := &fakeGateway{}
	writer := NewWriterAgent(newTestRunner(t, ws, gw))

	tk := task.New("t1", task.ActionEdit, "fix main.go", []string{"main.go"})
	res, err := writer.Execute(context.Background(), tk, runctx.New(runctx.Identity{}, ws))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Outcome != OutcomeRecoveryRequested || res.Reason != "FILE_NOT_FOUND" {
		t.Fatalf("got %+v, want RecoveryRequested/FILE_NOT_FOUND", res)
	}
}

func TestWriterAgent_NoToolCallRecoveryRequested(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gw := &fakeGateway{resp: llmgateway.Response{Messages: []llmgateway.Message{{Role: llmgateway.RoleAssistant, Parts: []llmgateway.Part{llmgateway.Text("I'm not sure what to do.")}}}}}
	writer := NewWriterAgent(newTestRunner(t, ws, gw))

	tk := task.New("t1", task.ActionEdit, "fix main.go", []string{"main.go"})
	res, err := writer.Execute(context.Background(), tk, runctx.New(runctx.Identity{}, ws))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Outcome != OutcomeRecoveryRequested || res.Reason != "NO_TOOL_CALL" {
		t.Fatalf("got %+v, want RecoveryRequested/NO_TOOL_CALL", res)
	}
}

func TestTestExecutorAgent_SkipsWhenUpToDate(t *testing.T) {
	ws := t.TempDir()
	gw := &fakeGateway{}
	exec := NewTestExecutorAgent(newTestRunner(t, ws, gw))

	rc := runctx.New(runctx.Identity{}, ws)
	rc.SetAgentState("last_test_iteration", 3)
	rc.SetAgentState("last_code_change_iteration", 2)
	rc.SetAgentState("last_test_rc", 0)

	tk := task.New("t1", task.ActionTest, "run tests", nil)
	res, err := exec.Execute(context.Background(), tk, rc)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Outcome != OutcomeSuccess || res.Reason != "SKIPPED_NO_CODE_CHANGE" {
		t.Fatalf("got %+v, want skipped success", res)
	}
}

func TestTestExecutorAgent_NeverSkipsOnNonZeroLastRC(t *testing.T) {
	ws := t.TempDir()
	gw := &fakeGateway{}
	exec := NewTestExecutorAgent(newTestRunner(t, ws, gw))

	rc := runctx.New(runctx.Identity{}, ws)
	rc.SetAgentState("last_test_iteration", 3)
	rc.SetAgentState("last_code_change_iteration", 2)
	rc.SetAgentState("last_test_rc", 1)

	if exec.shouldSkip(rc) {
		t.Fatal("must not skip when last_test_rc is non-zero")
	}
}

func TestTestExecutorAgent_ManifestHeuristicNeverDefaultsToPythonWhenGoPresent(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "go.mod"), []byte("module example.com/x\n\ngo 1.22\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var chosen toolinvoke.TestRunner
	for _, m := range manifestRunner {
		if _, err := os.Stat(filepath.Join(ws, m.file)); err == nil {
			chosen = m.runner
			break
		}
	}
	if chosen != toolinvoke.RunnerGoTest {
		t.Fatalf("manifest heuristic chose %q, want go_test", chosen)
	}
}

func TestResearchAgent_AllowedToolsAreReadOnly(t *testing.T) {
	ws := t.TempDir()
	gw := &fakeGateway{}
	research := NewResearchAgent(newTestRunner(t, ws, gw))
	for _, name := range researchAllowedTools {
		for _, destructive := range []string{"write_file", "delete_file", "move_file", "apply_patch", "replace_in_file"} {
			if name == destructive {
				t.Fatalf("research agent must not be allowed %q", destructive)
			}
		}
	}
	_ = research
}
