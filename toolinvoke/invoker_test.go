package toolinvoke

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"codeforge.dev/agentcore/toolreg"
	"codeforge.dev/agentcore/toolspec"
)

func TestResolvePathRejectsEscape(t *testing.T) {
	inv := New("/workspace/repo", toolreg.New())
	if _, err := inv.ResolvePath("../etc/passwd"); !errors.Is(err, ErrPathEscapesRepo) {
		t.Fatalf("expected ErrPathEscapesRepo, got %v", err)
	}
}

func TestResolvePathAcceptsRelativeInsideRoot(t *testing.T) {
	inv := New("/workspace/repo", toolreg.New())
	got, err := inv.ResolvePath("internal/config/config.go")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	if got != "/workspace/repo/internal/config/config.go" {
		t.Fatalf("unexpected resolved path: %s", got)
	}
}

func TestResolvePathRejectsAbsoluteOutsideRoot(t *testing.T) {
	inv := New("/workspace/repo", toolreg.New())
	if _, err := inv.ResolvePath("/etc/passwd"); !errors.Is(err, ErrPathEscapesRepo) {
		t.Fatalf("expected ErrPathEscapesRepo for an absolute escape, got %v", err)
	}
}

func TestInvokeRejectsUnknownTool(t *testing.T) {
	inv := New("/workspace/repo", toolreg.New())
	if _, err := inv.Invoke(context.Background(), "nonexistent", json.RawMessage(`{}`)); err == nil {
		t.Fatalf("expected Invoke to fail for an unregistered tool name")
	}
}

func TestInvokeRejectsArgsFailingSchema(t *testing.T) {
	reg := toolreg.New()
	spec := &toolspec.Spec{
		Name:       "write_file",
		Parameters: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
	}
	if err := reg.Register(spec); err != nil {
		t.Fatalf("Register: %v", err)
	}
	inv := New("/workspace/repo", reg)
	inv.RegisterHandler("write_file", func(ctx context.Context, root string, args json.RawMessage) (Result, error) {
		t.Fatalf("handler should not run when schema validation fails")
		return Result{}, nil
	})
	if _, err := inv.Invoke(context.Background(), "write_file", json.RawMessage(`{}`)); err == nil {
		t.Fatalf("expected Invoke to reject args missing the required field")
	}
}

func TestInvokeDispatchesToHandler(t *testing.T) {
	reg := toolreg.New()
	spec := &toolspec.Spec{Name: "ping", Parameters: json.RawMessage(`{"type":"object"}`)}
	if err := reg.Register(spec); err != nil {
		t.Fatalf("Register: %v", err)
	}
	inv := New("/workspace/repo", reg)
	called := false
	inv.RegisterHandler("ping", func(ctx context.Context, root string, args json.RawMessage) (Result, error) {
		called = true
		if root != "/workspace/repo" {
			t.Fatalf("expected handler to receive the workspace root, got %s", root)
		}
		return Result{RC: 0, Stdout: "pong"}, nil
	})
	res, err := inv.Invoke(context.Background(), "ping", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !called {
		t.Fatalf("expected the registered handler to run")
	}
	if res.Stdout != "pong" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestInvokeFailsWithoutRegisteredHandler(t *testing.T) {
	reg := toolreg.New()
	spec := &toolspec.Spec{Name: "ping", Parameters: json.RawMessage(`{"type":"object"}`)}
	if err := reg.Register(spec); err != nil {
		t.Fatalf("Register: %v", err)
	}
	inv := New("/workspace/repo", reg)
	if _, err := inv.Invoke(context.Background(), "ping", json.RawMessage(`{}`)); err == nil {
		t.Fatalf("expected Invoke to fail when no handler is registered for a known tool")
	}
}

func TestRunSubprocessCapturesOutputAndExitCode(t *testing.T) {
	res := RunSubprocess(context.Background(), ".", "sh", []string{"-c", "echo hello; exit 3"}, 5*time.Second)
	if res.RC != 3 {
		t.Fatalf("expected exit code 3, got %d", res.RC)
	}
	if res.Stdout != "hello\n" {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
}

func TestDiagnoseFlagsWatchMode(t *testing.T) {
	d := Diagnose("npm", []string{"run", "dev"}, "Watching for file changes...\n")
	if !d.IsWatchMode {
		t.Fatalf("expected watch-mode output to be diagnosed as IsWatchMode")
	}
}
