package policy

import (
	"os"
	"path/filepath"
	"testing"

	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
)

func TestEvaluate_BlocksOnRepeatedActionSignature(t *testing.T) {
	rc := runctx.New(runctx.Identity{}, t.TempDir())
	tk := task.New("t1", task.ActionRead, "read main.go", []string{"main.go"})
	rc.BlockSignature(ActionSignature(tk))

	e := New(DefaultLimits())
	d := e.Evaluate(tk, rc)
	if d.Allow {
		t.Fatal("Evaluate: want blocked for an already-blocked action signature")
	}
}

func TestEvaluate_BlocksOnConsecutiveReadCap(t *testing.T) {
	rc := runctx.New(runctx.Identity{}, t.TempDir())
	for i := 0; i < DefaultLimits().MaxConsecutiveReads; i++ {
		rc.IncrementConsecutiveReads()
	}
	tk := task.New("t1", task.ActionRead, "read main.go", []string{"main.go"})

	e := New(DefaultLimits())
	d := e.Evaluate(tk, rc)
	if d.Allow {
		t.Fatal("Evaluate: want blocked once consecutive reads reach the cap")
	}
	if d.BlockSignature == "" {
		t.Fatal("Evaluate: want a BlockSignature set so the guardrail sticks")
	}
}

func TestEvaluate_BlocksOnRedundantFileRead(t *testing.T) {
	rc := runctx.New(runctx.Identity{}, t.TempDir())
	rc.RecordFileRead("main.go")
	rc.RecordFileRead("main.go")
	tk := task.New("t1", task.ActionRead, "read main.go again", []string{"main.go"})

	e := New(DefaultLimits())
	d := e.Evaluate(tk, rc)
	if d.Allow {
		t.Fatal("Evaluate: want blocked for a file already read at the cap")
	}
}

func TestEvaluate_BlocksDestructiveInterdependency(t *testing.T) {
	rc := runctx.New(runctx.Identity{}, t.TempDir())
	dependent := task.New("t1", task.ActionEdit, "edit helper.go", []string{"helper.go"})
	rc.AppendTask(dependent)

	del := task.New("t2", task.ActionDelete, "delete helper.go", []string{"helper.go"})
	del.RollbackPlan = "restore from git"

	e := New(DefaultLimits())
	d := e.Evaluate(del, rc)
	if d.Allow {
		t.Fatal("Evaluate: want blocked when deleting a file an earlier pending task still targets")
	}
}

func TestEvaluate_BlocksOverwriteInterdependency(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "shared.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rc := runctx.New(runctx.Identity{}, ws)
	dependent := task.New("t1", task.ActionRead, "read shared.go", []string{"shared.go"})
	rc.AppendTask(dependent)

	overwrite := task.New("t2", task.ActionEdit, "rewrite shared.go", []string{"shared.go"})
	overwrite.RollbackPlan = "restore from git"

	e := New(DefaultLimits())
	d := e.Evaluate(overwrite, rc)
	if d.Allow {
		t.Fatal("Evaluate: want blocked when overwriting a file an earlier pending task still targets")
	}
}

func TestEvaluate_AllowsCleanTask(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rc := runctx.New(runctx.Identity{}, ws)
	tk := task.New("t1", task.ActionEdit, "edit main.go", []string{"main.go"})

	e := New(DefaultLimits())
	d := e.Evaluate(tk, rc)
	if !d.Allow {
		t.Fatalf("Evaluate: want allowed for a clean task, got reason %q", d.Reason)
	}
}

func TestEvaluate_BlocksEditWithMissingTargetFile(t *testing.T) {
	rc := runctx.New(runctx.Identity{}, t.TempDir())
	tk := task.New("t1", task.ActionEdit, "edit nope.go", []string{"nope.go"})

	e := New(DefaultLimits())
	d := e.Evaluate(tk, rc)
	if d.Allow {
		t.Fatal("Evaluate: want blocked for an edit task whose target file does not exist")
	}
}

func TestEvaluate_AllowsEditWithExistingTargetFile(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rc := runctx.New(runctx.Identity{}, ws)
	tk := task.New("t1", task.ActionEdit, "edit main.go", []string{"main.go"})

	e := New(DefaultLimits())
	if d := e.Evaluate(tk, rc); !d.Allow {
		t.Fatalf("Evaluate: want allowed, got reason %q", d.Reason)
	}
}

func TestEvaluate_NilContextAllows(t *testing.T) {
	tk := task.New("t1", task.ActionEdit, "edit main.go", []string{"main.go"})
	e := New(DefaultLimits())
	if d := e.Evaluate(tk, nil); !d.Allow {
		t.Fatal("Evaluate: want allowed when no runctx.Context is available")
	}
}
