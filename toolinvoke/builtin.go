package toolinvoke

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeforge.dev/agentcore/internal/toolerrors"
	"codeforge.dev/agentcore/resilient"
	"codeforge.dev/agentcore/toolspec"
)

// BuiltinSpecs returns the schema definitions for the default file-I/O,
// subprocess, and VCS tools. Concrete tool implementations are treated as
// external collaborators, but the core needs at least one working set to
// be runnable end to end.
func BuiltinSpecs() []*toolspec.Spec {
	obj := func(props string, required ...string) json.RawMessage {
		req, _ := json.Marshal(required)
		return json.RawMessage(fmt.Sprintf(`{"type":"object","properties":%s,"required":%s}`, props, req))
	}
	return []*toolspec.Spec{
		{Name: "read_file", Description: "Read the full content of a file.", Tags: []string{"fs"},
			Parameters: obj(`{"path":{"type":"string"}}`, "path")},
		{Name: "write_file", Description: "Write (overwrite) the full content of a file.", Tags: []string{"fs"}, Destructive: true,
			Parameters: obj(`{"path":{"type":"string"},"content":{"type":"string"}}`, "path", "content")},
		{Name: "replace_in_file", Description: "Replace a byte-exact substring in a file.", Tags: []string{"fs"}, Destructive: true,
			Parameters: obj(`{"path":{"type":"string"},"find":{"type":"string"},"replace":{"type":"string"}}`, "path", "find", "replace")},
		{Name: "apply_patch", Description: "Apply a unified diff patch to a file.", Tags: []string{"fs", "vcs"}, Destructive: true,
			Parameters: obj(`{"path":{"type":"string"},"diff":{"type":"string"}}`, "path", "diff")},
		{Name: "copy_file", Description: "Copy a file to a new path.", Tags: []string{"fs"},
			Parameters: obj(`{"from":{"type":"string"},"to":{"type":"string"}}`, "from", "to")},
		{Name: "move_file", Description: "Move/rename a file.", Tags: []string{"fs"}, Destructive: true,
			Parameters: obj(`{"from":{"type":"string"},"to":{"type":"string"}}`, "from", "to")},
		{Name: "delete_file", Description: "Delete a file.", Tags: []string{"fs"}, Destructive: true,
			Parameters: obj(`{"path":{"type":"string"}}`, "path")},
		{Name: "file_exists", Description: "Check whether a file exists.", Tags: []string{"fs"},
			Parameters: obj(`{"path":{"type":"string"}}`, "path")},
		{Name: "list_dir", Description: "List entries in a directory.", Tags: []string{"fs"},
			Parameters: obj(`{"path":{"type":"string"}}`, "path")},
		{Name: "tree_view", Description: "Render a directory tree.", Tags: []string{"fs"},
			Parameters: obj(`{"path":{"type":"string"},"depth":{"type":"integer"}}`, "path")},
		{Name: "run_cmd", Description: "Run an arbitrary shell command in the workspace.", Tags: []string{"subprocess"},
			Parameters: obj(`{"command":{"type":"string"},"args":{"type":"array","items":{"type":"string"}}}`, "command")},
		{Name: "run_tests", Description: "Run the project's test suite.", Tags: []string{"subprocess", "test"},
			Parameters: obj(`{"command":{"type":"string"},"args":{"type":"array","items":{"type":"string"}}}`, "command")},
		{Name: "git_status", Description: "Show git working tree status.", Tags: []string{"vcs"},
			Parameters: obj(`{}`)},
		{Name: "git_diff", Description: "Show git diff.", Tags: []string{"vcs"},
			Parameters: obj(`{"path":{"type":"string"}}`)},
		{Name: "git_commit", Description: "Create a git commit.", Tags: []string{"vcs"}, Destructive: true,
			Parameters: obj(`{"message":{"type":"string"}}`, "message")},
		{Name: "search_code", Description: "Search the repository for a literal or regex pattern.", Tags: []string{"analysis"},
			Parameters: obj(`{"pattern":{"type":"string"}}`, "pattern")},
	}
}

// RegisterBuiltinHandlers wires the default handler implementations for
// BuiltinSpecs into inv. apply_patch, tree_view, git_commit and search_code
// have no built-in handler.
func (inv *Invoker) RegisterBuiltinHandlers() {
	inv.RegisterHandler("read_file", handleReadFile)
	inv.RegisterHandler("write_file", handleWriteFile)
	inv.RegisterHandler("replace_in_file", handleReplaceInFile)
	inv.RegisterHandler("copy_file", handleCopyFile)
	inv.RegisterHandler("move_file", handleMoveFile)
	inv.RegisterHandler("delete_file", handleDeleteFile)
	inv.RegisterHandler("file_exists", handleFileExists)
	inv.RegisterHandler("list_dir", handleListDir)
	inv.RegisterHandler("run_cmd", inv.handleRunCmd)
	inv.RegisterHandler("run_tests", inv.handleRunTests)
	inv.RegisterHandler("git_status", inv.handleGitStatus)
	inv.RegisterHandler("git_diff", inv.handleGitDiff)
}

func resolveArg(workspaceRoot, rel string) (string, error) {
	inv := &Invoker{WorkspaceRoot: workspaceRoot}
	return inv.ResolvePath(rel)
}

type pathArgs struct {
	Path string `json:"path"`
}

func handleReadFile(_ context.Context, ws string, args json.RawMessage) (Result, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{RC: 1}, err
	}
	abs, err := resolveArg(ws, a.Path)
	if err != nil {
		return Result{RC: 1}, err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	return Result{RC: 0, Stdout: string(content), Data: string(content)}, nil
}

type writeArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func handleWriteFile(_ context.Context, ws string, args json.RawMessage) (Result, error) {
	var a writeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{RC: 1}, err
	}
	abs, err := resolveArg(ws, a.Path)
	if err != nil {
		return Result{RC: 1}, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	tmp := abs + ".agentcore.tmp"
	if err := os.WriteFile(tmp, []byte(a.Content), 0o644); err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	if err := os.Rename(tmp, abs); err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	return Result{RC: 0}, nil
}

type replaceArgs struct {
	Path    string `json:"path"`
	Find    string `json:"find"`
	Replace string `json:"replace"`
}

// ErrPatchDoesNotApply is returned when the find string is not a substring
// of the current file content.
var ErrPatchDoesNotApply = toolerrors.Classify(resilient.CodeBadInput, "toolinvoke: find string is not a substring of the current file")

func handleReplaceInFile(_ context.Context, ws string, args json.RawMessage) (Result, error) {
	var a replaceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{RC: 1}, err
	}
	abs, err := resolveArg(ws, a.Path)
	if err != nil {
		return Result{RC: 1}, err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	if !strings.Contains(string(content), a.Find) {
		return Result{RC: 1, Stderr: ErrPatchDoesNotApply.Error()}, ErrPatchDoesNotApply
	}
	updated := strings.Replace(string(content), a.Find, a.Replace, 1)
	tmp := abs + ".agentcore.tmp"
	if err := os.WriteFile(tmp, []byte(updated), 0o644); err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	if err := os.Rename(tmp, abs); err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	return Result{RC: 0}, nil
}

type fromToArgs struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func handleCopyFile(_ context.Context, ws string, args json.RawMessage) (Result, error) {
	var a fromToArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{RC: 1}, err
	}
	fromAbs, err := resolveArg(ws, a.From)
	if err != nil {
		return Result{RC: 1}, err
	}
	toAbs, err := resolveArg(ws, a.To)
	if err != nil {
		return Result{RC: 1}, err
	}
	content, err := os.ReadFile(fromAbs)
	if err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	if err := os.MkdirAll(filepath.Dir(toAbs), 0o755); err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	if err := os.WriteFile(toAbs, content, 0o644); err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	return Result{RC: 0}, nil
}

func handleMoveFile(_ context.Context, ws string, args json.RawMessage) (Result, error) {
	var a fromToArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{RC: 1}, err
	}
	fromAbs, err := resolveArg(ws, a.From)
	if err != nil {
		return Result{RC: 1}, err
	}
	toAbs, err := resolveArg(ws, a.To)
	if err != nil {
		return Result{RC: 1}, err
	}
	if err := os.MkdirAll(filepath.Dir(toAbs), 0o755); err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	if err := os.Rename(fromAbs, toAbs); err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	return Result{RC: 0}, nil
}

func handleDeleteFile(_ context.Context, ws string, args json.RawMessage) (Result, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{RC: 1}, err
	}
	abs, err := resolveArg(ws, a.Path)
	if err != nil {
		return Result{RC: 1}, err
	}
	if err := os.Remove(abs); err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	return Result{RC: 0}, nil
}

func handleFileExists(_ context.Context, ws string, args json.RawMessage) (Result, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{RC: 1}, err
	}
	abs, err := resolveArg(ws, a.Path)
	if err != nil {
		return Result{RC: 1}, err
	}
	_, statErr := os.Stat(abs)
	exists := statErr == nil
	return Result{RC: 0, Data: exists}, nil
}

func handleListDir(_ context.Context, ws string, args json.RawMessage) (Result, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{RC: 1}, err
	}
	rel := a.Path
	if rel == "" {
		rel = "."
	}
	abs, err := resolveArg(ws, rel)
	if err != nil {
		return Result{RC: 1}, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return Result{RC: 1, Stderr: err.Error()}, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return Result{RC: 0, Data: names, Stdout: strings.Join(names, "\n")}, nil
}

type cmdArgs struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

func (inv *Invoker) handleRunCmd(ctx context.Context, ws string, args json.RawMessage) (Result, error) {
	var a cmdArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{RC: 1}, err
	}
	return RunSubprocess(ctx, ws, a.Command, a.Args, timeoutOr(inv.RunCmdTimeout, 300*time.Second)), nil
}

func (inv *Invoker) handleRunTests(ctx context.Context, ws string, args json.RawMessage) (Result, error) {
	var a cmdArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Result{RC: 1}, err
	}
	return RunSubprocess(ctx, ws, a.Command, a.Args, timeoutOr(inv.RunTestsTimeout, 600*time.Second)), nil
}

func (inv *Invoker) handleGitStatus(ctx context.Context, ws string, _ json.RawMessage) (Result, error) {
	return RunSubprocess(ctx, ws, "git", []string{"status", "--porcelain"}, 30*time.Second), nil
}

func (inv *Invoker) handleGitDiff(ctx context.Context, ws string, args json.RawMessage) (Result, error) {
	var a pathArgs
	_ = json.Unmarshal(args, &a)
	gitArgs := []string{"diff"}
	if a.Path != "" {
		gitArgs = append(gitArgs, "--", a.Path)
	}
	return RunSubprocess(ctx, ws, "git", gitArgs, 30*time.Second), nil
}

func timeoutOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
