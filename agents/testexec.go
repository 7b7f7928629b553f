package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolinvoke"
)

// TestExecutorAgent handles action_type test: the only role that may skip
// its own invocation entirely when prior state proves nothing changed
// since the last successful run.
type TestExecutorAgent struct{ *Runner }

// NewTestExecutorAgent constructs a TestExecutorAgent.
func NewTestExecutorAgent(r *Runner) *TestExecutorAgent { return &TestExecutorAgent{Runner: r} }

const testExecSystemPrompt = `You are the Test Executor agent. Choose and ` +
	`run the project's test suite using the tools provided. Prefer the ` +
	`project's own test script over inventing a command.`

var testExecAllowedTools = []string{"run_tests", "run_cmd", "file_exists", "list_dir"}

// Execute implements Agent.
func (a *TestExecutorAgent) Execute(ctx context.Context, t *task.Task, rc *runctx.Context) (Result, error) {
	if a.shouldSkip(rc) {
		return Result{Outcome: OutcomeSuccess, Reason: "SKIPPED_NO_CODE_CHANGE",
			Detail: "last test run already covered the current code state"}, nil
	}

	res, err := a.run(ctx, t, rc, roleConfig{systemPrompt: testExecSystemPrompt, allowedTools: testExecAllowedTools}, t.Description)
	if err != nil {
		return res, err
	}
	if res.Outcome == OutcomeRecoveryRequested && res.Reason == "NO_TOOL_CALL" {
		res, err = a.heuristicFallback(ctx, t)
	}
	a.recordState(rc, res)
	return res, err
}

// shouldSkip implements the skip optimization: skip iff the last test
// iteration is at least as recent as the last code change AND the last
// test run's return code was zero. A non-zero last_test_rc never skips —
// failed tests are always retryable.
func (a *TestExecutorAgent) shouldSkip(rc *runctx.Context) bool {
	lastTestIter, ok1 := intState(rc, "last_test_iteration")
	lastChangeIter, ok2 := intState(rc, "last_code_change_iteration")
	lastTestRC, ok3 := intState(rc, "last_test_rc")
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	return lastTestIter >= lastChangeIter && lastTestRC == 0
}

func (a *TestExecutorAgent) recordState(rc *runctx.Context, res Result) {
	if res.Outcome != OutcomeSuccess {
		return
	}
	iter, _ := intState(rc, "iteration")
	rc.SetAgentState("last_test_iteration", iter)
	if len(res.ToolEvents) > 0 {
		rc.SetAgentState("last_test_rc", res.ToolEvents[len(res.ToolEvents)-1].RC)
	}
}

func intState(rc *runctx.Context, key string) (int, bool) {
	v, ok := rc.AgentState(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// manifestRunner maps a project manifest file's presence to its test
// runner, checked in order; the first manifest present wins.
var manifestRunner = []struct {
	file   string
	runner toolinvoke.TestRunner
}{
	{"package.json", toolinvoke.RunnerNPM},
	{"yarn.lock", toolinvoke.RunnerNPM},
	{"pnpm-lock.yaml", toolinvoke.RunnerNPM},
	{"go.mod", toolinvoke.RunnerGoTest},
	{"Cargo.toml", toolinvoke.RunnerCargo},
}

// heuristicFallback detects project type by manifest presence only after
// recovery from the LLM response has failed. It must never blindly
// default to the Python runner when a non-Python manifest is present.
func (a *TestExecutorAgent) heuristicFallback(ctx context.Context, t *task.Task) (Result, error) {
	runner := toolinvoke.RunnerPytest
	for _, m := range manifestRunner {
		if _, err := os.Stat(filepath.Join(a.Invoker.WorkspaceRoot, m.file)); err == nil {
			runner = m.runner
			break
		}
	}
	command, args := runner.Command()
	start := time.Now()
	idemKey := t.ID + ":heuristic:" + command

	outcome := a.Executor.Execute(ctx, idemKey, func(ctx context.Context) (any, error) {
		return toolinvoke.RunSubprocess(ctx, a.Invoker.WorkspaceRoot, command, args, a.Invoker.RunTestsTimeout), nil
	})

	var res toolinvoke.Result
	if len(outcome.Result) > 0 {
		_ = json.Unmarshal(outcome.Result, &res)
	}
	passed, noTestsFound := runner.InterpretExitCode(res.RC, res.Stdout+"\n"+res.Stderr)

	diagnosis := ""
	if res.Diagnosis != nil {
		diagnosis = res.Diagnosis.SuggestedFix
	}
	ev := task.ToolEvent{
		ToolName:     "run_tests",
		ArgsDigest:   task.DigestArgs([]byte(command + " " + fmt.Sprint(args))),
		ResultDigest: task.DigestArgs(outcome.Result),
		RC:           res.RC,
		Diagnosis:    diagnosis,
		DurationMS:   time.Since(start).Milliseconds(),
	}
	t.AppendToolEvent(ev)

	if noTestsFound {
		return Result{Outcome: OutcomeRecoveryRequested, Reason: "NO_TESTS_FOUND",
			Detail: fmt.Sprintf("%s reported no tests found", command), ToolEvents: []task.ToolEvent{ev}}, nil
	}
	if !passed {
		return Result{Outcome: OutcomeRecoveryRequested, Reason: "TESTS_FAILED",
			Detail: fmt.Sprintf("%s exited %d", command, res.RC), ToolEvents: []task.ToolEvent{ev}}, nil
	}
	return Result{Outcome: OutcomeSuccess, ToolEvents: []task.ToolEvent{ev}}, nil
}
