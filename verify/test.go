package verify

import (
	"context"

	"codeforge.dev/agentcore/agents"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
)

// runTestStage delegates to the Test Executor agent and translates its
// Result into a StageResult. A non-zero exit or recovered-tool-call
// failure is reported failed; an unrecoverable LLM/tool dispatch error
// (never a test assertion failure) is reported inconclusive, since the
// pipeline could not determine pass/fail at all.
func (p *Pipeline) runTestStage(ctx context.Context, t *task.Task, rc *runctx.Context) StageResult {
	res, err := p.TestExecutor.Execute(ctx, t, rc)
	if err != nil {
		return StageResult{Stage: "test", Verdict: VerdictInconclusive, Category: "test_executor_error", Detail: err.Error()}
	}
	switch res.Outcome {
	case agents.OutcomeSuccess:
		return StageResult{Stage: "test", Verdict: VerdictPassed, Detail: res.Reason}
	case agents.OutcomeRecoveryRequested:
		if res.Reason == "NO_TOOL_CALL" || res.Reason == "TOOL_EXECUTION_FAILED" {
			return StageResult{Stage: "test", Verdict: VerdictInconclusive, Category: res.Reason, Detail: res.Detail}
		}
		return StageResult{Stage: "test", Verdict: VerdictFailed, Category: res.Reason, Detail: res.Detail}
	default:
		return StageResult{Stage: "test", Verdict: VerdictFailed, Category: res.Reason, Detail: res.Detail}
	}
}
