// Package verify implements the Verification Pipeline: a staged,
// short-circuiting check run after every mutating task, before the
// Transaction Manager commits. The syntax and import stages are
// deterministic, offline-capable checks that call no LLM; the test stage
// delegates to the Test Executor agent, which does call the LLM Gateway.
package verify

import (
	"context"

	"codeforge.dev/agentcore/agents"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolinvoke"
)

// Verdict is the closed set of per-stage and overall results.
type Verdict string

const (
	VerdictPassed       Verdict = "passed"
	VerdictFailed        Verdict = "failed"
	VerdictInconclusive  Verdict = "inconclusive"
)

// rank orders verdicts so the overall result can be computed as the worst
// (highest-rank) verdict across every stage that ran.
func (v Verdict) rank() int {
	switch v {
	case VerdictFailed:
		return 2
	case VerdictInconclusive:
		return 1
	default:
		return 0
	}
}

// worse returns whichever of a, b ranks higher.
func worse(a, b Verdict) Verdict {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// StageResult is one stage's outcome, annotated with a machine-readable
// category so a failure can feed replanning without re-parsing prose.
type StageResult struct {
	Stage    string
	Verdict  Verdict
	Category string
	Detail   string
}

// Report is the full pipeline outcome: the overall verdict plus every
// stage that ran (short-circuiting skips the remainder once a hard
// failure occurs).
type Report struct {
	Stages  []StageResult
	Verdict Verdict
}

// Pipeline runs the syntax, import-resolution, and test stages in order.
type Pipeline struct {
	Invoker      *toolinvoke.Invoker
	TestExecutor *agents.TestExecutorAgent
}

// New constructs a Pipeline.
func New(inv *toolinvoke.Invoker, testExecutor *agents.TestExecutorAgent) *Pipeline {
	return &Pipeline{Invoker: inv, TestExecutor: testExecutor}
}

// Run executes every applicable stage against t and returns the combined
// report. A failed stage short-circuits the remaining stages (a hard
// failure: there is no point checking whether tests pass on code that
// doesn't parse); an inconclusive stage does not — the pipeline still
// wants the more diagnostic verdict from a later stage when one is
// available.
func (p *Pipeline) Run(ctx context.Context, t *task.Task, rc *runctx.Context) Report {
	report := Report{Verdict: VerdictPassed}

	syntax := p.runSyntaxStage(ctx, t)
	report.Stages = append(report.Stages, syntax...)
	for _, s := range syntax {
		report.Verdict = worse(report.Verdict, s.Verdict)
	}
	if report.Verdict == VerdictFailed {
		return report
	}

	imports := p.runImportStage(t)
	report.Stages = append(report.Stages, imports...)
	for _, s := range imports {
		report.Verdict = worse(report.Verdict, s.Verdict)
	}
	if report.Verdict == VerdictFailed {
		return report
	}

	if t.DoD.Requires(task.StageUnit) || t.DoD.Requires(task.StageIntegration) {
		ts := p.runTestStage(ctx, t, rc)
		report.Stages = append(report.Stages, ts)
		report.Verdict = worse(report.Verdict, ts.Verdict)
	}

	return report
}
