package crit

import (
	"context"

	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/verify"
)

// ClaimGate checks a completion claim against the evidence actually
// produced: the task's tool_events and the Verification Pipeline's report.
// The canonical contradiction it exists to catch: a claim that "tests
// pass" while the last run_tests tool event returned a non-zero exit code.
func (j *Judge) ClaimGate(ctx context.Context, t *task.Task, claim string, verification verify.Report) GateResult {
	heuristic := j.claimGateHeuristic(t, claim, verification)
	return j.settle(ctx, "claim", heuristic)
}

func (j *Judge) claimGateHeuristic(t *task.Task, claim string, verification verify.Report) GateResult {
	if claimsTestsPass(claim) {
		if ev, ok := lastToolEventNamed(t.ToolEvents(), "run_tests"); ok && ev.RC != 0 {
			return GateResult{
				Verdict:    VerdictRejected,
				Confidence: 0.97,
				Concerns:   []string{"claim states tests pass, but the last run_tests tool event returned a non-zero exit code"},
				Questions:  []string{"Which test run does this claim refer to, and why does it disagree with the recorded tool event?"},
			}
		}
	}

	switch verification.Verdict {
	case verify.VerdictFailed:
		return GateResult{
			Verdict:    VerdictRejected,
			Confidence: 0.95,
			Concerns:   []string{"verification pipeline reported a hard failure"},
		}
	case verify.VerdictInconclusive:
		return GateResult{
			Verdict:         VerdictNeedsRevision,
			Confidence:      0.6,
			Concerns:        []string{"verification pipeline could not reach a definitive verdict"},
			Recommendations: []string{"add a deliverable or validation stage that resolves the inconclusive check"},
		}
	}

	if t.HasFailedToolEvent() {
		return GateResult{
			Verdict:         VerdictNeedsRevision,
			Confidence:      0.55,
			Concerns:        []string{"task has at least one failed tool event despite the completion claim"},
			Recommendations: []string{"confirm the failure was recovered from before marking this task complete"},
		}
	}

	return GateResult{Verdict: VerdictApproved, Confidence: 0.85}
}
