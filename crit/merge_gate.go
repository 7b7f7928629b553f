package crit

import (
	"context"
	"strings"

	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/verify"
)

// MergeGate runs immediately before the Transaction Manager commits: DoD
// satisfied, verification passed, and no file outside the DoD's declared
// deliverables was modified.
func (j *Judge) MergeGate(ctx context.Context, t *task.Task, verification verify.Report, mutatedFiles []string) GateResult {
	heuristic := j.mergeGateHeuristic(t, verification, mutatedFiles)
	return j.settle(ctx, "merge", heuristic)
}

func (j *Judge) mergeGateHeuristic(t *task.Task, verification verify.Report, mutatedFiles []string) GateResult {
	if verification.Verdict == verify.VerdictFailed {
		return GateResult{
			Verdict:    VerdictRejected,
			Confidence: 0.95,
			Concerns:   []string{"verification failed; refusing to commit"},
		}
	}

	if !t.CanComplete(verification.Verdict == verify.VerdictPassed) {
		return GateResult{
			Verdict:    VerdictRejected,
			Confidence: 0.9,
			Concerns:   []string{"task has a failed tool event and verification did not pass"},
		}
	}

	unexpected := unexpectedFiles(t, mutatedFiles)
	if len(unexpected) > 0 {
		return GateResult{
			Verdict:         VerdictNeedsRevision,
			Confidence:      0.65,
			Concerns:        []string{"files modified outside the DoD's declared deliverables: " + strings.Join(unexpected, ", ")},
			Recommendations: []string{"either add these paths as deliverables or revert the unrelated changes"},
		}
	}

	if verification.Verdict == verify.VerdictInconclusive {
		return GateResult{
			Verdict:    VerdictNeedsRevision,
			Confidence: 0.55,
			Concerns:   []string{"verification could not reach a definitive verdict before commit"},
		}
	}

	return GateResult{Verdict: VerdictApproved, Confidence: 0.85}
}

// unexpectedFiles returns entries of mutatedFiles that match none of the
// DoD's declared deliverable paths and none of the task's own target files.
func unexpectedFiles(t *task.Task, mutatedFiles []string) []string {
	declared := make(map[string]struct{}, len(t.DoD.Deliverables)+len(t.TargetFiles))
	for _, d := range t.DoD.Deliverables {
		if d.Path != "" {
			declared[d.Path] = struct{}{}
		}
	}
	for _, f := range t.TargetFiles {
		declared[f] = struct{}{}
	}

	var out []string
	for _, f := range mutatedFiles {
		if _, ok := declared[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}
