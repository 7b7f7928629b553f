package crit

import (
	"context"

	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
)

// PlanGate evaluates a newly proposed Task before it is dispatched: does a
// destructive task carry a rollback plan, does a mutating task declare
// validation stages, and has this exact action already been blocked as
// circular by an earlier run of the Orchestrator's guardrails.
func (j *Judge) PlanGate(ctx context.Context, t *task.Task, rc *runctx.Context) GateResult {
	heuristic := j.planGateHeuristic(t, rc)
	return j.settle(ctx, "plan", heuristic)
}

func (j *Judge) planGateHeuristic(t *task.Task, rc *runctx.Context) GateResult {
	if t.ActionType == task.ActionDelete && t.RollbackPlan == "" {
		return GateResult{
			Verdict:    VerdictRejected,
			Confidence: 0.95,
			Concerns:   []string{"destructive task (" + string(t.ActionType) + ") has no rollback plan"},
			Questions:  []string{"What state does this task irreversibly destroy, and how would a reviewer undo it?"},
		}
	}

	if rc != nil && rc.IsBlocked(actionSignature(t)) {
		return GateResult{
			Verdict:    VerdictRejected,
			Confidence: 0.9,
			Concerns:   []string{"this action signature was already blocked earlier in the run"},
			Questions:  []string{"Why is the same action being proposed again after it was already blocked?"},
		}
	}

	if t.ActionType.Mutating() && len(t.DoD.ValidationStages) == 0 {
		return GateResult{
			Verdict:         VerdictNeedsRevision,
			Confidence:      0.7,
			Concerns:        []string{"mutating task declares no validation stages in its Definition of Done"},
			Recommendations: []string{"attach at least a syntax validation stage before dispatch"},
		}
	}

	return GateResult{Verdict: VerdictApproved, Confidence: 0.85}
}
