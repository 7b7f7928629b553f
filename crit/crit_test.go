package crit

import (
	"context"
	"testing"

	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/verify"
)

func newOfflineJudge() *Judge {
	return New(nil, DefaultThresholds())
}

func TestClaimGate_RejectsTestsPassContradiction(t *testing.T) {
	tk := task.New("t1", task.ActionFix, "fix the flaky test", []string{"main.go"})
	tk.AppendToolEvent(task.ToolEvent{ToolName: "run_tests", RC: 1})

	j := newOfflineJudge()
	res := j.ClaimGate(context.Background(), tk, "Done. All tests passing now.", verify.Report{Verdict: verify.VerdictPassed})

	if res.Verdict != VerdictRejected {
		t.Fatalf("Verdict = %v, want rejected for a tests-pass claim contradicted by a failing run_tests event", res.Verdict)
	}
}

func TestClaimGate_ApprovesConsistentClaim(t *testing.T) {
	tk := task.New("t1", task.ActionFix, "fix the flaky test", []string{"main.go"})
	tk.AppendToolEvent(task.ToolEvent{ToolName: "run_tests", RC: 0})

	j := newOfflineJudge()
	res := j.ClaimGate(context.Background(), tk, "Done. All tests passing now.", verify.Report{Verdict: verify.VerdictPassed})

	if res.Verdict != VerdictApproved {
		t.Fatalf("Verdict = %v, want approved when the claim matches a passing run_tests event", res.Verdict)
	}
}

func TestClaimGate_RejectsOnFailedVerification(t *testing.T) {
	tk := task.New("t1", task.ActionEdit, "edit main.go", []string{"main.go"})

	j := newOfflineJudge()
	res := j.ClaimGate(context.Background(), tk, "edit complete", verify.Report{Verdict: verify.VerdictFailed})

	if res.Verdict != VerdictRejected {
		t.Fatalf("Verdict = %v, want rejected when verification failed", res.Verdict)
	}
}

func TestPlanGate_RejectsDestructiveTaskWithoutRollbackPlan(t *testing.T) {
	tk := task.New("t1", task.ActionDelete, "delete legacy module", []string{"legacy.go"})

	j := newOfflineJudge()
	res := j.PlanGate(context.Background(), tk, nil)

	if res.Verdict != VerdictRejected {
		t.Fatalf("Verdict = %v, want rejected for a destructive task with no rollback plan", res.Verdict)
	}
}

func TestPlanGate_ApprovesDestructiveTaskWithRollbackPlan(t *testing.T) {
	tk := task.New("t1", task.ActionDelete, "delete legacy module", []string{"legacy.go"})
	tk.RollbackPlan = "restore legacy.go from the last commit"
	tk.DoD.ValidationStages = []task.ValidationStage{task.StageSyntax}

	j := newOfflineJudge()
	res := j.PlanGate(context.Background(), tk, nil)

	if res.Verdict != VerdictApproved {
		t.Fatalf("Verdict = %v, want approved when a rollback plan and validation stage are present", res.Verdict)
	}
}

func TestPlanGate_NeedsRevisionWhenMutatingTaskHasNoValidationStages(t *testing.T) {
	tk := task.New("t1", task.ActionEdit, "edit main.go", []string{"main.go"})

	j := newOfflineJudge()
	res := j.PlanGate(context.Background(), tk, nil)

	if res.Verdict != VerdictNeedsRevision {
		t.Fatalf("Verdict = %v, want needs_revision for a mutating task with no validation stages", res.Verdict)
	}
}

func TestMergeGate_RejectsOnFailedVerification(t *testing.T) {
	tk := task.New("t1", task.ActionEdit, "edit main.go", []string{"main.go"})

	j := newOfflineJudge()
	res := j.MergeGate(context.Background(), tk, verify.Report{Verdict: verify.VerdictFailed}, []string{"main.go"})

	if res.Verdict != VerdictRejected {
		t.Fatalf("Verdict = %v, want rejected when verification failed", res.Verdict)
	}
}

func TestMergeGate_NeedsRevisionOnUnexpectedFileModification(t *testing.T) {
	tk := task.New("t1", task.ActionEdit, "edit main.go", []string{"main.go"})
	tk.DoD.Deliverables = []task.Deliverable{{Kind: task.DeliverableFileModified, Path: "main.go"}}

	j := newOfflineJudge()
	res := j.MergeGate(context.Background(), tk, verify.Report{Verdict: verify.VerdictPassed}, []string{"main.go", "unrelated.go"})

	if res.Verdict != VerdictNeedsRevision {
		t.Fatalf("Verdict = %v, want needs_revision when a file outside the declared deliverables was modified", res.Verdict)
	}
}

func TestMergeGate_ApprovesCleanCommit(t *testing.T) {
	tk := task.New("t1", task.ActionEdit, "edit main.go", []string{"main.go"})
	tk.DoD.Deliverables = []task.Deliverable{{Kind: task.DeliverableFileModified, Path: "main.go"}}

	j := newOfflineJudge()
	res := j.MergeGate(context.Background(), tk, verify.Report{Verdict: verify.VerdictPassed}, []string{"main.go"})

	if res.Verdict != VerdictApproved {
		t.Fatalf("Verdict = %v, want approved for a clean, fully-verified commit", res.Verdict)
	}
}

func TestSettle_NeverEscalatesWithoutGateway(t *testing.T) {
	j := newOfflineJudge()
	heuristic := GateResult{Verdict: VerdictNeedsRevision, Confidence: 0.3}
	res := j.settle(context.Background(), "plan", heuristic)

	if res.Verdict != VerdictNeedsRevision {
		t.Fatalf("Verdict = %v, want the heuristic verdict unchanged when no Gateway is configured", res.Verdict)
	}
}
