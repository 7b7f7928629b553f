package orchestrator

import (
	"context"
	"fmt"
	"os"

	"codeforge.dev/agentcore/agents"
	"codeforge.dev/agentcore/crit"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/txn"
	"codeforge.dev/agentcore/verify"
)

// finishNonMutating settles a research-class or test-class task purely on
// the agent's reported outcome: there is no workspace mutation to verify
// or commit.
func (l *Loop) finishNonMutating(t *task.Task, res agents.Result, summary *Summary) {
	if res.Outcome == agents.OutcomeSuccess {
		_ = t.SetStatus(task.StatusCompleted)
		summary.TasksCompleted = append(summary.TasksCompleted, t.ID)
		return
	}
	_ = t.SetStatus(task.StatusFailed)
	summary.TasksFailed = append(summary.TasksFailed, t.ID)
}

// finishMutating runs the Verification Pipeline, the CRIT merge gate, and
// the Transaction commit/abort decision for a task whose action kind
// mutates workspace state. An inconclusive verification does not fail the
// task; it synthesizes a follow-up test task instead.
func (l *Loop) finishMutating(ctx context.Context, t *task.Task, rc *runctx.Context, res agents.Result, summary *Summary) {
	transaction := txn.Begin(t.ID, rc.WorkspaceRoot)
	l.capturePreImages(transaction, t)

	report := l.Verify.Run(ctx, t, rc)

	if report.Verdict == verify.VerdictInconclusive && t.ActionType == task.ActionEdit {
		_ = transaction.Commit()
		_ = t.SetStatus(task.StatusCompleted)
		summary.TasksCompleted = append(summary.TasksCompleted, t.ID)
		l.pending = l.synthesizeTestTask(t)
		return
	}

	merge := l.Judge.MergeGate(ctx, t, report, t.TargetFiles)
	if merge.Verdict == crit.VerdictRejected {
		_ = transaction.Abort()
		_ = t.SetStatus(task.StatusFailed)
		summary.TasksFailed = append(summary.TasksFailed, t.ID)
		return
	}

	_ = transaction.Commit()
	_ = t.SetStatus(task.StatusCompleted)
	summary.TasksCompleted = append(summary.TasksCompleted, t.ID)
}

// capturePreImages records each target file's pre-task content so an
// abort can restore it, grounded on txn's append-as-you-mutate log: the
// Orchestrator is the recorder here since task dispatch happens through a
// single opaque agent call rather than individual instrumented handlers.
func (l *Loop) capturePreImages(transaction *txn.Transaction, t *task.Task) {
	if l.Invoker == nil {
		return
	}
	for _, f := range t.TargetFiles {
		abs, err := l.Invoker.ResolvePath(f)
		if err != nil {
			continue
		}
		info, statErr := os.Stat(abs)
		if statErr != nil {
			transaction.RecordCreate(f)
			continue
		}
		content, readErr := os.ReadFile(abs)
		if readErr != nil {
			continue
		}
		transaction.RecordModify(f, content, info.Mode())
	}
}

// synthesizeTestTask builds the follow-up test task for an edit whose
// verification came back inconclusive. Its runner is chosen by the Test
// Executor agent's own manifest heuristic at dispatch time, so the
// Orchestrator only needs to name the action type and carry the edit's
// target files forward for context.
func (l *Loop) synthesizeTestTask(edit *task.Task) *task.Task {
	l.taskSeq++
	id := fmt.Sprintf("task-%03d", l.taskSeq)
	t := task.New(id, task.ActionTest, "run tests after inconclusive verification of "+edit.ID, edit.TargetFiles)
	t.DoD.ValidationStages = append(t.DoD.ValidationStages, task.StageUnit)
	return t
}
