// Package orchestrator implements the Adaptive Loop: the top-level
// algorithm that drives a run from an initial request to goal
// achievement, one task at a time. It owns the "what's next?" call, the
// guardrails that gate dispatch, failure escalation and adaptive prompt
// improvement, inconclusive-verification handling, and the
// conversation-budget summarization of its own running frame.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"codeforge.dev/agentcore/agents"
	"codeforge.dev/agentcore/agentreq"
	"codeforge.dev/agentcore/crit"
	"codeforge.dev/agentcore/llmgateway"
	"codeforge.dev/agentcore/policy"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
	"codeforge.dev/agentcore/toolinvoke"
	"codeforge.dev/agentcore/verify"
)

// Limits bounds the loop's iteration count and escalation behavior.
type Limits struct {
	MaxSteps                      int
	MaxFailureSignatureRepeats    int
	MaxAdaptivePromptImprovements int
}

// DefaultLimits returns the system's default loop bounds.
func DefaultLimits() Limits {
	return Limits{MaxSteps: 10, MaxFailureSignatureRepeats: 3, MaxAdaptivePromptImprovements: 3}
}

// Loop wires every collaborator the Adaptive Loop dispatches to.
type Loop struct {
	Gateway llmgateway.Gateway
	Agents  *agents.Registry
	Policy  *policy.Engine
	Verify  *verify.Pipeline
	Judge   *crit.Judge
	Invoker *toolinvoke.Invoker
	Limits  Limits

	frame    *llmgateway.ConversationFrame
	failures *failureTracker
	taskSeq  int
	pending  *task.Task // a synthesized task injected ahead of the next what's-next call
}

// New constructs a Loop. gw is used both for the "what's next?" call and
// for any inconclusive-verification/adaptive-prompt escalations.
func New(gw llmgateway.Gateway, reg *agents.Registry, pol *policy.Engine, vp *verify.Pipeline, judge *crit.Judge, inv *toolinvoke.Invoker, limits Limits) *Loop {
	return &Loop{
		Gateway:  gw,
		Agents:   reg,
		Policy:   pol,
		Verify:   vp,
		Judge:    judge,
		Invoker:  inv,
		Limits:   limits,
		frame:    llmgateway.NewFrame(nextActionSystemPrompt),
		failures: newFailureTracker(),
	}
}

// Summary is the loop's final outcome, the raw material for the session
// summary persisted by sessionstore.
type Summary struct {
	TasksCompleted []string
	TasksFailed    []string
	Steps          int
	GoalAchieved   bool
}

// Run executes the top-level adaptive loop until the "what's next?"
// call answers GOAL_ACHIEVED, a hard error occurs, or MaxSteps is reached.
func (l *Loop) Run(ctx context.Context, rc *runctx.Context, request string) (Summary, error) {
	l.frame.Append(llmgateway.RoleUser, llmgateway.Text("Request: "+request))

	summary := Summary{}
	for step := 0; step < l.Limits.MaxSteps; step++ {
		if err := l.maybeSummarize(ctx); err != nil {
			return summary, fmt.Errorf("orchestrator: conversation summarization failed: %w", err)
		}

		t, goalAchieved, err := l.nextTask(ctx, rc)
		if err != nil {
			return summary, fmt.Errorf("orchestrator: what's-next call failed: %w", err)
		}
		if goalAchieved {
			summary.GoalAchieved = true
			break
		}

		if d := l.Policy.Evaluate(t, rc); !d.Allow {
			if d.BlockSignature != "" {
				rc.BlockSignature(d.BlockSignature)
			}
			rc.AgentRequests().Push(d.Kind, d.Reason, agentreq.PriorityHigh)
			l.frame.Append(llmgateway.RoleAssistant, llmgateway.Text("blocked: "+d.Reason))
			continue
		}

		if plan := l.Judge.PlanGate(ctx, t, rc); plan.Verdict == crit.VerdictRejected {
			rc.BlockSignature(policy.ActionSignature(t))
			l.frame.Append(llmgateway.RoleAssistant, llmgateway.Text("plan gate rejected: "+joinConcerns(plan.Concerns)))
			continue
		}

		rc.AppendTask(t)
		_ = t.SetStatus(task.StatusInProgress)
		summary.Steps++

		if t.ActionType.ResearchClass() {
			rc.IncrementConsecutiveReads()
			for _, f := range t.TargetFiles {
				rc.RecordFileRead(f)
			}
		} else {
			rc.ResetConsecutiveReads()
		}

		l.runTask(ctx, t, rc, &summary)
		if t.ActionType.Mutating() && t.CurrentStatus() == task.StatusCompleted {
			for _, f := range t.TargetFiles {
				rc.ResetFileReadCount(f)
			}
		}

		l.frame.Append(llmgateway.RoleAssistant, llmgateway.Text(fmt.Sprintf("task %s (%s) -> %s", t.ID, t.ActionType, t.CurrentStatus())))
		rc.SetCompletedWorkSummary(rc.CompletedWorkSummary() + "\n" + t.ID + ": " + string(t.CurrentStatus()))
	}

	return summary, nil
}

// nextTask returns either the pending synthesized task (from an
// inconclusive verification) or a fresh proposal from the what's-next
// call.
func (l *Loop) nextTask(ctx context.Context, rc *runctx.Context) (*task.Task, bool, error) {
	if l.pending != nil {
		t := l.pending
		l.pending = nil
		return t, false, nil
	}
	next, err := l.proposeNext(ctx, rc)
	if err != nil {
		return nil, false, err
	}
	if next.GoalAchieved {
		return nil, true, nil
	}
	return l.newTask(next), false, nil
}

// newTask allocates the next sequential task ID and attaches a default
// DoD via the heuristic generator so the Plan gate never sees a mutating
// task with no validation stages.
func (l *Loop) newTask(next NextAction) *task.Task {
	l.taskSeq++
	id := fmt.Sprintf("task-%03d", l.taskSeq)
	t := task.New(id, next.ActionType, next.Description, next.TargetFiles)
	t.DoD = defaultDoD(t)
	return t
}

// runTask dispatches t (with failure-signature and adaptive-prompt
// escalation), then runs verification/CRIT/transaction handling for
// mutating tasks, or settles non-mutating tasks on the agent's outcome
// alone.
func (l *Loop) runTask(ctx context.Context, t *task.Task, rc *runctx.Context, summary *Summary) {
	res, err := l.dispatchWithEscalation(ctx, t, rc)
	if err != nil {
		_ = t.SetStatus(task.StatusFailed)
		summary.TasksFailed = append(summary.TasksFailed, t.ID)
		return
	}

	if !t.ActionType.Mutating() {
		l.finishNonMutating(t, res, summary)
		return
	}

	if res.Outcome != agents.OutcomeSuccess {
		_ = t.SetStatus(task.StatusFailed)
		summary.TasksFailed = append(summary.TasksFailed, t.ID)
		return
	}

	l.finishMutating(ctx, t, rc, res, summary)
}

// joinConcerns renders a Plan gate's concerns as a single notice line for
// the running frame.
func joinConcerns(concerns []string) string {
	if len(concerns) == 0 {
		return "no specific concerns given"
	}
	return strings.Join(concerns, "; ")
}
