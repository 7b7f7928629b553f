// Package policy implements the Orchestrator's guardrail engine: a set of
// allow/block decisions evaluated before a task is dispatched, filtering
// entire tasks the way a tool-call filter would filter individual calls,
// keyed off the resource-usage signals tracked on runctx.Context.
package policy

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeforge.dev/agentcore/agentreq"
	"codeforge.dev/agentcore/runctx"
	"codeforge.dev/agentcore/task"
)

// Decision is the outcome of evaluating one task against every guardrail.
type Decision struct {
	Allow  bool
	Reason string
	// Kind, when Allow is false, is the agentreq.Kind the Orchestrator
	// should push onto rc.AgentRequests() so the blocked proposal is
	// surfaced to the next-action prompt instead of silently retried.
	Kind agentreq.Kind
	// BlockSignature, when non-empty, should be recorded via
	// runctx.Context.BlockSignature so the same signature is rejected
	// immediately on any future proposal without re-running the guardrail.
	BlockSignature string
}

// Limits configures the guardrail thresholds. Mirrors the two read caps of
// internal/config's limits; kept as its own type so policy has no
// dependency on the config package.
type Limits struct {
	MaxConsecutiveReads int
	MaxFileReadCount    int
}

// DefaultLimits returns the system's default guardrail thresholds.
func DefaultLimits() Limits {
	return Limits{MaxConsecutiveReads: 5, MaxFileReadCount: 2}
}

// Engine evaluates every guardrail in a fixed order, short-circuiting on
// the first block: action-signature repeats, the consecutive-research
// cap, the redundant-read cap, EDIT pre-validation, and the
// destructive-interdependency check.
type Engine struct {
	Limits Limits
}

// New builds an Engine with the given limits.
func New(limits Limits) *Engine {
	return &Engine{Limits: limits}
}

// Evaluate runs every guardrail against t using rc's tracked resource
// state and plan. A block from any guardrail short-circuits the rest:
// there is no value in reporting a redundant-read violation on a task
// that is already blocked for looping on the same action signature.
func (e *Engine) Evaluate(t *task.Task, rc *runctx.Context) Decision {
	if rc == nil {
		return Decision{Allow: true}
	}

	sig := ActionSignature(t)
	if rc.IsBlocked(sig) {
		return Decision{Allow: false, Reason: "action signature already blocked: " + sig, Kind: agentreq.KindBlockedSignature}
	}

	if t.ActionType.ResearchClass() && rc.ConsecutiveReads() >= e.Limits.MaxConsecutiveReads {
		return Decision{
			Allow:          false,
			Reason:         "consecutive research/read actions reached the cap (" + strconv.Itoa(e.Limits.MaxConsecutiveReads) + ")",
			Kind:           agentreq.KindResearchBudgetExhausted,
			BlockSignature: sig,
		}
	}

	if t.ActionType.ResearchClass() {
		for _, f := range t.TargetFiles {
			if rc.FileReadCount(f) >= e.Limits.MaxFileReadCount {
				return Decision{
					Allow:          false,
					Reason:         "file " + f + " already read " + strconv.Itoa(e.Limits.MaxFileReadCount) + " times with no intervening change",
					Kind:           agentreq.KindRedundantFileRead,
					BlockSignature: sig,
				}
			}
		}
	}

	if t.ActionType == task.ActionEdit {
		if len(t.TargetFiles) == 0 {
			return Decision{Allow: false, Reason: "edit task names no target file", Kind: agentreq.KindMissingTargetFile}
		}
		if _, err := os.Stat(filepath.Join(rc.WorkspaceRoot, t.TargetFiles[0])); err != nil {
			return Decision{Allow: false, Reason: "edit target " + t.TargetFiles[0] + " is not readable", Kind: agentreq.KindFileNotFound}
		}
	}

	if t.ActionType == task.ActionDelete || t.ActionType.OverwritesExisting() {
		if dep, ok := destructiveInterdependency(t, rc); ok {
			verb := "overwrite"
			if t.ActionType == task.ActionDelete {
				verb = "delete"
			}
			return Decision{
				Allow:          false,
				Reason:         "task " + dep.ID + " still depends on a file this task would " + verb,
				Kind:           agentreq.KindDestructiveConflict,
				BlockSignature: sig,
			}
		}
	}

	return Decision{Allow: true}
}

// ActionSignature identifies a task by its action type and target files,
// stable across proposals of what is logically the same action.
func ActionSignature(t *task.Task) string {
	return string(t.ActionType) + ":" + strings.Join(t.TargetFiles, ",")
}

// destructiveInterdependency reports the first not-yet-completed, not-yet-
// failed task in rc's plan whose target files overlap with t's — a task
// proposing to delete or overwrite a file that an earlier pending task
// still needs.
func destructiveInterdependency(t *task.Task, rc *runctx.Context) (*task.Task, bool) {
	targets := make(map[string]struct{}, len(t.TargetFiles))
	for _, f := range t.TargetFiles {
		targets[f] = struct{}{}
	}

	for _, other := range rc.Plan() {
		if other.ID == t.ID {
			continue
		}
		switch other.CurrentStatus() {
		case task.StatusCompleted, task.StatusFailed:
			continue
		}
		for _, f := range other.TargetFiles {
			if _, overlap := targets[f]; overlap {
				return other, true
			}
		}
	}
	return nil, false
}
