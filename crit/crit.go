// Package crit implements the CRIT Judge: three Socratic review gates
// (plan, claim, merge) that each return an approved/needs_revision/
// rejected verdict with a confidence score and a list of questions,
// concerns, and recommendations.
//
// Every gate runs a deterministic heuristic first — cheap filtering before
// anything provider-dependent — so the Judge works fully offline. The LLM
// is consulted for a deeper Socratic pass only when the heuristic
// lands in the uncertain confidence band between Thresholds.Reject and
// Thresholds.Approve; a confident heuristic verdict is never overridden
// by silence from an unconfigured Gateway.
package crit

import (
	"context"

	"codeforge.dev/agentcore/llmgateway"
)

// Verdict is the closed set of gate outcomes.
type Verdict string

const (
	VerdictApproved      Verdict = "approved"
	VerdictNeedsRevision Verdict = "needs_revision"
	VerdictRejected      Verdict = "rejected"
)

// GateResult is the outcome of one CRIT gate evaluation.
type GateResult struct {
	Verdict         Verdict
	Confidence      float64
	Questions       []string
	Concerns        []string
	Recommendations []string
}

// Thresholds configures the confidence band the Judge treats as
// "inconclusive" and worth an LLM escalation. The exact cutoffs are not
// specified by the source material and are deliberately left as
// configuration rather than a baked-in constant.
type Thresholds struct {
	// ApproveConfidence is the minimum heuristic confidence that settles a
	// gate without escalation.
	ApproveConfidence float64
	// RejectConfidence is the heuristic confidence above which a rejection
	// is considered definitive and is never escalated (there is nothing a
	// Socratic pass would add to "destructive task has no rollback plan").
	RejectConfidence float64
}

// DefaultThresholds returns the system's default confidence band.
func DefaultThresholds() Thresholds {
	return Thresholds{ApproveConfidence: 0.8, RejectConfidence: 0.8}
}

// Judge runs the three CRIT gates. Gateway may be nil, in which case the
// Judge operates purely on deterministic heuristics.
type Judge struct {
	Gateway    llmgateway.Gateway
	Thresholds Thresholds
}

// New constructs a Judge. gw may be nil for offline-only operation.
func New(gw llmgateway.Gateway, th Thresholds) *Judge {
	return &Judge{Gateway: gw, Thresholds: th}
}

// settle decides whether a heuristic result stands on its own or should
// be escalated to the LLM for a deeper Socratic pass: a definitive
// rejection or a high-confidence approval never escalates; a moderate-
// confidence needs_revision verdict sitting in the uncertain band does,
// when a Gateway is configured.
func (j *Judge) settle(ctx context.Context, gateName string, heuristic GateResult) GateResult {
	if heuristic.Verdict == VerdictRejected && heuristic.Confidence >= j.Thresholds.RejectConfidence {
		return heuristic
	}
	if heuristic.Confidence >= j.Thresholds.ApproveConfidence {
		return heuristic
	}
	if j.Gateway == nil {
		return heuristic
	}
	return j.escalate(ctx, gateName, heuristic)
}

// escalate asks the Gateway for a Socratic second opinion and folds its
// prose into the heuristic result's Questions, tightening the verdict to
// rejected if the model's answer contains an explicit rejection signal.
// It never loosens a heuristic verdict — the LLM pass can only raise
// concerns, not silence ones the heuristics already found.
func (j *Judge) escalate(ctx context.Context, gateName string, heuristic GateResult) GateResult {
	prompt := socraticPrompt(gateName, heuristic)
	resp, err := j.Gateway.Chat(ctx, llmgateway.Request{
		Messages: []llmgateway.Message{
			{Role: llmgateway.RoleSystem, Parts: []llmgateway.Part{llmgateway.Text(critSystemPrompt)}},
			{Role: llmgateway.RoleUser, Parts: []llmgateway.Part{llmgateway.Text(prompt)}},
		},
		SupportsTools: false,
	})
	if err != nil {
		return heuristic
	}
	text := resp.Text()
	if text != "" {
		heuristic.Questions = append(heuristic.Questions, text)
	}
	if containsRejectionSignal(text) && heuristic.Verdict != VerdictRejected {
		heuristic.Verdict = VerdictRejected
	}
	return heuristic
}

const critSystemPrompt = `You are the CRIT Judge, a Socratic reviewer. You ` +
	`are given a deterministic heuristic's provisional verdict on a plan, ` +
	`completion claim, or merge decision. Ask the sharpest question that ` +
	`would reveal whether the provisional verdict is wrong. If you believe ` +
	`the action should be rejected, say so plainly.`

func containsRejectionSignal(text string) bool {
	for _, marker := range []string{"should be rejected", "must reject", "recommend rejecting"} {
		if containsFold(text, marker) {
			return true
		}
	}
	return false
}
