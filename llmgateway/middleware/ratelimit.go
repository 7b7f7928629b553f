// Package middleware provides llmgateway.Gateway middlewares, notably an
// AIMD-style adaptive rate limiter: a halve-on-throttle / linear-climb-on-
// success token bucket with no cluster-coordination path, since this system
// runs one Run Context per process and every run gets a fresh
// process-local limiter instead of a shared cluster budget.
package middleware

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"codeforge.dev/agentcore/internal/toolerrors"
	"codeforge.dev/agentcore/llmgateway"
	"codeforge.dev/agentcore/resilient"
)

// AdaptiveRateLimiter applies an AIMD token bucket in front of an
// llmgateway.Gateway: it estimates the token cost of each request, blocks
// the caller until budget is available, then halves its effective
// tokens-per-minute budget whenever the wrapped Gateway reports a
// rate-limited error and climbs it back linearly on every success.
type AdaptiveRateLimiter struct {
	mu sync.Mutex

	limiter *rate.Limiter

	currentTPM float64
	minTPM     float64
	maxTPM     float64

	recoveryRate float64
}

// NewAdaptiveRateLimiter constructs a limiter with an initial and maximum
// tokens-per-minute budget. maxTPM is clamped up to initialTPM if lower.
func NewAdaptiveRateLimiter(initialTPM, maxTPM float64) *AdaptiveRateLimiter {
	if initialTPM <= 0 {
		initialTPM = 60000
	}
	if maxTPM <= 0 || maxTPM < initialTPM {
		maxTPM = initialTPM
	}
	minTPM := initialTPM * 0.1
	if minTPM < 1 {
		minTPM = 1
	}
	recoveryRate := initialTPM * 0.05
	if recoveryRate < 1 {
		recoveryRate = 1
	}
	return &AdaptiveRateLimiter{
		limiter:      rate.NewLimiter(rate.Limit(initialTPM/60.0), int(initialTPM)),
		currentTPM:   initialTPM,
		minTPM:       minTPM,
		maxTPM:       maxTPM,
		recoveryRate: recoveryRate,
	}
}

// Wrap returns a Gateway that enforces this limiter in front of next.
func (l *AdaptiveRateLimiter) Wrap(next llmgateway.Gateway) llmgateway.Gateway {
	return &limitedGateway{next: next, limiter: l}
}

type limitedGateway struct {
	next    llmgateway.Gateway
	limiter *AdaptiveRateLimiter
}

func (g *limitedGateway) Chat(ctx context.Context, req llmgateway.Request) (llmgateway.Response, error) {
	if err := g.limiter.wait(ctx, req); err != nil {
		return llmgateway.Response{}, err
	}
	resp, err := g.next.Chat(ctx, req)
	g.limiter.observe(err)
	return resp, err
}

func (l *AdaptiveRateLimiter) wait(ctx context.Context, req llmgateway.Request) error {
	return l.limiter.WaitN(ctx, estimateTokens(req))
}

func (l *AdaptiveRateLimiter) observe(err error) {
	if err == nil {
		l.probe()
		return
	}
	var te *toolerrors.ToolError
	if errors.As(err, &te) && te.Code == resilient.CodeRateLimited {
		l.backoff()
	}
}

func (l *AdaptiveRateLimiter) backoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	newTPM := l.currentTPM * 0.5
	if newTPM < l.minTPM {
		newTPM = l.minTPM
	}
	l.setLocked(newTPM)
}

func (l *AdaptiveRateLimiter) probe() {
	l.mu.Lock()
	defer l.mu.Unlock()
	newTPM := l.currentTPM + l.recoveryRate
	if newTPM > l.maxTPM {
		newTPM = l.maxTPM
	}
	l.setLocked(newTPM)
}

func (l *AdaptiveRateLimiter) setLocked(tpm float64) {
	if tpm == l.currentTPM {
		return
	}
	l.currentTPM = tpm
	l.limiter.SetLimit(rate.Limit(tpm / 60.0))
	l.limiter.SetBurst(int(tpm))
}

// CurrentTPM reports the limiter's current effective budget, mainly for
// telemetry gauges.
func (l *AdaptiveRateLimiter) CurrentTPM() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentTPM
}

// estimateTokens is a chars/4 approximation: a cheap heuristic, not a real
// tokenizer, with a fixed buffer for system-prompt and provider framing
// overhead.
func estimateTokens(req llmgateway.Request) int {
	charCount := 0
	for _, m := range req.Messages {
		for _, p := range m.Parts {
			switch v := p.(type) {
			case llmgateway.TextPart:
				charCount += len(v.Text)
			case llmgateway.ToolResultPart:
				charCount += len(v.Content)
			}
		}
	}
	if charCount <= 0 {
		return 500
	}
	tokens := charCount / 4
	if tokens < 1 {
		tokens = 1
	}
	return tokens + 500
}
