package resilient

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"codeforge.dev/agentcore/internal/toolerrors"
)

func TestCacheSetGetExpiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	c.Set("k", []byte(`"v"`))
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected a fresh entry to be found")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected the entry to have expired")
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewCache(0)
	c.Set("k", []byte(`"v"`))
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected a zero-TTL entry to never expire")
	}
}

func TestCacheDelete(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("k", []byte(`"v"`))
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected the entry to be gone after Delete")
	}
}

func TestKeyIsStableForEqualInputs(t *testing.T) {
	k1, err := Key("write_file", map[string]any{"path": "a.go"})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	k2, err := Key("write_file", map[string]any{"path": "a.go"})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if k1 != k2 {
		t.Fatalf("expected equal (fn, args) to hash to the same key")
	}
	k3, _ := Key("write_file", map[string]any{"path": "b.go"})
	if k1 == k3 {
		t.Fatalf("expected different args to hash to different keys")
	}
}

func TestCacheSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/cache.json"
	c := NewCache(time.Minute).WithPersistence(path)
	c.Set("k", []byte(`"v"`))
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded := NewCache(time.Minute).WithPersistence(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := loaded.Get("k")
	if !ok || string(got) != `"v"` {
		t.Fatalf("expected the persisted entry to round-trip, got %q, %v", got, ok)
	}
}

func TestCacheLoadMissingFileIsNotAnError(t *testing.T) {
	c := NewCache(time.Minute).WithPersistence("/tmp/does-not-exist-agentcore-cache.json")
	if err := c.Load(); err != nil {
		t.Fatalf("expected a missing cache file to be a no-op, got %v", err)
	}
}

func TestPolicyDelayNoneJitterIsExponential(t *testing.T) {
	p := Policy{Base: 100 * time.Millisecond, Max: time.Second, Jitter: JitterNone}
	if got := p.Delay(1, 0, nil); got != 100*time.Millisecond {
		t.Fatalf("expected 100ms for attempt 1, got %v", got)
	}
	if got := p.Delay(2, 0, nil); got != 200*time.Millisecond {
		t.Fatalf("expected 200ms for attempt 2, got %v", got)
	}
	if got := p.Delay(10, 0, nil); got != time.Second {
		t.Fatalf("expected the delay to cap at Max, got %v", got)
	}
}

func TestPolicyDelayFullJitterStaysWithinBounds(t *testing.T) {
	p := DefaultPolicy()
	rng := rand.New(rand.NewSource(1))
	for n := 1; n <= 5; n++ {
		d := p.Delay(n, 0, rng)
		if d < 0 || d > p.Max {
			t.Fatalf("attempt %d: delay %v out of bounds [0, %v]", n, d, p.Max)
		}
	}
}

func TestDefaultClassifierRetriesOnlyTransientCodes(t *testing.T) {
	if !DefaultClassifier(toolerrors.Classify(CodeNetwork, "dial failed")) {
		t.Fatalf("expected a network error to be retryable")
	}
	if !DefaultClassifier(toolerrors.Classify(CodeRateLimited, "429")) {
		t.Fatalf("expected a rate-limited error to be retryable")
	}
	if DefaultClassifier(toolerrors.Classify(CodeBadInput, "bad args")) {
		t.Fatalf("did not expect a bad-input error to be retryable")
	}
	if DefaultClassifier(errors.New("plain error")) {
		t.Fatalf("did not expect a non-ToolError to be retryable")
	}
	if DefaultClassifier(nil) {
		t.Fatalf("did not expect nil to be retryable")
	}
}

func TestExecutorSucceedsOnFirstAttempt(t *testing.T) {
	e := New(nil)
	out := e.Execute(context.Background(), "", func(ctx context.Context) (any, error) {
		return map[string]string{"ok": "true"}, nil
	})
	if !out.Success || out.Attempts != 1 {
		t.Fatalf("expected a single successful attempt, got %+v", out)
	}
}

func TestExecutorRetriesRetryableErrorsThenSucceeds(t *testing.T) {
	e := New(nil)
	e.Policy = Policy{Base: time.Millisecond, Max: 2 * time.Millisecond, Jitter: JitterNone, MaxRetries: 3}
	attempts := 0
	out := e.Execute(context.Background(), "", func(ctx context.Context) (any, error) {
		attempts++
		if attempts < 3 {
			return nil, toolerrors.Classify(CodeNetwork, "transient")
		}
		return "done", nil
	})
	if !out.Success || out.Attempts != 3 {
		t.Fatalf("expected success on the third attempt, got %+v", out)
	}
}

func TestExecutorStopsImmediatelyOnNonRetryableError(t *testing.T) {
	e := New(nil)
	attempts := 0
	out := e.Execute(context.Background(), "", func(ctx context.Context) (any, error) {
		attempts++
		return nil, toolerrors.Classify(CodeBadInput, "bad args")
	})
	if out.Success || attempts != 1 {
		t.Fatalf("expected a non-retryable error to stop after one attempt, got %d attempts", attempts)
	}
}

func TestExecutorUsesCacheOnIdempotencyKeyHit(t *testing.T) {
	cache := NewCache(time.Minute)
	e := New(cache)
	calls := 0
	run := func(ctx context.Context) (any, error) {
		calls++
		return "first", nil
	}
	out1 := e.Execute(context.Background(), "op-1", run)
	if !out1.Success || out1.FromCache {
		t.Fatalf("expected the first call to run live, got %+v", out1)
	}
	out2 := e.Execute(context.Background(), "op-1", run)
	if !out2.FromCache || calls != 1 {
		t.Fatalf("expected the second call to be served from cache without invoking fn again, calls=%d", calls)
	}
}

func TestExecutorExhaustsRetriesAndFails(t *testing.T) {
	e := New(nil)
	e.Policy = Policy{Base: time.Millisecond, Max: 2 * time.Millisecond, Jitter: JitterNone, MaxRetries: 2}
	attempts := 0
	out := e.Execute(context.Background(), "", func(ctx context.Context) (any, error) {
		attempts++
		return nil, toolerrors.Classify(CodeNetwork, "still down")
	})
	if out.Success || attempts != 3 {
		t.Fatalf("expected MaxRetries+1 attempts (3), got %d, success=%v", attempts, out.Success)
	}
}
