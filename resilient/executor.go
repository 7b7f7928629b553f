package resilient

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"
)

// Outcome is the structured result of an Executor.Execute call.
type Outcome struct {
	Success        bool
	Attempts       int
	TotalTimeMS    int64
	Result         json.RawMessage
	Err            error
	IdempotencyKey string
	FromCache      bool
}

// Fn is a fallible call the Executor wraps. It must return a JSON-
// marshalable result.
type Fn func(ctx context.Context) (any, error)

// Executor wraps a Fn with retry, backoff+jitter, and idempotency caching.
type Executor struct {
	Policy    Policy
	Classify  Classifier
	Cache     *Cache
	Sleep     func(context.Context, time.Duration) error
}

// New constructs an Executor with the default retry policy and
// classifier. cache may be nil to disable idempotency caching.
func New(cache *Cache) *Executor {
	return &Executor{
		Policy:   DefaultPolicy(),
		Classify: DefaultClassifier,
		Cache:    cache,
		Sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute invokes fn, retrying per policy on classifier-retryable errors.
// When idempotencyKey is non-empty and a cache is configured, a cached
// result from a prior equal call is returned without invoking fn again
// and the attempt counter is not advanced on the cache hit.
func (e *Executor) Execute(ctx context.Context, idempotencyKey string, fn Fn) Outcome {
	start := time.Now()
	if idempotencyKey != "" && e.Cache != nil {
		if cached, ok := e.Cache.Get(idempotencyKey); ok {
			return Outcome{Success: true, Attempts: 0, TotalTimeMS: time.Since(start).Milliseconds(),
				Result: cached, IdempotencyKey: idempotencyKey, FromCache: true}
		}
	}

	classify := e.Classify
	if classify == nil {
		classify = DefaultClassifier
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	maxRetries := e.Policy.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultPolicy().MaxRetries
	}

	var lastErr error
	var prevDelay time.Duration
	attemptsUsed := 0
	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		attemptsUsed = attempt
		res, err := fn(ctx)
		if err == nil {
			data, merr := json.Marshal(res)
			if merr != nil {
				return Outcome{Success: false, Attempts: attempt, TotalTimeMS: time.Since(start).Milliseconds(), Err: merr, IdempotencyKey: idempotencyKey}
			}
			if idempotencyKey != "" && e.Cache != nil {
				e.Cache.Set(idempotencyKey, data)
			}
			return Outcome{Success: true, Attempts: attempt, TotalTimeMS: time.Since(start).Milliseconds(),
				Result: data, IdempotencyKey: idempotencyKey}
		}
		lastErr = err
		if !classify(err) || attempt > maxRetries {
			break
		}
		delay := e.Policy.Delay(attempt, prevDelay, rng)
		prevDelay = delay
		sleep := e.Sleep
		if sleep == nil {
			sleep = sleepCtx
		}
		if serr := sleep(ctx, delay); serr != nil {
			lastErr = serr
			break
		}
	}
	return Outcome{Success: false, Attempts: attemptsUsed, TotalTimeMS: time.Since(start).Milliseconds(),
		Err: lastErr, IdempotencyKey: idempotencyKey}
}
