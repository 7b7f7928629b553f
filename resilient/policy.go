// Package resilient implements the Resilient Executor: retry
// with exponential backoff and jitter, plus an idempotency cache keyed on a
// stable hash of (function_id, args).
//
// Retry/backoff math generalizes a halve-on-throttle, linear-climb-on-
// success policy into a configurable Policy; the idempotency cache is a TTL
// map guarded by sync.RWMutex, with optional persistence to disk.
package resilient

import (
	"math/rand"
	"time"
)

// JitterKind selects the backoff jitter strategy.
type JitterKind string

const (
	JitterNone         JitterKind = "none"
	JitterFull         JitterKind = "full"
	JitterEqual        JitterKind = "equal"
	JitterDecorrelated JitterKind = "decorrelated"
)

// Policy configures retry backoff. Full jitter is the default.
type Policy struct {
	Base       time.Duration
	Max        time.Duration
	Jitter     JitterKind
	MaxRetries int
}

// DefaultPolicy returns the system's default resource caps: 8 retries,
// exponential backoff from 250ms to 5000ms, full jitter.
func DefaultPolicy() Policy {
	return Policy{
		Base:       250 * time.Millisecond,
		Max:        5000 * time.Millisecond,
		Jitter:     JitterFull,
		MaxRetries: 8,
	}
}

// Delay computes the backoff delay before retry attempt n (1-indexed: the
// delay before the first retry, after the initial attempt failed).
// prevDelay is only consulted for JitterDecorrelated.
func (p Policy) Delay(n int, prevDelay time.Duration, rng *rand.Rand) time.Duration {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	base := p.Base
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	max := p.Max
	if max <= 0 {
		max = 5000 * time.Millisecond
	}

	exp := base << uint(n-1)
	if exp <= 0 || exp > max { // overflow or over cap
		exp = max
	}

	switch p.Jitter {
	case JitterNone:
		return exp
	case JitterEqual:
		half := exp / 2
		return half + time.Duration(rng.Int63n(int64(half)+1))
	case JitterDecorrelated:
		if prevDelay <= 0 {
			prevDelay = base
		}
		upper := prevDelay * 3
		if upper > max {
			upper = max
		}
		if upper <= base {
			return base
		}
		return base + time.Duration(rng.Int63n(int64(upper-base)+1))
	case JitterFull:
		fallthrough
	default:
		if exp <= 0 {
			return 0
		}
		return time.Duration(rng.Int63n(int64(exp) + 1))
	}
}
