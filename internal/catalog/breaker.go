package catalog

import (
	"sync"
	"time"
)

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// breaker is a sliding-window circuit breaker guarding catalog calls. After
// more than maxFailures failures inside window it opens and rejects calls
// until cooldown has elapsed, then lets a single trial call through
// (half-open). Other callers are rejected until that trial reports back.
type breaker struct {
	maxFailures int
	window      time.Duration
	cooldown    time.Duration

	mu       sync.Mutex
	state    breakerState
	failures []time.Time
	openedAt time.Time
	trial    bool // a half-open call is in flight
	now      func() time.Time
}

func newBreaker(maxFailures int, cooldown, window time.Duration) *breaker {
	return &breaker{
		maxFailures: maxFailures,
		window:      window,
		cooldown:    cooldown,
		state:       stateClosed,
		now:         time.Now,
	}
}

// allow reports whether a call may proceed. A nil or disabled breaker always allows.
func (b *breaker) allow() bool {
	if b == nil || b.maxFailures <= 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = stateHalfOpen
		b.failures = b.failures[:0]
		b.trial = true
		return true
	case stateHalfOpen:
		if b.trial {
			return false
		}
		b.trial = true
		return true
	default:
		return true
	}
}

// record feeds the outcome of a call back into the breaker.
func (b *breaker) record(failed bool) {
	if b == nil || b.maxFailures <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trial = false
	now := b.now()
	if !failed {
		b.prune(now)
		if b.state == stateHalfOpen {
			b.state = stateClosed
			b.failures = b.failures[:0]
		}
		return
	}

	b.failures = append(b.failures, now)
	b.prune(now)
	if len(b.failures) > b.maxFailures || b.state == stateHalfOpen {
		b.state = stateOpen
		b.openedAt = now
	}
}

// release ends a call without counting it either way, e.g. when the caller
// gave up before the catalog answered.
func (b *breaker) release() {
	if b == nil || b.maxFailures <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trial = false
}

func (b *breaker) currentState() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// prune drops failures older than the window. Caller holds mu.
func (b *breaker) prune(now time.Time) {
	cutoff := now.Add(-b.window)
	keep := b.failures[:0]
	for _, t := range b.failures {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	b.failures = keep
}
