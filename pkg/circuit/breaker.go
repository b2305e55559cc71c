// Package circuit provides a small circuit breaker for fail-safe access to
// optional backends.
package circuit

import (
	"sync"
	"time"
)

// Breaker trips after a run of consecutive failures and stays open for a
// cooldown period. While open, Allow rejects calls except for a single probe
// once the cooldown has elapsed; a successful probe closes the circuit.
type Breaker struct {
	mu       sync.Mutex
	name     string
	failures int
	open     bool
	openedAt time.Time

	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets the number of consecutive failures that open the
// circuit. Default is 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open before allowing a probe.
// Default is 30 seconds.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a closed Breaker with the given name.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		cooldown:         30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the breaker's identifier for logging.
func (b *Breaker) Name() string { return b.name }

// Allow reports whether a call may proceed. While open it returns false
// until the cooldown elapses, then lets one probe through per cooldown
// window.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}
	// Probe window: push openedAt forward so concurrent callers do not
	// all pile onto the backend at once.
	b.openedAt = b.now()
	return true
}

// RecordSuccess closes the circuit and clears the failure run.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.failures = 0
}

// RecordFailure notes a failed call. It returns true when this failure
// tripped the circuit open, so callers can log the transition once.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.open {
		b.openedAt = b.now()
		return false
	}
	if b.failures >= b.failureThreshold {
		b.open = true
		b.openedAt = b.now()
		return true
	}
	return false
}

// IsOpen returns true if the circuit is currently open.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}
