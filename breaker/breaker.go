// Package breaker implements a three-state circuit breaker used to isolate
// failing external dependencies. Breakers are keyed by service name through
// a Registry so independent failure domains never cross-trip.
package breaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/interviewmesh/logging"
)

// State is the circuit breaker state.
type State string

const (
	// StateClosed is normal operation; calls pass through.
	StateClosed State = "closed"
	// StateOpen rejects calls immediately until the recovery timeout elapses.
	StateOpen State = "open"
	// StateHalfOpen lets trial calls through while probing recovery.
	StateHalfOpen State = "half_open"
)

// Half-open requires this many consecutive successes before closing.
const halfOpenSuccesses = 2

// OpenError is returned when a call is rejected because the circuit is open.
type OpenError struct {
	Service  string
	Failures int
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for %s after %d failures", e.Service, e.Failures)
}

// Options configure a CircuitBreaker.
type Options struct {
	// FailureThreshold is the number of consecutive counted failures that
	// opens the circuit. Default 5.
	FailureThreshold int
	// RecoveryTimeout is how long an open circuit rejects calls before the
	// next call is allowed through as a half-open trial. Default 60s.
	RecoveryTimeout time.Duration
	// Logger receives state transition logs. Defaults to a noop logger.
	Logger logging.Logger
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// CircuitBreaker tracks failures for one named dependency. It is shared
// across concurrent sessions; all state transitions are mutex-guarded.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration
	logger           logging.Logger
	now              func() time.Time

	mu           sync.Mutex
	state        State
	failureCount int
	successCount int
	lastFailure  time.Time
}

// New creates a closed circuit breaker for the named service.
func New(name string, optFns ...func(o *Options)) *CircuitBreaker {
	opts := Options{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		Logger:           logging.NewNoOpLogger(),
		Clock:            time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: opts.FailureThreshold,
		recoveryTimeout:  opts.RecoveryTimeout,
		logger:           opts.Logger,
		now:              opts.Clock,
		state:            StateClosed,
	}
}

// Allow reports whether a call may proceed. An open circuit whose recovery
// timeout has elapsed transitions to half-open and lets the call through;
// otherwise it returns an OpenError without the wrapped call ever running.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}
	if b.now().Sub(b.lastFailure) >= b.recoveryTimeout {
		b.logger.Info("circuit breaker transitioning to half-open", "service", b.name)
		b.state = StateHalfOpen
		b.successCount = 0
		return nil
	}
	b.logger.Warn("circuit breaker open, rejecting call", "service", b.name, "failures", b.failureCount)
	return &OpenError{Service: b.name, Failures: b.failureCount}
}

// RecordSuccess resets the failure counter and, in half-open state, counts
// toward the consecutive successes required to close the circuit. A single
// half-open success alone does not close it.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= halfOpenSuccesses {
			b.logger.Info("circuit breaker transitioning to closed", "service", b.name)
			b.state = StateClosed
			b.successCount = 0
		}
	}
}

// RecordFailure increments the failure counter, re-opens a half-open circuit
// immediately and opens a closed circuit once the threshold is reached.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailure = b.now()
	b.logger.Warn("circuit breaker failure recorded",
		"service", b.name, "failures", b.failureCount, "threshold", b.failureThreshold)

	if b.state == StateHalfOpen || b.failureCount >= b.failureThreshold {
		b.logger.Error("circuit breaker transitioning to open", "service", b.name, "failures", b.failureCount)
		b.state = StateOpen
	}
}

// Reset forces the breaker back to a pristine closed state.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.lastFailure = time.Time{}
}

// Status is a point-in-time snapshot of a breaker's counters.
type Status struct {
	Name         string     `json:"name"`
	State        State      `json:"state"`
	FailureCount int        `json:"failure_count"`
	SuccessCount int        `json:"success_count"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}

// Status returns the current snapshot.
func (b *CircuitBreaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := Status{
		Name:         b.name,
		State:        b.state,
		FailureCount: b.failureCount,
		SuccessCount: b.successCount,
	}
	if !b.lastFailure.IsZero() {
		t := b.lastFailure
		st.LastFailure = &t
	}
	return st
}

// Do executes fn under the breaker. Failures only count toward the threshold
// when countable returns true (nil counts everything), so callers can keep
// malformed-output errors from tripping a breaker meant for transport
// failures. Successful calls always reset the failure counter.
func Do[T any](b *CircuitBreaker, countable func(error) bool, fn func() (T, error)) (T, error) {
	var zero T
	if err := b.Allow(); err != nil {
		return zero, err
	}
	result, err := fn()
	if err != nil {
		if countable == nil || countable(err) {
			b.RecordFailure()
		}
		return zero, err
	}
	b.RecordSuccess()
	return result, nil
}
