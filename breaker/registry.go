package breaker

import (
	"sync"
	"time"

	"github.com/hupe1980/interviewmesh/logging"
)

// Registry hands out one breaker per named external dependency, creating
// them lazily with the registry defaults. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	optFns   []func(o *Options)
}

// NewRegistry creates a registry whose breakers are built with the given
// option functions.
func NewRegistry(optFns ...func(o *Options)) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		optFns:   optFns,
	}
}

// NewRegistryWithDefaults creates a registry with explicit threshold and
// timeout applied to every breaker it creates.
func NewRegistryWithDefaults(threshold int, recovery time.Duration, logger logging.Logger) *Registry {
	return NewRegistry(func(o *Options) {
		o.FailureThreshold = threshold
		o.RecoveryTimeout = recovery
		if logger != nil {
			o.Logger = logger
		}
	})
}

// Get returns the breaker registered under name, creating it on first use.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := New(name, r.optFns...)
	r.breakers[name] = b
	return b
}

// ResetAll resets every registered breaker to closed.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.breakers {
		b.Reset()
	}
}

// StatusAll returns a snapshot of every registered breaker keyed by name.
func (r *Registry) StatusAll() map[string]Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Status, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.Status()
	}
	return out
}
