// Package metrics provides a small in-process collector for counters and
// timings. It exists for observability inside embedding applications and
// tests; nothing in the interview control flow depends on it.
package metrics

import (
	"sync"
	"time"

	"github.com/hupe1980/interviewmesh/logging"
)

// Sample is a single recorded metric value.
type Sample struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Unit      string            `json:"unit"`
	Timestamp time.Time         `json:"timestamp"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Summary aggregates all samples recorded under one name.
type Summary struct {
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Collector records metric samples and named timers. Safe for concurrent use.
type Collector struct {
	logger logging.Logger

	mu      sync.Mutex
	samples map[string][]Sample
	timers  map[string]time.Time
	now     func() time.Time
}

// NewCollector creates an empty collector. A nil logger defaults to noop.
func NewCollector(logger logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Collector{
		logger:  logger,
		samples: make(map[string][]Sample),
		timers:  make(map[string]time.Time),
		now:     time.Now,
	}
}

// Record stores one sample under name.
func (c *Collector) Record(name string, value float64, unit string, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[name] = append(c.samples[name], Sample{
		Name:      name,
		Value:     value,
		Unit:      unit,
		Timestamp: c.now(),
		Labels:    labels,
	})
	c.logger.Debug("metric recorded", "metric", name, "value", value, "unit", unit)
}

// StartTimer begins a named timer, replacing any previous start.
func (c *Collector) StartTimer(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers[name] = c.now()
}

// StopTimer ends a named timer, records the elapsed seconds as a sample and
// returns the duration. Stopping an unknown timer records nothing.
func (c *Collector) StopTimer(name string, labels map[string]string) time.Duration {
	c.mu.Lock()
	start, ok := c.timers[name]
	if ok {
		delete(c.timers, name)
	}
	c.mu.Unlock()
	if !ok {
		return 0
	}
	elapsed := c.now().Sub(start)
	c.Record(name, elapsed.Seconds(), "seconds", labels)
	return elapsed
}

// Summary aggregates the samples recorded under name; ok is false when the
// name has no samples.
func (c *Collector) Summary(name string) (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	samples := c.samples[name]
	if len(samples) == 0 {
		return Summary{}, false
	}
	s := Summary{Count: len(samples), Min: samples[0].Value, Max: samples[0].Value}
	var sum float64
	for _, sample := range samples {
		sum += sample.Value
		if sample.Value < s.Min {
			s.Min = sample.Value
		}
		if sample.Value > s.Max {
			s.Max = sample.Value
		}
	}
	s.Average = sum / float64(len(samples))
	return s, true
}

// Samples returns a copy of all samples recorded under name.
func (c *Collector) Samples(name string) []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sample(nil), c.samples[name]...)
}

// Reset discards all samples and timers.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = make(map[string][]Sample)
	c.timers = make(map[string]time.Time)
}
