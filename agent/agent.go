// Package agent implements the three reasoning-backed interview agents:
// question generation, response evaluation and topic transition. Every agent
// degrades to a deterministic fallback when the reasoning gateway fails, so
// the interview loop is never blocked by an unavailable backend. Outcomes
// carry an explicit degraded flag instead of hiding fallbacks behind logs.
package agent

import (
	"context"

	"github.com/mitchellh/mapstructure"

	"github.com/hupe1980/interviewmesh/reasoning"
)

// Caller is the slice of the reasoning gateway the agents depend on.
// *reasoning.Gateway satisfies it; tests supply fakes.
type Caller interface {
	GenerateText(ctx context.Context, req reasoning.TextRequest) (string, error)
	GenerateStructured(ctx context.Context, req reasoning.StructuredRequest) (map[string]any, error)
}

// Result is an agent outcome: either a regular value or a deterministic
// fallback value produced because of Cause. Degraded results are valid
// inputs for the rest of the pipeline; they are never session errors.
type Result[T any] struct {
	Value    T
	Degraded bool
	Cause    error
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Degraded wraps a fallback value together with the failure that forced it.
func Degraded[T any](v T, cause error) Result[T] {
	return Result[T]{Value: v, Degraded: true, Cause: cause}
}

// decodePayload maps a structured reasoning response onto a typed payload.
// Decoding is strict: wrong-typed fields (e.g. a non-numeric score) fail
// rather than being coerced.
func decodePayload(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
