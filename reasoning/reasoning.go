// Package reasoning wraps a single external text/structured-generation
// capability behind the Gateway: bounded retry with exponential backoff, a
// per-service circuit breaker and JSON-mode response handling. It is the
// only package that talks to the outside reasoning service.
//
// Provider backends live in the reasoning/openai and reasoning/anthropic
// subpackages; they translate SDK failures into this package's typed errors
// and stay free of any retry or breaker logic.
package reasoning

import (
	"context"
	"fmt"
	"time"
)

// Upstream error kinds carried by UpstreamError.
const (
	KindTimeout    = "timeout"
	KindAPIError   = "api_error"
	KindUnexpected = "unexpected"
)

// RateLimitedError signals the upstream rejected the call due to rate
// limiting. Transient: the gateway retries it.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// UpstreamError signals a timeout or generic upstream failure. Transient:
// the gateway retries it. Attempts carries how many attempts were made when
// the error is finally surfaced.
type UpstreamError struct {
	Kind     string
	Message  string
	Attempts int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (%s): %s (attempt %d)", e.Kind, e.Message, e.Attempts)
}

// InvalidResponseError signals empty/blank content or JSON that could not be
// parsed or extracted. Not transient: surfaced to the calling agent after a
// single extraction fallback, and never counted against the circuit breaker.
type InvalidResponseError struct {
	Message string
	Preview string
}

func (e *InvalidResponseError) Error() string {
	preview := e.Preview
	if len(preview) > 100 {
		preview = preview[:100]
	}
	return fmt.Sprintf("invalid reasoning response: %s (preview: %q)", e.Message, preview)
}

// Request is a single completion request handed to a Backend. When JSONMode
// is set, backends that support a native JSON output mode should enable it;
// the gateway additionally instructs the model through the prompt.
type Request struct {
	Prompt        string
	SystemMessage string
	Temperature   float64
	MaxTokens     int64
	JSONMode      bool
}

// Backend is a provider adapter producing one text completion per call.
// Implementations must map provider failures to RateLimitedError or
// UpstreamError and must not retry internally.
type Backend interface {
	// Name identifies the backend for logging and breaker keying.
	Name() string
	// Complete returns the raw completion text for the request.
	Complete(ctx context.Context, req Request) (string, error)
}
