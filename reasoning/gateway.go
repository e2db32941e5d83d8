package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/interviewmesh/breaker"
	"github.com/hupe1980/interviewmesh/logging"
	"github.com/hupe1980/interviewmesh/metrics"
)

// jsonInstruction is appended to every structured prompt so providers
// without a native JSON mode still return a bare object.
const jsonInstruction = "IMPORTANT: Return your response as a valid JSON object. Do not include any text before or after the JSON."

const defaultSystemMessage = "You are a helpful assistant."

// GatewayOptions configure retry, timeout and breaker behavior.
type GatewayOptions struct {
	// MaxAttempts bounds retries for transient failures. Default 3.
	MaxAttempts int
	// InitialWait is the first backoff delay, doubled per attempt. Default 1s.
	InitialWait time.Duration
	// MaxWait caps the backoff delay. Default 10s.
	MaxWait time.Duration
	// CallTimeout bounds each individual backend attempt. Default 30s.
	CallTimeout time.Duration
	// Breakers supplies per-service circuit breakers; a fresh registry with
	// defaults is created when nil.
	Breakers *breaker.Registry
	// Logger receives per-call logs. Defaults to noop.
	Logger logging.Logger
	// Collector records call durations. Defaults to an unlogged collector.
	Collector *metrics.Collector
	// Sleep overrides the backoff sleep, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Gateway routes every reasoning call through retry with exponential backoff
// and the backend's circuit breaker. Transient failures (rate limit, timeout,
// generic upstream errors) are retried; malformed output gets one extraction
// fallback and is then surfaced as InvalidResponseError; an open breaker
// rejects the call before the backend is touched.
type Gateway struct {
	backend   Backend
	breakers  *breaker.Registry
	logger    logging.Logger
	collector *metrics.Collector

	maxAttempts int
	initialWait time.Duration
	maxWait     time.Duration
	callTimeout time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewGateway wraps the backend with the resilience layer.
func NewGateway(backend Backend, optFns ...func(o *GatewayOptions)) *Gateway {
	opts := GatewayOptions{
		MaxAttempts: 3,
		InitialWait: time.Second,
		MaxWait:     10 * time.Second,
		CallTimeout: 30 * time.Second,
		Logger:      logging.NewNoOpLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Breakers == nil {
		opts.Breakers = breaker.NewRegistry(func(o *breaker.Options) { o.Logger = opts.Logger })
	}
	if opts.Collector == nil {
		opts.Collector = metrics.NewCollector(nil)
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Gateway{
		backend:     backend,
		breakers:    opts.Breakers,
		logger:      opts.Logger,
		collector:   opts.Collector,
		maxAttempts: opts.MaxAttempts,
		initialWait: opts.InitialWait,
		maxWait:     opts.MaxWait,
		callTimeout: opts.CallTimeout,
		sleep:       opts.Sleep,
	}
}

// Breakers exposes the breaker registry for status inspection.
func (g *Gateway) Breakers() *breaker.Registry { return g.breakers }

// TextRequest asks for a free-text completion.
type TextRequest struct {
	Prompt        string
	SystemMessage string
	Temperature   float64
	MaxTokens     int64
}

// StructuredRequest asks for a single JSON object. ResponseFormatHint
// documents the expected fields for the model; it is advisory only.
type StructuredRequest struct {
	Prompt             string
	SystemMessage      string
	ResponseFormatHint map[string]string
	Temperature        float64
	MaxTokens          int64
}

// GenerateText returns a free-text completion, retrying transient failures.
// Blank completions fail with InvalidResponseError.
func (g *Gateway) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	breq := Request{
		Prompt:        req.Prompt,
		SystemMessage: orDefault(req.SystemMessage, defaultSystemMessage),
		Temperature:   orDefaultFloat(req.Temperature, 0.7),
		MaxTokens:     orDefaultInt(req.MaxTokens, 1000),
	}
	result, err := g.invoke(ctx, breq, func(text string) (any, error) { return text, nil })
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// GenerateStructured returns a parsed JSON object. The prompt is extended
// with an instruction demanding a bare JSON object; if direct parsing of the
// completion fails, the first top-level {...} block is extracted before
// giving up with InvalidResponseError.
func (g *Gateway) GenerateStructured(ctx context.Context, req StructuredRequest) (map[string]any, error) {
	breq := Request{
		Prompt:        req.Prompt + "\n\n" + jsonInstruction,
		SystemMessage: orDefault(req.SystemMessage, defaultSystemMessage),
		Temperature:   orDefaultFloat(req.Temperature, 0.7),
		MaxTokens:     orDefaultInt(req.MaxTokens, 1500),
		JSONMode:      true,
	}
	result, err := g.invoke(ctx, breq, func(text string) (any, error) { return parseJSONObject(text) })
	if err != nil {
		return nil, err
	}
	return result.(map[string]any), nil
}

// invoke runs one backend request through breaker + retry. decode runs inside
// the attempt so malformed output surfaces immediately (it is neither counted
// by the breaker nor retried).
func (g *Gateway) invoke(ctx context.Context, req Request, decode func(string) (any, error)) (any, error) {
	service := g.backend.Name()
	cb := g.breakers.Get(service)

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		start := time.Now()
		result, err := breaker.Do(cb, transient, func() (any, error) {
			cctx, cancel := context.WithTimeout(ctx, g.callTimeout)
			defer cancel()

			text, err := g.backend.Complete(cctx, req)
			if err != nil {
				return nil, classify(err)
			}
			if strings.TrimSpace(text) == "" {
				return nil, &InvalidResponseError{Message: "empty response from backend"}
			}
			return decode(text)
		})
		duration := time.Since(start)
		g.collector.Record("reasoning.call", duration.Seconds(), "seconds", map[string]string{"service": service})

		if err == nil {
			g.logger.Info("reasoning call succeeded",
				"service", service, "duration", duration, "attempt", attempt)
			return result, nil
		}

		g.logger.Warn("reasoning call failed",
			"service", service, "duration", duration, "attempt", attempt, "error", err)
		lastErr = err

		if !transient(err) {
			// Breaker-open and malformed-output failures are not retried.
			return nil, err
		}
		if attempt < g.maxAttempts {
			if serr := g.sleep(ctx, g.backoff(attempt)); serr != nil {
				return nil, serr
			}
		}
	}

	var ue *UpstreamError
	if errors.As(lastErr, &ue) {
		ue.Attempts = g.maxAttempts
	}
	return nil, lastErr
}

// backoff returns the delay before the next attempt: initial * 2^(attempt-1),
// capped at maxWait.
func (g *Gateway) backoff(attempt int) time.Duration {
	wait := g.initialWait
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= g.maxWait {
			return g.maxWait
		}
	}
	if wait > g.maxWait {
		return g.maxWait
	}
	return wait
}

// transient reports whether err belongs to the retried failure classes.
func transient(err error) bool {
	var rl *RateLimitedError
	var ue *UpstreamError
	return errors.As(err, &rl) || errors.As(err, &ue)
}

// classify normalizes context timeouts into UpstreamError; typed errors from
// backends pass through untouched.
func classify(err error) error {
	var rl *RateLimitedError
	var ue *UpstreamError
	var ir *InvalidResponseError
	if errors.As(err, &rl) || errors.As(err, &ue) || errors.As(err, &ir) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Kind: KindTimeout, Message: err.Error()}
	}
	return &UpstreamError{Kind: KindUnexpected, Message: err.Error()}
}

// parseJSONObject parses text as a JSON object, falling back to extracting
// the first top-level {...} block when the completion carries extra prose.
func parseJSONObject(text string) (map[string]any, error) {
	cleaned := stripFences(text)

	var result map[string]any
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		return result, nil
	}

	if extracted, ok := extractJSONObject(cleaned); ok {
		return extracted, nil
	}
	return nil, &InvalidResponseError{Message: "failed to parse JSON", Preview: text}
}

// stripFences removes markdown code block wrappers around JSON payloads.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// extractJSONObject pulls the outermost {...} span out of surrounding text
// and parses it when it forms a valid JSON object.
func extractJSONObject(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) || !gjson.Parse(candidate).IsObject() {
		return nil, false
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return nil, false
	}
	return result, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultFloat(f, def float64) float64 {
	if f == 0 {
		return def
	}
	return f
}

func orDefaultInt(i, def int64) int64 {
	if i == 0 {
		return def
	}
	return i
}
