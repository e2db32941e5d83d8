// Package anthropic provides a reasoning.Backend implementation using the
// Anthropic Messages API. Like the openai backend it only translates SDK
// failures into typed errors; retry and breaker policy live in the gateway.
package anthropic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/interviewmesh/reasoning"
)

// Options configure the Anthropic backend adapter.
type Options struct {
	Model  anthropic.Model
	APIKey string
}

// Backend wraps the Anthropic Messages API behind reasoning.Backend.
type Backend struct {
	client *anthropic.Client
	opts   Options
}

// New creates a backend using the official client.
func New(optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model: anthropic.ModelClaude3_5Sonnet20241022,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Backend{client: &client, opts: opts}
}

// NewFromClient creates a backend from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model: anthropic.ModelClaude3_5Sonnet20241022,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Backend{client: client, opts: opts}
}

// Name identifies this backend for logging and breaker keying.
func (b *Backend) Name() string { return "anthropic" }

// Complete performs one non-streaming message completion. Anthropic has no
// native JSON output mode; structured requests rely on the gateway's prompt
// instruction.
func (b *Backend) Complete(ctx context.Context, req reasoning.Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       b.opts.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: req.SystemMessage},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return "", translateError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}

// translateError maps SDK errors onto the gateway's failure taxonomy.
func translateError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == 429 {
			return &reasoning.RateLimitedError{RetryAfter: 60 * time.Second}
		}
		return &reasoning.UpstreamError{Kind: reasoning.KindAPIError, Message: apierr.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timeout") {
		return &reasoning.UpstreamError{Kind: reasoning.KindTimeout, Message: err.Error()}
	}
	return &reasoning.UpstreamError{Kind: reasoning.KindUnexpected, Message: err.Error()}
}
