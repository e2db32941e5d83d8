// Package openai provides a reasoning.Backend implementation using the
// OpenAI Chat Completions API. It translates SDK failures into the typed
// errors the gateway's retry and breaker policies act on; it performs no
// retries of its own.
package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/hupe1980/interviewmesh/reasoning"
)

// Options configure the OpenAI backend adapter.
type Options struct {
	Model  string
	APIKey string
}

// Backend wraps the OpenAI Chat Completions API behind reasoning.Backend.
type Backend struct {
	client *openai.Client
	opts   Options
}

// New creates a backend using the official client. Without an explicit
// APIKey the client falls back to the OPENAI_API_KEY environment variable.
func New(optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model: openai.ChatModelGPT4o,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Backend{client: &client, opts: opts}
}

// NewFromClient creates a backend from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Backend {
	opts := Options{
		Model: openai.ChatModelGPT4o,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Backend{client: client, opts: opts}
}

// Name identifies this backend for logging and breaker keying.
func (b *Backend) Name() string { return "openai" }

// Complete performs one non-streaming chat completion.
func (b *Backend) Complete(ctx context.Context, req reasoning.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: b.opts.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemMessage),
			openai.UserMessage(req.Prompt),
		},
		Temperature:         openai.Float(req.Temperature),
		MaxCompletionTokens: openai.Int(req.MaxTokens),
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &reasoning.InvalidResponseError{Message: "no choices returned"}
	}
	return resp.Choices[0].Message.Content, nil
}

// translateError maps SDK errors onto the gateway's failure taxonomy.
func translateError(err error) error {
	var apierr *openai.Error
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
