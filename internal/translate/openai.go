package translate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-translate/internal/apierr"
	"github.com/alnah/go-translate/internal/lang"
	"github.com/alnah/go-translate/internal/summary"
)

// DeepSeekBaseURL is the OpenAI-compatible DeepSeek endpoint.
const DeepSeekBaseURL = "https://api.deepseek.com/v1"

// Retry configuration.
const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// chatCompleter is an internal interface for OpenAI chat completion.
// *openai.Client implements this implicitly.
// This allows injecting mocks in tests.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Translator         = (*OpenAIClient)(nil)
	_ summary.Summarizer = (*OpenAIClient)(nil)
	_ modeler            = (*OpenAIClient)(nil)
)

// OpenAIClient translates and summarizes through an OpenAI-compatible chat
// completion API. It retries rate limits and timeouts with exponential backoff.
type OpenAIClient struct {
	client      chatCompleter
	model       string
	temperature float32
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *slog.Logger
}

// Option configures an OpenAIClient.
type Option func(*OpenAIClient)

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(c *OpenAIClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *OpenAIClient) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *OpenAIClient) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) Option {
	return func(c *OpenAIClient) {
		if base > 0 {
			c.baseDelay = base
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// WithClientLogger sets the logger used for retry diagnostics.
func WithClientLogger(l *slog.Logger) Option {
	return func(c *OpenAIClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// withChatCompleter sets a custom chat completer (for testing).
func withChatCompleter(cc chatCompleter) Option {
	return func(c *OpenAIClient) {
		c.client = cc
	}
}

// NewOpenAIClient wraps an *openai.Client. DeepSeek is served by the same
// client configured with DeepSeekBaseURL (see NewDeepSeekClient).
func NewOpenAIClient(client *openai.Client, opts ...Option) *OpenAIClient {
	c := &OpenAIClient{
		client:      client,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxRetries:  defaultMaxRetries,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDeepSeekClient returns an OpenAIClient that talks to DeepSeek.
// baseURL overrides DeepSeekBaseURL when non-empty.
func NewDeepSeekClient(apiKey, baseURL string, opts ...Option) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = DeepSeekBaseURL
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	opts = append([]Option{WithModel("deepseek-chat")}, opts...)
	return NewOpenAIClient(openai.NewClientWithConfig(cfg), opts...)
}

// Model returns the configured chat model.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Translate translates text into target. The answer is trimmed of
// surrounding whitespace.
func (c *OpenAIClient) Translate(ctx context.Context, text string, target lang.Language) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: translatePrompt(target)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: wireTemperature(c.temperature),
	}
	return c.completeWithRetry(ctx, req)
}

// Summarize asks for a 3-4 sentence summary of text written in target.
func (c *OpenAIClient) Summarize(ctx context.Context, text string, target lang.Language) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: summaryPrompt(text, target)},
		},
		Temperature: wireTemperature(c.temperature),
	}
	return c.completeWithRetry(ctx, req)
}

// wireTemperature maps 0 to the smallest positive float32. go-openai omits a
// zero temperature from the request body, and the API then applies its own
// default of 1.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// completeWithRetry executes the request with exponential backoff retry.
func (c *OpenAIClient) completeWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	cfg := apierr.RetryConfig{
		MaxRetries: c.maxRetries,
		BaseDelay:  c.baseDelay,
		MaxDelay:   c.maxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			c.logger.Warn("retrying completion", "model", c.model, "attempt", attempt, "delay", delay, "error", err)
		},
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", apierr.Classify(err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices returned: %w", apierr.ErrEmptyResponse)
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}, apierr.IsRetryable)
}
