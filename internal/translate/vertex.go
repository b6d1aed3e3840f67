package translate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/alnah/go-translate/internal/apierr"
	"github.com/alnah/go-translate/internal/lang"
	"github.com/alnah/go-translate/internal/summary"
)

// DefaultVertexModel is used when no model is configured for Vertex AI.
const DefaultVertexModel = "gemini-2.0-flash"

// contentGenerator is satisfied by *genai.GenerativeModel.
// This allows injecting mocks in tests.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Translator         = (*VertexClient)(nil)
	_ summary.Summarizer = (*VertexClient)(nil)
	_ modeler            = (*VertexClient)(nil)
	_ contentGenerator   = (*genai.GenerativeModel)(nil)
)

// VertexConfig identifies the Vertex AI project and model.
type VertexConfig struct {
	ProjectID       string
	Region          string
	Model           string
	CredentialsFile string // optional; application default credentials otherwise
}

// VertexClient translates and summarizes with Gemini models on Vertex AI.
type VertexClient struct {
	newModel    func(system string, temperature float32) contentGenerator
	closer      io.Closer
	model       string
	temperature float32
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *slog.Logger
}

// VertexOption configures a VertexClient.
type VertexOption func(*VertexClient)

// WithVertexTemperature sets the sampling temperature.
func WithVertexTemperature(t float32) VertexOption {
	return func(c *VertexClient) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// WithVertexRetry sets the retry count and backoff delays.
func WithVertexRetry(n int, base, max time.Duration) VertexOption {
	return func(c *VertexClient) {
		if n >= 0 {
			c.maxRetries = n
		}
		if base > 0 {
			c.baseDelay = base
		}
		if max > 0 {
			c.maxDelay = max
		}
	}
}

// WithVertexLogger sets the logger used for retry diagnostics.
func WithVertexLogger(l *slog.Logger) VertexOption {
	return func(c *VertexClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// withModelFactory replaces the genai model factory (for testing).
func withModelFactory(f func(system string, temperature float32) contentGenerator) VertexOption {
	return func(c *VertexClient) {
		c.newModel = f
	}
}

// NewVertexClient connects to Vertex AI. Call Close when done.
func NewVertexClient(ctx context.Context, cfg VertexConfig, opts ...VertexOption) (*VertexClient, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("vertex: project and region are required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultVertexModel
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	factory := func(system string, temperature float32) contentGenerator {
		m := client.GenerativeModel(cfg.Model)
		if system != "" {
			m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
		}
		m.Temperature = genai.Ptr(temperature)
		return m
	}

	c := newVertexClient(cfg.Model, factory, opts...)
	c.closer = client
	return c, nil
}

func newVertexClient(model string, factory func(string, float32) contentGenerator, opts ...VertexOption) *VertexClient {
	c := &VertexClient{
		newModel:    factory,
		model:       model,
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

// Model returns the configured Gemini model.
func (c *VertexClient) Model() string {
	return c.model
}

// Translate translates text into target.
func (c *VertexClient) Translate(ctx context.Context, text string, target lang.Language) (string, error) {
	return c.generateWithRetry(ctx, c.newModel(translatePrompt(target), c.temperature), text)
}

// Summarize asks for a 3-4 sentence summary of text written in target.
func (c *VertexClient) Summarize(ctx context.Context, text string, target lang.Language) (string, error) {
	return c.generateWithRetry(ctx, c.newModel("", c.temperature), summaryPrompt(text, target))
}

// Close releases the underlying client.
func (c *VertexClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *VertexClient) generateWithRetry(ctx context.Context, m contentGenerator, input string) (string, error) {
	cfg := apierr.RetryConfig{
		MaxRetries: c.maxRetries,
		BaseDelay:  c.baseDelay,
		MaxDelay:   c.maxDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			c.logger.Warn("retrying generation", "model", c.model, "attempt", attempt, "delay", delay, "error", err)
		},
	}

	return apierr.RetryWithBackoff(ctx, cfg, func() (string, error) {
		resp, err := m.GenerateContent(ctx, genai.Text(input))
		if err != nil {
			return "", apierr.ClassifyGRPC(err)
		}
		text := responseText(resp)
		if text == "" {
			return "", fmt.Errorf("no text in candidates: %w", apierr.ErrEmptyResponse)
		}
		return text, nil
	}, apierr.IsRetryable)
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
