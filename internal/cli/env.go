package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/term"

	"github.com/alnah/go-translate/internal/cache"
	"github.com/alnah/go-translate/internal/config"
	"github.com/alnah/go-translate/internal/summary"
	"github.com/alnah/go-translate/internal/tokenizer"
	"github.com/alnah/go-translate/internal/translate"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout     io.Writer
	Stderr     io.Writer
	Getenv     func(string) string
	Now        func() time.Time
	IsTerminal func(io.Writer) bool
	Logger     *slog.Logger

	// Factories for domain objects
	ConfigLoader     ConfigLoader
	ClientFactory    ClientFactory
	TokenizerFactory TokenizerFactory
	CacheOpener      CacheOpener
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// Client translates and summarizes through one provider.
type Client interface {
	translate.Translator
	summary.Summarizer
}

// ClientSettings selects and configures a provider client.
type ClientSettings struct {
	Provider Provider
	Config   config.Config
	// Credential is the API key, or the credentials file for Vertex AI
	// (empty means application default credentials).
	Credential string
	Logger     *slog.Logger
}

// ClientFactory creates provider clients.
type ClientFactory interface {
	NewClient(ctx context.Context, s ClientSettings) (Client, error)
}

// TokenizerFactory creates token counters.
type TokenizerFactory interface {
	NewCounter(model string) (tokenizer.Counter, error)
}

// CacheOpener opens the persistent chunk cache.
type CacheOpener interface {
	Open(path string) (cache.Store, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) EnvOption {
	return func(e *Env) {
		e.Logger = l
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithClientFactory sets the provider client factory.
func WithClientFactory(f ClientFactory) EnvOption {
	return func(e *Env) {
		e.ClientFactory = f
	}
}

// WithTokenizerFactory sets the tokenizer factory.
func WithTokenizerFactory(f TokenizerFactory) EnvOption {
	return func(e *Env) {
		e.TokenizerFactory = f
	}
}

// WithCacheOpener sets the cache opener.
func WithCacheOpener(o CacheOpener) EnvOption {
	return func(e *Env) {
		e.CacheOpener = o
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		Getenv:           os.Getenv,
		Now:              time.Now,
		IsTerminal:       isTerminal,
		Logger:           slog.New(slog.DiscardHandler),
		ConfigLoader:     &defaultConfigLoader{},
		ClientFactory:    &defaultClientFactory{},
		TokenizerFactory: &defaultTokenizerFactory{},
		CacheOpener:      &defaultCacheOpener{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// logger returns env.Logger, or a discarding logger if unset.
func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultClientFactory implements ClientFactory with the translate package.
type defaultClientFactory struct{}

func (defaultClientFactory) NewClient(ctx context.Context, s ClientSettings) (Client, error) {
	cfg, credential := s.Config, s.Credential
	temperature := float32(cfg.Temperature)

	switch {
	case s.Provider.IsDeepSeek():
		return translate.NewDeepSeekClient(credential, cfg.DeepSeekBaseURL,
			translate.WithModel(cfg.Model),
			translate.WithTemperature(temperature),
			translate.WithClientLogger(s.Logger),
		), nil
	case s.Provider.IsVertex():
		return translate.NewVertexClient(ctx, translate.VertexConfig{
			ProjectID:       cfg.VertexProject,
			Region:          cfg.VertexRegion,
			Model:           cfg.Model,
			CredentialsFile: credential,
		},
			translate.WithVertexTemperature(temperature),
			translate.WithVertexLogger(s.Logger),
		)
	default:
		return translate.NewOpenAIClient(openai.NewClient(credential),
			translate.WithModel(cfg.Model),
			translate.WithTemperature(temperature),
			translate.WithClientLogger(s.Logger),
		), nil
	}
}

// defaultTokenizerFactory implements TokenizerFactory with tiktoken.
type defaultTokenizerFactory struct{}

func (defaultTokenizerFactory) NewCounter(model string) (tokenizer.Counter, error) {
	return tokenizer.New(model)
}

// defaultCacheOpener implements CacheOpener with the SQLite store.
type defaultCacheOpener struct{}

func (defaultCacheOpener) Open(path string) (cache.Store, error) {
	return cache.OpenSQLite(path)
}

// Compile-time interface verification.
var (
	_ ConfigLoader     = (*defaultConfigLoader)(nil)
	_ ClientFactory    = (*defaultClientFactory)(nil)
	_ TokenizerFactory = (*defaultTokenizerFactory)(nil)
	_ CacheOpener      = (*defaultCacheOpener)(nil)
	_ Client           = (*translate.OpenAIClient)(nil)
	_ Client           = (*translate.VertexClient)(nil)
)
