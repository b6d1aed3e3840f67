package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alnah/go-translate/internal/cache"
	"github.com/alnah/go-translate/internal/config"
	"github.com/alnah/go-translate/internal/pipeline"
	"github.com/alnah/go-translate/internal/tokenizer"
	"github.com/alnah/go-translate/internal/translate"
)

// sessionOptions are the command-line overrides shared by translate,
// estimate and serve.
type sessionOptions struct {
	provider string
	model    string
	parallel int
	private  bool
	noClient bool // estimate needs only the tokenizer
}

// session holds everything a command needs to run the pipeline.
type session struct {
	cfg      config.Config
	provider Provider
	counter  tokenizer.Counter
	client   Client
	cache    cache.Policy
	closers  []io.Closer
}

// Close releases the cache store and provider connections.
func (s *session) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (s *session) limits() pipeline.Limits {
	return pipeline.Limits{
		MaxChars:     s.cfg.MaxChars,
		ChunkTokens:  s.cfg.ChunkTokens,
		PricePer1K:   s.cfg.PricePer1K,
		SummaryChars: s.cfg.SummaryChars,
		Parallel:     s.cfg.Parallel,
	}
}

// newSession loads configuration, applies flag overrides and builds the
// tokenizer, provider client and cache.
// Validation order: config -> provider -> credentials -> tokenizer -> client -> cache
func newSession(ctx context.Context, env *Env, opts sessionOptions) (*session, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		// A broken value in the file is a setup error; the defaults that
		// loaded alongside it are still returned.
		if errors.Is(err, config.ErrInvalidValue) {
			return nil, err
		}
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	name := cfg.Provider
	if opts.provider != "" {
		name = opts.provider
	}
	var provider Provider
	if name != "" {
		if provider, err = ParseProvider(name); err != nil {
			return nil, err
		}
	}
	provider = provider.OrDefault()

	cfg.Model = resolveModel(provider, cfg.Model, opts.model)
	if opts.parallel > 0 {
		cfg.Parallel = opts.parallel
	}
	cfg.Parallel = clampParallel(cfg.Parallel)

	s := &session{cfg: cfg, provider: provider, cache: cache.Disabled()}

	var credential string
	if !opts.noClient {
		if credential, err = resolveCredential(env, provider, cfg); err != nil {
			return nil, err
		}
	}

	if s.counter, err = env.TokenizerFactory.NewCounter(cfg.Model); err != nil {
		return nil, err
	}

	if opts.noClient {
		return s, nil
	}

	s.client, err = env.ClientFactory.NewClient(ctx, ClientSettings{
		Provider:   provider,
		Config:     cfg,
		Credential: credential,
		Logger:     env.logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", provider, err)
	}
	if c, ok := s.client.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}

	if err := s.openCache(env, opts.private); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// openCache enables the chunk cache unless private is set: the SQLite store
// when cache-path is configured, a process-lifetime memory store otherwise.
// A store that fails to open is reported and the run continues uncached.
func (s *session) openCache(env *Env, private bool) error {
	if private {
		return nil
	}

	if s.cfg.CachePath == "" {
		mem, err := cache.NewMemory(0)
		if err != nil {
			return err
		}
		s.cache = cache.Enabled(mem)
		return nil
	}

	store, err := env.CacheOpener.Open(config.ExpandPath(s.cfg.CachePath))
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: cache disabled: %v\n", err)
		return nil
	}
	s.cache = cache.Enabled(store)
	s.closers = append(s.closers, store)
	return nil
}

// resolveModel picks the model: the flag, then the configured model. The
// built-in OpenAI default is not passed to other providers, which then use
// their own default.
func resolveModel(p Provider, configured, flag string) string {
	if flag != "" {
		return flag
	}
	if !p.IsOpenAI() && configured == config.DefaultModel {
		return ""
	}
	return configured
}

// resolveCredential reads the API key (or credentials file) for p.
func resolveCredential(env *Env, p Provider, cfg config.Config) (string, error) {
	if p.IsVertex() {
		if cfg.VertexProject == "" {
			return "", fmt.Errorf("%w (set it with: translate config set %s <project-id>)", ErrVertexProjectMissing, config.KeyVertexProject)
		}
		return env.Getenv(p.CredentialEnv()), nil
	}

	key := env.Getenv(p.CredentialEnv())
	if key != "" {
		return key, nil
	}
	missing := ErrAPIKeyMissing
	if p.IsDeepSeek() {
		missing = ErrDeepSeekKeyMissing
	}
	return "", fmt.Errorf("%w (set it with: export %s=sk-...)", missing, p.CredentialEnv())
}

// clampParallel constrains parallel request count to [1, translate.MaxParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > translate.MaxParallel {
		return translate.MaxParallel
	}
	return n
}
