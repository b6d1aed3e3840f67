package cli

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/alnah/go-translate/internal/cache"
	"github.com/alnah/go-translate/internal/config"
	"github.com/alnah/go-translate/internal/lang"
	"github.com/alnah/go-translate/internal/tokenizer"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Default(), nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock ClientFactory + Client
// ---------------------------------------------------------------------------

// mockClient upper-cases text by default. Text containing "FAIL" fails.
type mockClient struct {
	TranslateFunc func(ctx context.Context, text string, target lang.Language) (string, error)
	SummarizeFunc func(ctx context.Context, text string, target lang.Language) (string, error)

	mu             sync.Mutex
	translateCalls []string
	summarizeCalls int
	closed         bool
}

func (m *mockClient) Translate(ctx context.Context, text string, target lang.Language) (string, error) {
	m.mu.Lock()
	m.translateCalls = append(m.translateCalls, text)
	m.mu.Unlock()

	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, target)
	}
	if strings.Contains(text, "FAIL") {
		return "", errors.New("mock translation failure")
	}
	return strings.ToUpper(text), nil
}

func (m *mockClient) Summarize(ctx context.Context, text string, target lang.Language) (string, error) {
	m.mu.Lock()
	m.summarizeCalls++
	m.mu.Unlock()

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text, target)
	}
	return "summary in " + target.String(), nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) TranslateCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.translateCalls...)
}

func (m *mockClient) SummarizeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summarizeCalls
}

func (m *mockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type mockClientFactory struct {
	client *mockClient
	err    error

	mu       sync.Mutex
	settings []ClientSettings
}

func (m *mockClientFactory) NewClient(_ context.Context, s ClientSettings) (Client, error) {
	m.mu.Lock()
	m.settings = append(m.settings, s)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return m.client, nil
}

func (m *mockClientFactory) Settings() []ClientSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ClientSettings(nil), m.settings...)
}

// ---------------------------------------------------------------------------
// Mock TokenizerFactory
// ---------------------------------------------------------------------------

// mockTokenizerFactory returns the rune heuristic unless err is set.
type mockTokenizerFactory struct {
	err error

	mu     sync.Mutex
	models []string
}

func (m *mockTokenizerFactory) NewCounter(model string) (tokenizer.Counter, error) {
	m.mu.Lock()
	m.models = append(m.models, model)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return tokenizer.Heuristic{}, nil
}

func (m *mockTokenizerFactory) Models() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.models...)
}

// ---------------------------------------------------------------------------
// Mock CacheOpener
// ---------------------------------------------------------------------------

// mockCacheOpener opens an in-memory store unless err is set.
type mockCacheOpener struct {
	err error

	mu    sync.Mutex
	paths []string
}

func (m *mockCacheOpener) Open(path string) (cache.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)

	if m.err != nil {
		return nil, m.err
	}
	return cache.NewMemory(64)
}

func (m *mockCacheOpener) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// Compile-time interface verification.
var (
	_ ConfigLoader     = (*mockConfigLoader)(nil)
	_ ClientFactory    = (*mockClientFactory)(nil)
	_ Client           = (*mockClient)(nil)
	_ TokenizerFactory = (*mockTokenizerFactory)(nil)
	_ CacheOpener      = (*mockCacheOpener)(nil)
)
