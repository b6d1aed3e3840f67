package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-translate/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader *mockConfigLoader
	clients      *mockClientFactory
	tokenizers   *mockTokenizerFactory
	caches       *mockCacheOpener
}

func newTestMocks() *testMocks {
	return &testMocks{
		configLoader: &mockConfigLoader{},
		clients:      &mockClientFactory{client: &mockClient{}},
		tokenizers:   &mockTokenizerFactory{},
		caches:       &mockCacheOpener{},
	}
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

// testEnvOptions configures a test environment.
type testEnvOptions struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	now    func() time.Time
	mocks  *testMocks
}

// testEnvOption configures testEnv.
type testEnvOption func(*testEnvOptions)

func withTestStdout(w io.Writer) testEnvOption {
	return func(o *testEnvOptions) { o.stdout = w }
}

func withTestStderr(w io.Writer) testEnvOption {
	return func(o *testEnvOptions) { o.stderr = w }
}

func withTestGetenv(fn func(string) string) testEnvOption {
	return func(o *testEnvOptions) { o.getenv = fn }
}

func withTestMocks(m *testMocks) testEnvOption {
	return func(o *testEnvOptions) { o.mocks = m }
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(opts ...testEnvOption) (*Env, *testMocks) {
	options := &testEnvOptions{
		stdout: &syncBuffer{},
		stderr: &syncBuffer{},
		getenv: defaultTestEnv,
		now: func() time.Time {
			return time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)
		},
		mocks: newTestMocks(),
	}

	for _, opt := range opts {
		opt(options)
	}

	env := &Env{
		Stdout:           options.stdout,
		Stderr:           options.stderr,
		Getenv:           options.getenv,
		Now:              options.now,
		IsTerminal:       func(io.Writer) bool { return false },
		ConfigLoader:     options.mocks.configLoader,
		ClientFactory:    options.mocks.clients,
		TokenizerFactory: options.mocks.tokenizers,
		CacheOpener:      options.mocks.caches,
	}

	return env, options.mocks
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// defaultTestEnv returns API keys for both OpenAI and DeepSeek.
func defaultTestEnv(key string) string {
	switch key {
	case EnvOpenAIAPIKey:
		return "test-openai-key"
	case EnvDeepSeekAPIKey:
		return "test-deepseek-key"
	default:
		return ""
	}
}

// writeTestFile creates a file in dir and returns its path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// configWith returns a ConfigLoader yielding config.Default() modified by fn.
func configWith(fn func(*config.Config)) *mockConfigLoader {
	return &mockConfigLoader{
		LoadFunc: func() (config.Config, error) {
			cfg := config.Default()
			if fn != nil {
				fn(&cfg)
			}
			return cfg, nil
		},
	}
}

// contains is strings.Contains, kept short for assertions.
func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
