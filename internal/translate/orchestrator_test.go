package translate_test

// Notes:
// - Orchestrator tests use an in-memory Translator (upper-casing) so no
//   network is involved.
// - Parallel tests add random per-chunk delays to shuffle completion order;
//   the output must still follow chunk index order.
// - Mocks record calls under a mutex; tests assert on call logs rather than
//   timing.

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-translate/internal/cache"
	"github.com/alnah/go-translate/internal/chunk"
	"github.com/alnah/go-translate/internal/lang"
	"github.com/alnah/go-translate/internal/translate"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// upperTranslator upper-cases text, optionally failing on chosen inputs.
type upperTranslator struct {
	mu       sync.Mutex
	calls    []string
	failOn   map[string]error
	maxDelay time.Duration
	model    string
}

func (u *upperTranslator) Translate(ctx context.Context, text string, _ lang.Language) (string, error) {
	u.mu.Lock()
	u.calls = append(u.calls, text)
	err := u.failOn[text]
	u.mu.Unlock()

	if u.maxDelay > 0 {
		select {
		case <-time.After(rand.N(u.maxDelay)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return strings.ToUpper(text), nil
}

func (u *upperTranslator) Model() string { return u.model }

func (u *upperTranslator) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.calls)
}

func (u *upperTranslator) clearFailures() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failOn = nil
}

// spyStore counts every Store call.
type spyStore struct {
	mu   sync.Mutex
	gets int
	puts int
	data map[string]string
}

func newSpyStore() *spyStore { return &spyStore{data: map[string]string{}} }

func (s *spyStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *spyStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	s.data[key] = value
	return nil
}

func (s *spyStore) Close() error { return nil }

func (s *spyStore) touched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets + s.puts
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func chunksOf(texts ...string) []chunk.Chunk {
	out := make([]chunk.Chunk, len(texts))
	for i, t := range texts {
		out[i] = chunk.Chunk{Index: i, Text: t}
	}
	return out
}

var spanish = lang.MustParse("es")

// ---------------------------------------------------------------------------
// TestOrchestrator_Run
// ---------------------------------------------------------------------------

func TestOrchestrator_Run(t *testing.T) {
	t.Parallel()

	t.Run("joins chunks in order", func(t *testing.T) {
		t.Parallel()
		tr := &upperTranslator{}
		job := translate.NewJob("doc.txt", spanish, chunksOf("a", "b", "c"))

		got, err := translate.NewOrchestrator(tr).Run(context.Background(), job)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got != "A\nB\nC" {
			t.Errorf("Run() = %q, want %q", got, "A\nB\nC")
		}
		if job.Status != translate.StatusComplete {
			t.Errorf("Status = %q, want complete", job.Status)
		}
		if tr.calls[0] != "a" || tr.calls[1] != "b" || tr.calls[2] != "c" {
			t.Errorf("sequential calls out of order: %q", tr.calls)
		}
	})

	t.Run("parallel keeps index order under shuffled completion", func(t *testing.T) {
		t.Parallel()
		texts := make([]string, 30)
		want := make([]string, 30)
		for i := range texts {
			texts[i] = strings.Repeat(string(rune('a'+i%26)), i+1)
			want[i] = strings.ToUpper(texts[i])
		}
		tr := &upperTranslator{maxDelay: 5 * time.Millisecond}
		job := translate.NewJob("doc.txt", spanish, chunksOf(texts...))

		got, err := translate.NewOrchestrator(tr, translate.WithParallel(8)).Run(context.Background(), job)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got != strings.Join(want, "\n") {
			t.Errorf("Run() out of order:\n got %q\nwant %q", got, strings.Join(want, "\n"))
		}
	})

	t.Run("no chunks", func(t *testing.T) {
		t.Parallel()
		job := translate.NewJob("empty.txt", spanish, nil)
		got, err := translate.NewOrchestrator(&upperTranslator{}).Run(context.Background(), job)
		if err != nil || got != "" {
			t.Errorf("Run() = %q, %v; want empty, nil", got, err)
		}
	})

	t.Run("job gets a unique id", func(t *testing.T) {
		t.Parallel()
		a := translate.NewJob("a", spanish, nil)
		b := translate.NewJob("a", spanish, nil)
		if a.ID == b.ID {
			t.Error("two jobs share an ID")
		}
		if a.Status != translate.StatusPending {
			t.Errorf("new job Status = %q, want pending", a.Status)
		}
	})
}

// ---------------------------------------------------------------------------
// TestOrchestrator_Failure - partial results and idempotent retry
// ---------------------------------------------------------------------------

func TestOrchestrator_Failure(t *testing.T) {
	t.Parallel()

	for _, parallel := range []int{1, 4} {
		t.Run(map[int]string{1: "sequential", 4: "parallel"}[parallel], func(t *testing.T) {
			t.Parallel()

			cause := errors.New("503 service unavailable")
			tr := &upperTranslator{failOn: map[string]error{"b": cause}}
			job := translate.NewJob("doc.txt", spanish, chunksOf("a", "b", "c"))
			o := translate.NewOrchestrator(tr, translate.WithParallel(parallel))

			_, err := o.Run(context.Background(), job)

			var tErr *translate.TranslationError
			if !errors.As(err, &tErr) {
				t.Fatalf("Run() error = %T %v, want *TranslationError", err, err)
			}
			if tErr.ChunkIndex != 1 {
				t.Errorf("ChunkIndex = %d, want 1", tErr.ChunkIndex)
			}
			if !errors.Is(err, cause) {
				t.Error("TranslationError does not unwrap to the cause")
			}
			if job.Status != translate.StatusFailed {
				t.Errorf("Status = %q, want failed", job.Status)
			}
			if parallel == 1 && job.Translated[0] != "A" {
				t.Errorf("chunk 0 = %q, want A (kept after failure)", job.Translated[0])
			}

			// Retrying translates only missing chunks.
			tr.clearFailures()
			before := tr.callCount()
			got, err := o.Run(context.Background(), job)
			if err != nil {
				t.Fatalf("second Run() error = %v", err)
			}
			if got != "A\nB\nC" {
				t.Errorf("second Run() = %q, want A\\nB\\nC", got)
			}
			if retried := tr.callCount() - before; retried > 2 {
				t.Errorf("retry made %d calls, want <= 2 (only missing chunks)", retried)
			}
		})
	}
}

func TestOrchestrator_RetryChunk(t *testing.T) {
	t.Parallel()

	cause := errors.New("timeout")
	tr := &upperTranslator{failOn: map[string]error{"b": cause}}
	job := translate.NewJob("doc.txt", spanish, chunksOf("a", "b"))
	o := translate.NewOrchestrator(tr)

	if _, err := o.Run(context.Background(), job); err == nil {
		t.Fatal("Run() error = nil, want failure on chunk 1")
	}

	tr.clearFailures()
	if err := o.RetryChunk(context.Background(), job, 1); err != nil {
		t.Fatalf("RetryChunk() error = %v", err)
	}
	if job.Status != translate.StatusComplete {
		t.Errorf("Status = %q, want complete", job.Status)
	}
	if job.Text() != "A\nB" {
		t.Errorf("Text() = %q, want A\\nB", job.Text())
	}

	// Retrying a filled chunk is a no-op.
	before := tr.callCount()
	if err := o.RetryChunk(context.Background(), job, 0); err != nil {
		t.Fatalf("RetryChunk(filled) error = %v", err)
	}
	if tr.callCount() != before {
		t.Error("RetryChunk re-translated a filled chunk")
	}

	var tErr *translate.TranslationError
	if err := o.RetryChunk(context.Background(), job, 5); !errors.As(err, &tErr) || tErr.ChunkIndex != 5 {
		t.Errorf("RetryChunk(5) error = %v, want TranslationError for chunk 5", err)
	}
}

// ---------------------------------------------------------------------------
// TestOrchestrator_Cancel
// ---------------------------------------------------------------------------

func TestOrchestrator_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("sequential leaves an ordered prefix", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var n int
		tr := translate.TranslateFunc(func(_ context.Context, text string, _ lang.Language) (string, error) {
			n++
			if n == 2 {
				cancel()
			}
			return strings.ToUpper(text), nil
		})
		job := translate.NewJob("doc.txt", spanish, chunksOf("a", "b", "c", "d"))

		_, err := translate.NewOrchestrator(tr).Run(ctx, job)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
		var tErr *translate.TranslationError
		if !errors.As(err, &tErr) || tErr.ChunkIndex != 2 {
			t.Errorf("error = %v, want TranslationError at chunk 2", err)
		}
		prefix := job.Prefix()
		if len(prefix) != 2 || prefix[0] != "A" || prefix[1] != "B" {
			t.Errorf("Prefix() = %q, want [A B]", prefix)
		}
		if n != 2 {
			t.Errorf("translator called %d times after cancel, want 2", n)
		}
	})

	t.Run("already cancelled starts nothing", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tr := &upperTranslator{}
		job := translate.NewJob("doc.txt", spanish, chunksOf("a", "b", "c"))
		_, err := translate.NewOrchestrator(tr, translate.WithParallel(3)).Run(ctx, job)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() error = %v, want context.Canceled", err)
		}
		if tr.callCount() != 0 {
			t.Errorf("translator called %d times, want 0", tr.callCount())
		}
	})
}

// ---------------------------------------------------------------------------
// TestOrchestrator_Progress
// ---------------------------------------------------------------------------

func TestOrchestrator_Progress(t *testing.T) {
	t.Parallel()

	for _, parallel := range []int{1, 5} {
		var mu sync.Mutex
		var events []translate.ProgressEvent
		record := func(e translate.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		}

		job := translate.NewJob("doc.txt", spanish, chunksOf("a", "b", "c", "d", "e"))
		o := translate.NewOrchestrator(&upperTranslator{maxDelay: time.Millisecond},
			translate.WithParallel(parallel), translate.WithProgress(record))
		if _, err := o.Run(context.Background(), job); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if len(events) != 5 {
			t.Fatalf("parallel=%d: got %d events, want 5", parallel, len(events))
		}
		for i, e := range events {
			if e.Done != i+1 || e.Total != 5 || e.JobID != job.ID {
				t.Errorf("parallel=%d: event %d = %+v, want Done=%d Total=5", parallel, i, e, i+1)
			}
		}
	}
}

func TestOrchestrator_ProgressOnRetry(t *testing.T) {
	t.Parallel()

	var events []translate.ProgressEvent
	tr := &upperTranslator{failOn: map[string]error{"b": errors.New("timeout")}}
	job := translate.NewJob("doc.txt", spanish, chunksOf("a", "b", "c"))
	o := translate.NewOrchestrator(tr, translate.WithProgress(func(e translate.ProgressEvent) {
		events = append(events, e)
	}))

	if _, err := o.Run(context.Background(), job); err == nil {
		t.Fatal("Run() error = nil, want failure on chunk 1")
	}
	if len(events) != 1 || events[0].Done != 1 {
		t.Fatalf("events after failed run = %+v, want one with Done=1", events)
	}

	tr.clearFailures()
	if err := o.RetryChunk(context.Background(), job, 1); err != nil {
		t.Fatalf("RetryChunk() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 after retry", len(events))
	}
	if got := events[1]; got.Done != 2 || got.Total != 3 || got.JobID != job.ID {
		t.Errorf("retry event = %+v, want Done=2 Total=3", got)
	}
}

// ---------------------------------------------------------------------------
// TestOrchestrator_Cache
// ---------------------------------------------------------------------------

func TestOrchestrator_Cache(t *testing.T) {
	t.Parallel()

	t.Run("disabled policy never touches a store", func(t *testing.T) {
		t.Parallel()
		store := newSpyStore()
		job := translate.NewJob("doc.txt", spanish, chunksOf("a", "b"))
		// The later option wins, as when privacy mode overrides a configured cache.
		o := translate.NewOrchestrator(&upperTranslator{},
			translate.WithCache(cache.Enabled(store)),
			translate.WithCache(cache.Disabled()))
		if _, err := o.Run(context.Background(), job); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if store.touched() != 0 {
			t.Errorf("store touched %d times, want 0", store.touched())
		}
	})

	t.Run("enabled policy serves repeats from the store", func(t *testing.T) {
		t.Parallel()
		store := newSpyStore()
		tr := &upperTranslator{model: "gpt-3.5-turbo"}
		o := translate.NewOrchestrator(tr, translate.WithCache(cache.Enabled(store)))

		first := translate.NewJob("doc.txt", spanish, chunksOf("a", "b"))
		if _, err := o.Run(context.Background(), first); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		second := translate.NewJob("copy.txt", spanish, chunksOf("a", "b"))
		got, err := o.Run(context.Background(), second)
		if err != nil {
			t.Fatalf("second Run() error = %v", err)
		}

		if got != "A\nB" {
			t.Errorf("cached Run() = %q, want A\\nB", got)
		}
		if tr.callCount() != 2 {
			t.Errorf("translator called %d times, want 2 (second run cached)", tr.callCount())
		}
		if store.puts != 2 {
			t.Errorf("store puts = %d, want 2", store.puts)
		}
	})

	t.Run("target language is part of the key", func(t *testing.T) {
		t.Parallel()
		store := newSpyStore()
		tr := &upperTranslator{}
		o := translate.NewOrchestrator(tr, translate.WithCache(cache.Enabled(store)))

		_, _ = o.Run(context.Background(), translate.NewJob("d", spanish, chunksOf("a")))
		_, _ = o.Run(context.Background(), translate.NewJob("d", lang.MustParse("fr"), chunksOf("a")))
		if tr.callCount() != 2 {
			t.Errorf("translator called %d times, want 2", tr.callCount())
		}
	})
}

func TestWithParallel_Clamp(t *testing.T) {
	t.Parallel()

	// Out-of-range values must still translate correctly.
	for _, n := range []int{-3, 0, 1, 10, 50} {
		job := translate.NewJob("doc.txt", spanish, chunksOf("x", "y"))
		got, err := translate.NewOrchestrator(&upperTranslator{}, translate.WithParallel(n)).Run(context.Background(), job)
		if err != nil || got != "X\nY" {
			t.Errorf("WithParallel(%d): Run() = %q, %v", n, got, err)
		}
	}
}
