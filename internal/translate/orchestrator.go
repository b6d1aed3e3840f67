package translate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-translate/internal/cache"
)

// MaxParallel bounds concurrent chunk requests per document.
const MaxParallel = 10

// Orchestrator drives a Translator over the chunks of a Job.
type Orchestrator struct {
	translator Translator
	parallel   int
	onProgress func(ProgressEvent)
	cache      cache.Policy
	logger     *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithParallel sets how many chunks are translated at once, clamped to
// [1, MaxParallel]. With 1, chunks are translated strictly in index order.
func WithParallel(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.parallel = min(max(n, 1), MaxParallel)
	}
}

// WithProgress sets a callback invoked after each chunk completes.
// Calls are serialized.
func WithProgress(fn func(ProgressEvent)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.onProgress = fn
	}
}

// WithCache sets the cache policy. The default is cache.Disabled().
func WithCache(p cache.Policy) OrchestratorOption {
	return func(o *Orchestrator) {
		o.cache = p
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator creates an Orchestrator for t.
func NewOrchestrator(t Translator, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		translator: t,
		parallel:   1,
		cache:      cache.Disabled(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run translates every chunk of job that has no translation yet and returns
// the chunks' translations joined in index order.
//
// On failure the job is marked failed, successful chunks stay filled, and
// the error is a *TranslationError naming the chunk. Calling Run again only
// translates the chunks still missing. Once ctx is done no further chunk is
// started.
func (o *Orchestrator) Run(ctx context.Context, job *Job) (string, error) {
	job.Status = StatusInProgress

	tracker := &progress{fn: o.onProgress, id: job.ID, done: job.Done(), total: len(job.Chunks)}
	pending := job.pending()

	var err error
	if o.parallel <= 1 || len(pending) <= 1 {
		err = o.runSequential(ctx, job, pending, tracker)
	} else {
		err = o.runParallel(ctx, job, pending, tracker)
	}
	if err != nil {
		job.Status = StatusFailed
		o.logger.Warn("translation failed", "job", job.ID, "source", job.Source, "done", job.Done(), "total", len(job.Chunks), "error", err)
		return "", err
	}

	job.Status = StatusComplete
	return job.Text(), nil
}

// RetryChunk translates chunk index of job if it is still missing.
// A filled chunk is left untouched.
func (o *Orchestrator) RetryChunk(ctx context.Context, job *Job, index int) error {
	if index < 0 || index >= len(job.Chunks) {
		return &TranslationError{ChunkIndex: index, Err: errIndexOutOfRange}
	}
	if job.filled[index] {
		return nil
	}
	if err := o.translateChunk(ctx, job, index); err != nil {
		job.Status = StatusFailed
		return err
	}
	if o.onProgress != nil {
		o.onProgress(ProgressEvent{JobID: job.ID, Done: job.Done(), Total: len(job.Chunks)})
	}
	if job.Complete() {
		job.Status = StatusComplete
	}
	return nil
}

func (o *Orchestrator) runSequential(ctx context.Context, job *Job, pending []int, p *progress) error {
	for _, i := range pending {
		if err := ctx.Err(); err != nil {
			return &TranslationError{ChunkIndex: i, Err: err}
		}
		if err := o.translateChunk(ctx, job, i); err != nil {
			return err
		}
		p.step()
	}
	return nil
}

func (o *Orchestrator) runParallel(ctx context.Context, job *Job, pending []int, p *progress) error {
	// Semaphore channel for concurrency control.
	sem := make(chan struct{}, o.parallel)

	g, ctx := errgroup.WithContext(ctx)

	for _, i := range pending {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return &TranslationError{ChunkIndex: i, Err: ctx.Err()}
			}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				return &TranslationError{ChunkIndex: i, Err: err}
			}
			if err := o.translateChunk(ctx, job, i); err != nil {
				return err
			}
			p.step()
			return nil
		})
	}

	return g.Wait()
}

// translateChunk fills slot i, consulting the cache when the policy allows.
// Each goroutine writes only its own slot.
func (o *Orchestrator) translateChunk(ctx context.Context, job *Job, i int) error {
	text := job.Chunks[i].Text

	store, cached := o.cache.Store()
	var key string
	if cached {
		key = cache.Key(o.modelName(), job.Target.String(), text)
		if v, ok, err := store.Get(ctx, key); err != nil {
			o.logger.Warn("cache read failed", "job", job.ID, "chunk", i, "error", err)
		} else if ok {
			o.logger.Debug("cache hit", "job", job.ID, "chunk", i)
			job.fill(i, v)
			return nil
		}
	}

	out, err := o.translator.Translate(ctx, text, job.Target)
	if err != nil {
		return &TranslationError{ChunkIndex: i, Err: err}
	}
	job.fill(i, out)

	if cached {
		if err := store.Put(ctx, key, out); err != nil {
			o.logger.Warn("cache write failed", "job", job.ID, "chunk", i, "error", err)
		}
	}
	return nil
}

func (o *Orchestrator) modelName() string {
	if m, ok := o.translator.(modeler); ok {
		return m.Model()
	}
	return ""
}

// progress serializes progress callbacks so Done is monotone.
type progress struct {
	mu    sync.Mutex
	fn    func(ProgressEvent)
	id    uuid.UUID
	done  int
	total int
}

func (p *progress) step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.fn != nil {
		p.fn(ProgressEvent{JobID: p.id, Done: p.done, Total: p.total})
	}
}
