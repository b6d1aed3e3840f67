// Package pipeline runs a batch of uploaded documents through extraction,
// cost estimation, chunked translation, summarization and rendering.
//
// Documents are processed one after another and failures are isolated: a
// document that cannot be read, is too large, or fails to translate gets an
// error in its Result while the rest of the batch carries on.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alnah/go-translate/internal/cache"
	"github.com/alnah/go-translate/internal/chunk"
	"github.com/alnah/go-translate/internal/cost"
	"github.com/alnah/go-translate/internal/detect"
	"github.com/alnah/go-translate/internal/document"
	"github.com/alnah/go-translate/internal/lang"
	"github.com/alnah/go-translate/internal/output"
	"github.com/alnah/go-translate/internal/summary"
	"github.com/alnah/go-translate/internal/tokenizer"
	"github.com/alnah/go-translate/internal/translate"
)

// ErrNoTarget is returned by Process when no target language is given.
var ErrNoTarget = errors.New("target language is required")

// Limits bounds a run. Zero fields take the defaults below.
type Limits struct {
	MaxChars     int             // per document, in characters
	ChunkTokens  int             // per chunk
	PricePer1K   decimal.Decimal // USD per 1000 tokens
	SummaryChars int             // characters sent for summarization
	Parallel     int             // concurrent chunk requests per document
}

// Default limits.
const (
	DefaultMaxChars    = 30000
	DefaultChunkTokens = 3500
)

func (l Limits) withDefaults() Limits {
	if l.MaxChars <= 0 {
		l.MaxChars = DefaultMaxChars
	}
	if l.ChunkTokens <= 0 {
		l.ChunkTokens = DefaultChunkTokens
	}
	if l.PricePer1K.IsZero() {
		l.PricePer1K = cost.DefaultPricePer1K
	}
	if l.SummaryChars <= 0 {
		l.SummaryChars = summary.DefaultMaxInputChars
	}
	if l.Parallel <= 0 {
		l.Parallel = 1
	}
	return l
}

// Input is one uploaded file.
type Input struct {
	Name string
	Data []byte
}

// Result is the outcome for one Input. Err is nil on success; Warnings
// hold non-fatal problems such as a failed summary.
type Result struct {
	Name       string
	JobID      uuid.UUID
	Type       document.Type
	Chars      int
	Estimate   cost.Estimate
	SourceLang string
	Chunks     int
	Translated string
	Summary    string
	OutputName string
	Output     []byte
	Err        error
	Warnings   []error
}

// OK reports whether the document produced an output.
func (r Result) OK() bool {
	return r.Err == nil && r.Output != nil
}

// SizeLimitError reports a document longer than the configured limit.
type SizeLimitError struct {
	Filename string
	Chars    int
	Limit    int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("%s exceeds the %d character limit (%d characters)", e.Filename, e.Limit, e.Chars)
}

// Pipeline processes document batches. It is safe to reuse across batches
// but not to run two batches concurrently with the same progress hooks.
type Pipeline struct {
	limits     Limits
	counter    tokenizer.Counter
	translator translate.Translator
	summarizer summary.Summarizer
	cache      cache.Policy
	logger     *slog.Logger
	onEstimate func(Result)
	onProgress func(name string, e translate.ProgressEvent)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSummarizer enables summaries. Without it no summary is requested.
func WithSummarizer(s summary.Summarizer) Option {
	return func(p *Pipeline) {
		p.summarizer = s
	}
}

// WithCache sets the chunk cache policy. The default is cache.Disabled().
func WithCache(c cache.Policy) Option {
	return func(p *Pipeline) {
		p.cache = c
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithEstimateHook sets a callback invoked once a document's cost is known,
// before any translation request is made.
func WithEstimateHook(fn func(Result)) Option {
	return func(p *Pipeline) {
		p.onEstimate = fn
	}
}

// WithProgress sets a per-chunk progress callback.
func WithProgress(fn func(name string, e translate.ProgressEvent)) Option {
	return func(p *Pipeline) {
		p.onProgress = fn
	}
}

// New creates a Pipeline. counter must be the tokenizer used for both cost
// and chunk budgets; translator may be nil when only Estimate is used.
func New(limits Limits, counter tokenizer.Counter, translator translate.Translator, opts ...Option) *Pipeline {
	p := &Pipeline{
		limits:     limits.withDefaults(),
		counter:    counter,
		translator: translator,
		cache:      cache.Disabled(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Estimate extracts each input and prices it without translating.
func (p *Pipeline) Estimate(ctx context.Context, inputs []Input) []Result {
	results := make([]Result, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Name: in.Name, Err: err}
			continue
		}
		res, _ := p.prepare(in)
		results[i] = res
	}
	return results
}

// Process translates every input into target. The returned slice has one
// Result per input, in input order. Once ctx is done, remaining inputs are
// not started and carry ctx's error.
func (p *Pipeline) Process(ctx context.Context, inputs []Input, target lang.Language) ([]Result, error) {
	if target.IsZero() {
		return nil, ErrNoTarget
	}
	if p.translator == nil {
		return nil, errors.New("pipeline: no translator configured")
	}

	results := make([]Result, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Name: in.Name, Err: err}
			continue
		}
		results[i] = p.processOne(ctx, in, target)
	}
	return results, nil
}

// prepare extracts, checks the size limit and prices one input.
// The returned text is empty when res.Err is set.
func (p *Pipeline) prepare(in Input) (Result, string) {
	res := Result{Name: in.Name}

	doc, err := document.Load(in.Name, in.Data)
	if err != nil {
		res.Err = err
		p.logger.Info("extraction failed", "file", in.Name, "error", err)
		return res, ""
	}
	res.Type = doc.Type
	res.Chars = utf8.RuneCountInString(doc.RawText)

	if res.Chars > p.limits.MaxChars {
		res.Err = &SizeLimitError{Filename: in.Name, Chars: res.Chars, Limit: p.limits.MaxChars}
		p.logger.Info("document too large", "file", in.Name, "chars", res.Chars, "limit", p.limits.MaxChars)
		return res, ""
	}

	res.Estimate = cost.ForText(p.counter, doc.RawText, p.limits.PricePer1K)
	return res, doc.RawText
}

func (p *Pipeline) processOne(ctx context.Context, in Input, target lang.Language) Result {
	res, text := p.prepare(in)
	if res.Err != nil {
		return res
	}
	if p.onEstimate != nil {
		p.onEstimate(res)
	}

	res.SourceLang = p.detect(in.Name, text)

	chunks := chunk.Split(text, p.limits.ChunkTokens, p.counter)
	res.Chunks = len(chunks)

	job := translate.NewJob(in.Name, target, chunks)
	res.JobID = job.ID
	p.logger.Debug("translating", "file", in.Name, "job", job.ID, "chunks", len(chunks), "tokens", res.Estimate.Tokens)

	orch := translate.NewOrchestrator(p.translator,
		translate.WithParallel(p.limits.Parallel),
		translate.WithCache(p.cache),
		translate.WithLogger(p.logger),
		translate.WithProgress(func(e translate.ProgressEvent) {
			if p.onProgress != nil {
				p.onProgress(in.Name, e)
			}
		}),
	)
	translated, err := orch.Run(ctx, job)
	if err != nil {
		res.Err = err
		return res
	}
	res.Translated = translated

	if p.summarizer != nil {
		s, err := summary.Generate(ctx, translated, target, p.limits.SummaryChars, p.summarizer)
		if err != nil {
			res.Warnings = append(res.Warnings, err)
			p.logger.Warn("summary failed", "file", in.Name, "error", err)
		}
		res.Summary = s
	}

	data, name, err := output.Render(translated, in.Name)
	if err != nil {
		res.Err = err
		return res
	}
	res.Output, res.OutputName = data, name
	return res
}

// detect falls back to detect.Unknown; the failure is only logged.
func (p *Pipeline) detect(name, text string) string {
	code, err := detect.Detect(text)
	if err != nil {
		p.logger.Debug("language detection failed", "file", name, "error", err)
		return detect.Unknown
	}
	return code
}

// Archive bundles the outputs of successful results. It reports false when
// fewer than two documents succeeded, since a single file needs no bundle.
func Archive(results []Result) ([]byte, bool, error) {
	var files []output.File
	for _, r := range results {
		if r.OK() {
			files = append(files, output.File{Name: r.OutputName, Data: r.Output})
		}
	}
	if len(files) < 2 {
		return nil, false, nil
	}
	data, err := output.Bundle(files)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Total sums the estimates of all results. Documents rejected before
// pricing contribute nothing.
func Total(results []Result) cost.Estimate {
	var total cost.Estimate
	for _, r := range results {
		total = total.Add(r.Estimate)
	}
	return total
}
