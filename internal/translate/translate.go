// Package translate sends token-bounded chunks to a text-generation service
// and reassembles the translations in chunk order.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/alnah/go-translate/internal/chunk"
	"github.com/alnah/go-translate/internal/lang"
)

// Translator translates one piece of text into a target language.
// Implementations must be safe for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text string, target lang.Language) (string, error)
}

// TranslateFunc adapts a function to Translator.
type TranslateFunc func(ctx context.Context, text string, target lang.Language) (string, error)

// Translate implements Translator.
func (f TranslateFunc) Translate(ctx context.Context, text string, target lang.Language) (string, error) {
	return f(ctx, text, target)
}

// Compile-time interface compliance check.
var _ Translator = TranslateFunc(nil)

// modeler is implemented by translators that know which model they call.
// The model name is part of the cache key.
type modeler interface {
	Model() string
}

// Status is the lifecycle state of a Job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// ProgressEvent reports how many chunks of a job are translated.
// Done counts completed chunks and never decreases within a run.
type ProgressEvent struct {
	JobID uuid.UUID
	Done  int
	Total int
}

// TranslationError reports the chunk whose translation failed.
type TranslationError struct {
	ChunkIndex int
	Err        error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate chunk %d: %v", e.ChunkIndex, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// Job tracks the translation of one document.
// Translated has one slot per chunk; a slot is filled once its chunk has
// been translated, and filled slots are never translated again.
type Job struct {
	ID         uuid.UUID
	Source     string // document name
	Target     lang.Language
	Chunks     []chunk.Chunk
	Translated []string
	Status     Status

	filled []bool
}

// NewJob creates a pending job for chunks of the named source document.
func NewJob(source string, target lang.Language, chunks []chunk.Chunk) *Job {
	return &Job{
		ID:         uuid.New(),
		Source:     source,
		Target:     target,
		Chunks:     chunks,
		Translated: make([]string, len(chunks)),
		Status:     StatusPending,
		filled:     make([]bool, len(chunks)),
	}
}

// fill stores the translation of chunk i.
func (j *Job) fill(i int, text string) {
	j.Translated[i] = text
	j.filled[i] = true
}

// pending returns the indices of chunks not yet translated, in order.
func (j *Job) pending() []int {
	var idx []int
	for i, ok := range j.filled {
		if !ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// Done returns the number of translated chunks.
func (j *Job) Done() int {
	return len(j.Chunks) - len(j.pending())
}

// Complete reports whether every chunk is translated.
func (j *Job) Complete() bool {
	return len(j.pending()) == 0
}

// Prefix returns the translations of the contiguous run of completed chunks
// starting at index 0.
func (j *Job) Prefix() []string {
	n := 0
	for n < len(j.filled) && j.filled[n] {
		n++
	}
	return j.Translated[:n]
}

// Text joins the translated chunks in index order.
func (j *Job) Text() string {
	return strings.Join(j.Translated, chunk.Separator)
}

var errIndexOutOfRange = errors.New("chunk index out of range")
