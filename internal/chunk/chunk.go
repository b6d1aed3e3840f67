// Package chunk partitions text into token-bounded chunks along line
// boundaries.
//
// Lines are never cut: a chunk is a run of whole lines. A single line whose
// token count alone exceeds the budget is emitted as its own chunk and may
// therefore exceed the budget. This is a known property of the splitter,
// kept so that formatting inside a line is never broken.
package chunk

import (
	"strings"

	"github.com/alnah/go-translate/internal/tokenizer"
)

// Separator splits text into lines and joins chunks back together.
const Separator = "\n"

// separatorCost is the token cost charged for the line break that joins a
// line to the next one.
const separatorCost = 1

// Chunk is an ordered slice of a document's text.
type Chunk struct {
	Index  int    // 0-based position; defines reassembly order
	Text   string // whole lines joined by Separator
	Tokens int    // token count of Text
}

// Split partitions text into chunks of at most maxTokens tokens, counting
// each line as its token count plus one for the line break.
//
// Empty text yields no chunks. A maxTokens below 1 is treated as 1, which
// places every line in its own chunk.
func Split(text string, maxTokens int, counter tokenizer.Counter) []Chunk {
	if text == "" {
		return nil
	}
	maxTokens = max(maxTokens, 1)

	var (
		chunks        []Chunk
		current       []string
		currentTokens int
	)

	flush := func() {
		joined := strings.Join(current, Separator)
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Text:   joined,
			Tokens: counter.Count(joined),
		})
		current = nil
		currentTokens = 0
	}

	for _, line := range strings.Split(text, Separator) {
		lineTokens := counter.Count(line) + separatorCost

		if currentTokens+lineTokens > maxTokens && len(current) > 0 {
			flush()
		}
		current = append(current, line)
		currentTokens += lineTokens
	}

	if len(current) > 0 {
		flush()
	}

	return chunks
}

// Join reassembles chunk texts in slice order with Separator.
func Join(chunks []Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, Separator)
}

// Oversized reports whether c exceeds maxTokens. Only single-line chunks can.
func (c Chunk) Oversized(maxTokens int) bool {
	return c.Tokens > maxTokens
}

// Lines returns the number of lines in the chunk.
func (c Chunk) Lines() int {
	return strings.Count(c.Text, Separator) + 1
}
