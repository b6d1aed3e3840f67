package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/alnah/go-translate/internal/format"
	"github.com/alnah/go-translate/internal/pipeline"
	"github.com/alnah/go-translate/internal/translate"
)

// progressPrinter renders chunk progress. On a terminal the line is
// rewritten in place; otherwise each update is its own line.
type progressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	inPlace bool
	open    bool // an in-place line awaits its newline
}

func newProgressPrinter(env *Env) *progressPrinter {
	inPlace := false
	if env.IsTerminal != nil {
		inPlace = env.IsTerminal(env.Stderr)
	}
	return &progressPrinter{w: env.Stderr, inPlace: inPlace}
}

func (p *progressPrinter) estimate(r pipeline.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLine()
	_, _ = fmt.Fprintf(p.w, "%s: %s tokens, estimated cost %s\n",
		r.Name, format.Tokens(r.Estimate.Tokens), format.Cost(r.Estimate.Cost))
}

func (p *progressPrinter) chunk(_ string, e translate.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := fmt.Sprintf("Translating chunk %d/%d...", e.Done, e.Total)
	if !p.inPlace {
		_, _ = fmt.Fprintf(p.w, "  %s\n", msg)
		return
	}
	_, _ = fmt.Fprintf(p.w, "\r  %s", msg)
	p.open = true
	if e.Done == e.Total {
		p.closeLine()
	}
}

// endLine terminates a pending in-place line so later output starts
// on a fresh line.
func (p *progressPrinter) endLine() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLine()
}

func (p *progressPrinter) closeLine() {
	if p.open {
		_, _ = fmt.Fprintln(p.w)
		p.open = false
	}
}
