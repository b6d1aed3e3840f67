// Package interrupt turns SIGINT/SIGTERM into a two-stage shutdown: the
// first signal cancels the run so documents already translated are still
// written, a second one within the window exits immediately.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// abortWindow is how long after the first signal a second one aborts.
const abortWindow = 2 * time.Second

const (
	stopMessage  = "\nInterrupted: stopping after in-flight chunks (press Ctrl+C again to abort)"
	abortMessage = "\nAborted."
)

// Handler cancels a context on the first signal and exits the process on a
// second signal received within abortWindow.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	interrupted    bool
	aborted        bool
	stopped        bool
	cancel         context.CancelFunc
	done           chan struct{}

	exit   func(int)
	now    func() time.Time
	stderr io.Writer
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh <-chan os.Signal
	Exit  func(int)
	Now   func() time.Time
	// Stderr must be safe for concurrent writes.
	Stderr io.Writer
}

// NewHandler listens for SIGINT and SIGTERM. The returned context is
// canceled on the first signal.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return NewHandlerWithOptions(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions creates a handler reading signals from opts.SigCh.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		cancel: cancel,
		done:   make(chan struct{}),
		exit:   opts.Exit,
		now:    opts.Now,
		stderr: opts.Stderr,
	}
	if h.exit == nil {
		h.exit = os.Exit
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}
	return h, ctx
}

func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			if h.handle() {
				return
			}
		}
	}
}

// handle processes one signal and reports whether listening should stop.
func (h *Handler) handle() bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return true
	}
	now := h.now()

	if !h.interrupted {
		h.interrupted = true
		h.firstInterrupt = now
		h.mu.Unlock()
		fmt.Fprintln(h.stderr, stopMessage)
		h.cancel()
		return false
	}

	if now.Sub(h.firstInterrupt) > abortWindow {
		// Too late to count as a double press: restart the window.
		h.firstInterrupt = now
		h.mu.Unlock()
		return false
	}

	h.aborted = true
	h.mu.Unlock()
	fmt.Fprintln(h.stderr, abortMessage)
	h.exit(ExitInterrupt)
	return true
}

// WasInterrupted reports whether at least one signal was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// WasAborted reports whether a second signal forced an exit.
func (h *Handler) WasAborted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aborted
}

// Stop releases the signal handlers. It is safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	close(h.done)
	h.cancel()
}
