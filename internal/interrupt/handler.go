// Package interrupt turns SIGINT and SIGTERM into context cancellation with
// a forced exit on a quick second signal.
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

// ExitInterrupt is the exit code for a forced stop (128 + SIGINT).
const ExitInterrupt = 130

// DefaultWindow is how long after the first signal a second one forces exit.
const DefaultWindow = 2 * time.Second

const (
	stoppingMessage = "\nStopping after in-flight work (Ctrl+C again to force quit)..."
	forcedMessage   = "\nForced quit."
)

// Handler cancels its context on the first signal. A second signal within
// the window calls the exit function.
type Handler struct {
	mu          sync.Mutex
	first       time.Time
	interrupted bool
	forced      bool
	stopped     bool
	cancel      context.CancelFunc
	done        chan struct{}

	signals <-chan os.Signal
	notify  chan os.Signal // set when OS signals are relayed
	exit    func(int)
	now     func() time.Time
	stderr  io.Writer
	window  time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithSignals replaces OS signal delivery, mainly for tests.
func WithSignals(ch <-chan os.Signal) Option {
	return func(h *Handler) { h.signals = ch }
}

// WithExit sets the function called on a forced stop. Default os.Exit.
func WithExit(fn func(int)) Option {
	return func(h *Handler) { h.exit = fn }
}

// WithClock sets the time source.
func WithClock(fn func() time.Time) Option {
	return func(h *Handler) { h.now = fn }
}

// WithStderr sets where stop messages go. It must tolerate concurrent writes.
func WithStderr(w io.Writer) Option {
	return func(h *Handler) { h.stderr = w }
}

// WithWindow sets the force-quit window.
func WithWindow(d time.Duration) Option {
	return func(h *Handler) { h.window = d }
}

// Watch starts listening and returns a context canceled by the first signal.
// Call Stop when the program no longer needs signal handling.
func Watch(parent context.Context, opts ...Option) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		cancel: cancel,
		done:   make(chan struct{}),
		exit:   os.Exit,
		now:    time.Now,
		stderr: os.Stderr,
		window: DefaultWindow,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.signals == nil {
		ch := make(chan os.Signal, 2)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		h.signals = ch
		h.notify = ch
	}
	go h.listen()
	return h, ctx
}

func (h *Handler) listen() {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-h.signals:
			if !ok {
				return
			}
			if h.handle() {
				return
			}
		}
	}
}

// handle records one signal and reports whether listening should end.
func (h *Handler) handle() bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return true
	}
	now := h.now()

	if !h.interrupted {
		h.interrupted = true
		h.first = now
		h.mu.Unlock()
		_, _ = fmt.Fprintln(h.stderr, stoppingMessage)
		h.cancel()
		return false
	}
	if now.Sub(h.first) > h.window {
		// Too late to count as a double press; restart the window.
		h.first = now
		h.mu.Unlock()
		return false
	}
	h.forced = true
	h.mu.Unlock()

	_, _ = fmt.Fprintln(h.stderr, forcedMessage)
	h.exit(ExitInterrupt)
	return true
}

// Interrupted reports whether at least one signal arrived.
func (h *Handler) Interrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Forced reports whether a second signal forced an exit.
func (h *Handler) Forced() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.forced
}

// Stop ends signal handling and cancels the context. Safe to call twice.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	if h.notify != nil {
		signal.Stop(h.notify)
	}
	close(h.done)
	h.cancel()
}
