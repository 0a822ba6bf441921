// Package watch runs a handler for every media file dropped into an inbox
// directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-chunkscribe/internal/logger"
	"github.com/alnah/go-chunkscribe/internal/media"
)

// Defaults.
const (
	DefaultMaxConcurrent = 2
	DefaultSettleDelay   = 500 * time.Millisecond
)

// ErrEventsClosed is returned by Run when the underlying watcher stops
// delivering events.
var ErrEventsClosed = errors.New("watcher events channel closed")

// Handler processes one new file. An error is logged and does not stop the
// watcher.
type Handler func(ctx context.Context, path string) error

// Watcher monitors one directory for created media files.
type Watcher struct {
	dir           string
	handle        Handler
	log           logger.Logger
	maxConcurrent int
	settleDelay   time.Duration
	fsw           *fsnotify.Watcher

	processed atomic.Int64
	failed    atomic.Int64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) { w.log = l }
}

// WithMaxConcurrent bounds how many files are handled at once.
// Values below 1 keep the default.
func WithMaxConcurrent(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.maxConcurrent = n
		}
	}
}

// WithSettleDelay sets how long to wait after a file appears before
// handling it, so writers can finish.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.settleDelay = d
		}
	}
}

// New starts watching dir. Call Close when done.
func New(dir string, handle Handler, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:           dir,
		handle:        handle,
		log:           logger.Nop(),
		maxConcurrent: DefaultMaxConcurrent,
		settleDelay:   DefaultSettleDelay,
		fsw:           fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run dispatches created media files to the handler until ctx ends, then
// waits for in-flight handlers and returns ctx.Err(). Handlers that already
// started run to completion; files still settling are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(w.maxConcurrent)
	defer func() {
		_ = g.Wait()
		w.log.Info(ctx, "watcher stopped: %d processed, %d failed", w.processed.Load(), w.failed.Load())
	}()

	w.log.Info(ctx, "watching %s (max concurrent: %d)", w.dir, w.maxConcurrent)
	for {
		select {
		case <-ctx.Done():
			w.log.Info(ctx, "waiting for in-flight files")
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return ErrEventsClosed
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !accept(event.Name) {
				w.log.Debug(ctx, "ignoring %s", event.Name)
				continue
			}
			w.log.Info(ctx, "new file: %s", filepath.Base(event.Name))

			path := event.Name
			g.Go(func() error {
				w.run(ctx, path)
				return nil
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrEventsClosed
			}
			w.log.Error(ctx, "watcher: %v", err)
		}
	}
}

func (w *Watcher) run(ctx context.Context, path string) {
	if w.settleDelay > 0 {
		t := time.NewTimer(w.settleDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
	// A file that got past the settle delay is finished even after ctx
	// ends; a second interrupt force-quits the process instead.
	if err := w.handle(context.WithoutCancel(ctx), path); err != nil {
		w.failed.Add(1)
		w.log.Error(ctx, "%s: %v", filepath.Base(path), err)
		return
	}
	w.processed.Add(1)
}

// Close stops watching. Run returns ErrEventsClosed if still running.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// accept skips hidden files, which editors and downloaders use while writing.
func accept(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && media.IsMediaName(base)
}
