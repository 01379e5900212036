// Package inbox submits WAV files dropped into a watched directory.
package inbox

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ngt-labs/coughdx/internal/adapters/audio"
	"github.com/ngt-labs/coughdx/internal/domain"
	"github.com/ngt-labs/coughdx/internal/ports"
)

// DefaultDebounce lets a writer finish the file before it is read.
const DefaultDebounce = 250 * time.Millisecond

// Submitter uploads one clip and returns what to render.
type Submitter interface {
	Submit(ctx context.Context, blob domain.Blob) domain.Outcome
}

// Loader reads a clip from disk.
type Loader func(path string) (domain.Blob, error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last write to a file.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// WithLoader replaces the WAV decoder.
func WithLoader(l Loader) Option {
	return func(w *Watcher) { w.load = l }
}

// Watcher monitors a directory for new WAV files via fsnotify.
// Files already present when Run starts are ignored.
type Watcher struct {
	dir       string
	submitter Submitter
	view      ports.View
	logger    ports.Logger
	delay     time.Duration
	load      Loader

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup

	// serializes uploads so results render in order
	procMu sync.Mutex
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, submitter Submitter, view ports.View, logger ports.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		dir:       dir,
		submitter: submitter,
		view:      view,
		logger:    logger,
		delay:     DefaultDebounce,
		load:      audio.ReadWAVBlob,
		pending:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled, then waits for in-flight uploads.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching for recordings", ports.String("dir", w.dir))

	defer w.drain()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".wav") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounce(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) debounce(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
	}

	w.wg.Add(1)
	w.pending[path] = time.AfterFunc(w.delay, func() {
		defer w.wg.Done()
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.process(ctx, path)
	})
}

// drain cancels files still settling and waits for started uploads.
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) process(ctx context.Context, path string) {
	w.procMu.Lock()
	defer w.procMu.Unlock()

	if ctx.Err() != nil {
		return
	}
	name := filepath.Base(path)

	blob, err := w.load(path)
	if err != nil {
		w.logger.Warn("skip recording", ports.String("file", name), ports.Err(err))
		w.view.ShowInlineError(fmt.Sprintf("%s: %v", name, err))
		return
	}

	w.logger.Info("submitting recording",
		ports.String("file", name),
		ports.Int("bytes", blob.Size()),
		ports.Duration("clip", blob.Duration),
	)
	w.view.ShowPending(name + ": " + domain.PendingMessage)
	outcome := w.submitter.Submit(ctx, blob)
	w.view.ShowOutcome(outcome)
}
