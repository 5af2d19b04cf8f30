// Package watch observes a directory tree for changes. It watches the
// root and every subdirectory, batches the raw notifications over a
// short debounce window, and emits one event per settled burst so a
// consumer can rebuild a diagram without thrashing on every file the
// OS reports.
package watch

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the settle window applied when Options.Debounce
// is zero. Bulk operations (extracting an archive, rm -rf) produce
// hundreds of notifications; one rebuild per window is enough.
const DefaultDebounce = 250 * time.Millisecond

// Event is a debounced batch of filesystem changes.
type Event struct {
	// Paths are the affected paths, deduplicated, in no particular
	// order.
	Paths []string
}

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period before a batch is emitted. Zero
	// means DefaultDebounce.
	Debounce time.Duration

	// ShowHidden also watches dot-directories. Off by default to
	// match scans that skip them.
	ShowHidden bool

	// Logger receives watch errors. Nil discards them.
	Logger *log.Logger
}

// Watcher observes a directory tree recursively.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	debounce time.Duration
	hidden   bool
	logger   *log.Logger
	events   chan Event
}

// New creates a watcher over root and all its subdirectories. Call
// Run to start delivering events and Close when done.
func New(root string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		root:     abs,
		debounce: opts.Debounce,
		hidden:   opts.ShowHidden,
		logger:   opts.Logger,
		events:   make(chan Event, 1),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := w.addTree(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events returns the channel on which debounced batches arrive. The
// channel is closed when Run returns.
func (w *Watcher) Events() <-chan Event { return w.events }

// Run processes notifications until ctx is cancelled or the watcher
// is closed. It blocks; run it in a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				timer.Stop()
				return
			}
			if w.skip(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}

			// New directories must be added to the watch list
			// immediately or changes inside them are silent.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.logger.Warn("watch new directory", "path", ev.Name, "err", err)
					}
				}
			}

			if timerArmed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			timerArmed = true

		case <-timer.C:
			timerArmed = false
			if len(pending) == 0 {
				continue
			}
			batch := Event{Paths: make([]string, 0, len(pending))}
			for p := range pending {
				batch.Paths = append(batch.Paths, p)
			}
			pending = make(map[string]struct{})

			select {
			case w.events <- batch:
			case <-ctx.Done():
				timer.Stop()
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				timer.Stop()
				return
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// Close stops the underlying watcher. Run returns shortly after.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// addTree registers dir and every directory below it. Unreadable
// subtrees are skipped, matching the scanner's partial-success
// behavior.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if w.skip(path) && path != dir {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("watch directory", "path", path, "err", err)
		}
		return nil
	})
}

// skip reports whether a path is under a hidden directory we ignore.
func (w *Watcher) skip(path string) bool {
	if w.hidden {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
