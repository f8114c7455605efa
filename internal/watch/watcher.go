package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/mailsmith/internal/campaign"
	"github.com/hupe1980/mailsmith/internal/logging"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Handler receives the outcome of each batch, in order. Implementations
// should hand work off and return quickly.
type Handler interface {
	HandleChange(ctx context.Context, change ClassifiedChange)
	CampaignAdded(ctx context.Context, name string)
	CampaignRemoved(ctx context.Context, name string)
}

// Options configures the watch behaviour.
type Options struct {
	// Layout locates the source tree to watch recursively.
	Layout campaign.Layout

	// Debounce is the quiet period before a batch is processed.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status lines.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: DefaultDebounce,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run watches the source tree and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options, h Handler) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	l := &loop{
		watcher:    watcher,
		classifier: NewClassifier(opts.Layout),
		emailsDir:  absClean(opts.Layout.EmailsDir()),
		handler:    h,
		opts:       opts,
		dirs:       map[string]bool{},
	}

	if err := l.addRecursive(opts.Layout.SourceDir); err != nil {
		return fmt.Errorf("watching source directory: %w", err)
	}

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", opts.Layout.SourceDir, opts.Debounce)

	debouncer := NewDebouncer(opts.Debounce, func(batch []fsnotify.Event) {
		l.handleBatch(ctx, batch)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) {
				continue
			}

			// If a new directory was created, watch it too.
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = l.addRecursive(event.Name)
				}
			}

			debouncer.Trigger(event)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", logging.Error(watchErr))
		}
	}
}

// loop holds the state shared by the event loop and batch processing.
type loop struct {
	watcher    *fsnotify.Watcher
	classifier *Classifier
	emailsDir  string
	handler    Handler
	opts       Options

	mu   sync.Mutex
	dirs map[string]bool
}

// addRecursive walks root and adds all directories to the watcher.
func (l *loop) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		// Skip hidden directories (e.g., .git).
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}

		if err := l.watcher.Add(path); err != nil {
			return err
		}

		l.mu.Lock()
		l.dirs[absClean(path)] = true
		l.mu.Unlock()

		return nil
	})
}

func (l *loop) isDir(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.dirs[absClean(path)]
}

func (l *loop) forgetDir(path string) {
	prefix := absClean(path)

	l.mu.Lock()
	defer l.mu.Unlock()

	for d := range l.dirs {
		if d == prefix || strings.HasPrefix(d, prefix+string(filepath.Separator)) {
			delete(l.dirs, d)
		}
	}
}

func (l *loop) handleBatch(ctx context.Context, batch []fsnotify.Event) {
	for _, ev := range Coalesce(batch) {
		if ctx.Err() != nil {
			return
		}

		switch {
		case ev.Kind == Renamed && l.isDir(ev.OldPath):
			l.dirGone(ctx, ev.OldPath)
			l.dirAdded(ctx, ev.Path)
		case ev.Kind == Deleted && l.isDir(ev.Path):
			l.dirGone(ctx, ev.Path)
		case ev.Kind == Added && l.isDir(ev.Path):
			l.dirAdded(ctx, ev.Path)
		case ev.Kind == Changed && l.isDir(ev.Path):
			// directory metadata
		default:
			l.dispatch(ctx, ev)
		}
	}
}

func (l *loop) dispatch(ctx context.Context, ev Event) {
	change, err := l.classifier.Classify(ev)

	switch {
	case errors.Is(err, ErrCrossCampaignRename):
		l.opts.Logger.Warn("rename across campaigns, handled as delete and add",
			slog.String("from", ev.OldPath), slog.String("to", ev.Path))
		l.dispatch(ctx, Event{Path: ev.OldPath, Kind: Deleted})
		l.dispatch(ctx, Event{Path: ev.Path, Kind: Added})

		return
	case err != nil:
		l.opts.Logger.Warn("dropping event", logging.Path(ev.Path), logging.Error(err))
		return
	}

	if change.RelativePath == "" {
		return
	}

	fmt.Fprintf(l.opts.Out, "[%s] %s\n", time.Now().Format("15:04:05"), change)
	l.handler.HandleChange(ctx, change)
}

// dirAdded registers a new campaign folder, or replays the files of any
// other new directory as additions since they may predate its watch.
func (l *loop) dirAdded(ctx context.Context, path string) {
	if filepath.Dir(absClean(path)) == l.emailsDir {
		name := filepath.Base(path)
		if strings.HasPrefix(name, ".") {
			return
		}

		fmt.Fprintf(l.opts.Out, "[%s] campaign %s added\n", time.Now().Format("15:04:05"), name)
		l.handler.CampaignAdded(ctx, name)

		return
	}

	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // the tree may change while walking
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != path {
				return filepath.SkipDir
			}

			return nil
		}

		if isRelevant(fsnotify.Event{Name: p, Op: fsnotify.Create}) {
			l.dispatch(ctx, Event{Path: p, Kind: Added})
		}

		return nil
	})
}

// dirGone forgets a removed directory. Output of files inside it is
// removed by their own delete events, never per folder.
func (l *loop) dirGone(ctx context.Context, path string) {
	l.forgetDir(path)

	if filepath.Dir(absClean(path)) == l.emailsDir {
		name := filepath.Base(path)

		fmt.Fprintf(l.opts.Out, "[%s] campaign %s removed\n", time.Now().Format("15:04:05"), name)
		l.handler.CampaignRemoved(ctx, name)
	}
}

// isRelevant filters out chmod-only events and editor temp files.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, remove, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	// Ignore editor temporary files and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
