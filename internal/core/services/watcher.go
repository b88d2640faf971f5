package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/evidentlabs/answercore/internal/core/domain"
	"github.com/evidentlabs/answercore/internal/core/ports/driving"
	"github.com/evidentlabs/answercore/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last change in a
// scope before rebuilding. Editors and sync tools tend to emit bursts of
// events for a single logical change.
const DefaultDebounce = 2 * time.Second

// Watcher observes the uploads root for external content changes and
// schedules a debounced index rebuild for the affected scope. Layout is
// one subdirectory per scope: <root>/<scope>/<artifact>.
type Watcher struct {
	root     string
	ingest   driving.IngestService
	debounce time.Duration

	mu     sync.Mutex
	timers map[domain.Scope]*time.Timer
}

// NewWatcher creates a watcher over the uploads root.
func NewWatcher(root string, ingest driving.IngestService) *Watcher {
	return &Watcher{
		root:     root,
		ingest:   ingest,
		debounce: DefaultDebounce,
		timers:   make(map[domain.Scope]*time.Timer),
	}
}

// SetDebounce overrides the debounce interval. Useful for tests.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run watches until the context is cancelled. Each create, write, remove or
// rename under a scope directory schedules a rebuild of that scope after
// the debounce interval; further events reset the timer.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	defer w.stopTimers()

	if err := os.MkdirAll(w.root, 0o700); err != nil {
		return fmt.Errorf("create uploads root: %w", err)
	}
	if err := fw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	// Pick up scope directories that already exist.
	dirEntries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("read uploads root: %w", err)
	}
	for _, e := range dirEntries {
		if e.IsDir() {
			if err := fw.Add(filepath.Join(w.root, e.Name())); err != nil {
				logger.Warn("Watcher: cannot watch %s: %v", e.Name(), err)
			}
		}
	}

	logger.Info("Watching %s for document changes", w.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// A new scope directory needs its own watch; events inside it follow.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.Add(event.Name); err != nil {
				logger.Warn("Watcher: cannot watch %s: %v", event.Name, err)
			}
			return
		}
	}

	scope := w.scopeFor(event.Name)
	if !scope.Valid() {
		return
	}

	logger.Debug("Watcher: %s %s (scope %q)", event.Op, event.Name, scope)
	w.schedule(ctx, scope)
}

// scopeFor derives the scope from a path under the uploads root. Events on
// the root itself (directory creation, removal) have no scope.
func (w *Watcher) scopeFor(path string) domain.Scope {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return domain.Scope("")
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) < 2 {
		// Direct child of the root: a scope directory, not content.
		return domain.Scope("")
	}
	return domain.Scope(parts[0])
}

// schedule arms (or re-arms) the scope's debounce timer.
func (w *Watcher) schedule(ctx context.Context, scope domain.Scope) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[scope]; ok {
		timer.Reset(w.debounce)
		return
	}

	w.timers[scope] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, scope)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		logger.Info("Content change detected, rebuilding scope %q", scope)
		if err := w.ingest.Rebuild(ctx, scope); err != nil {
			if errors.Is(err, domain.ErrRebuildInProgress) {
				// An ingest already has the scope; its rebuild covers us.
				logger.Debug("Watcher: scope %q already rebuilding", scope)
				return
			}
			logger.Warn("Watcher: rebuild of scope %q failed: %v", scope, err)
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for scope, timer := range w.timers {
		timer.Stop()
		delete(w.timers, scope)
	}
}
