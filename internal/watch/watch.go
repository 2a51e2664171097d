// Package watch observes the repository class roots for out-of-band
// edits and reports entry files that changed, fail to parse, or drifted
// away from the directory their kind and status demand.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/layout"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Event describes one observed repository change. Op is one of
// "scanned", "created", "updated", "deleted".
type Event struct {
	Op    string
	Path  string        // repository-relative path
	Entry *models.Entry // parsed entry, nil when parsing failed
	Err   error         // parse failure, nil otherwise
	// Canonical is set when the entry parsed cleanly but sits outside
	// the directory its kind and status demand.
	Canonical string
}

// EventCallback is called for every reported event.
type EventCallback func(Event)

// Watcher tracks entry files under the class roots by content digest, so
// writes that do not change anything are never re-reported.
type Watcher struct {
	store  storage.Provider
	layout *layout.Layout
	logger *slog.Logger

	mu   sync.Mutex
	snap map[string]string // path -> content digest
}

// New returns a watcher over the given provider and layout.
func New(store storage.Provider, lay *layout.Layout, logger *slog.Logger) *Watcher {
	return &Watcher{
		store:  store,
		layout: lay,
		logger: logger,
		snap:   make(map[string]string),
	}
}

// Scan walks every class root once, seeding the digest snapshot and
// reporting each entry file found. A standalone call doubles as a
// one-shot consistency report; Run performs it on startup.
func (w *Watcher) Scan(cb EventCallback) error {
	for _, root := range w.layout.Roots() {
		paths, err := w.store.List(root)
		if err != nil {
			return err
		}
		for _, p := range paths {
			w.handleFile("scanned", p, cb)
		}
	}
	return nil
}

// Run starts an fsnotify watcher on the class roots and processes file
// change events until ctx is cancelled. Directories created at runtime
// are added to the watch list automatically.
func (w *Watcher) Run(ctx context.Context, cb EventCallback) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// The repository root itself is watched non-recursively so class
	// roots created after startup are still picked up.
	if err := fw.Add(w.store.Root()); err != nil {
		return err
	}
	for _, root := range w.layout.Roots() {
		abs := filepath.Join(w.store.Root(), root)
		if _, statErr := os.Stat(abs); statErr != nil {
			continue
		}
		if err := addDirsRecursive(fw, abs); err != nil {
			return err
		}
	}

	if err := w.Scan(cb); err != nil {
		return err
	}

	w.logger.Info("watch: started", slog.String("root", w.store.Root()))

	// reconcileTimer debounces the rescan that follows rename bursts.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			w.logger.Info("watch: stopped")
			return nil

		case <-reconcileCh:
			w.reconcile(cb)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			rel, relErr := filepath.Rel(w.store.Root(), ev.Name)
			if relErr != nil || !w.withinRoots(rel) {
				continue
			}

			// New directories join the watch list; any entries already
			// inside them are reported immediately.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.logger.Warn("watch: add new dir failed",
							slog.String("path", rel),
							slog.String("error", addErr.Error()))
					}
					w.scanDir(rel, cb)
					continue
				}
			}

			if !strings.HasSuffix(rel, ".md") {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				op := "updated"
				if ev.Op&fsnotify.Create != 0 {
					op = "created"
				}
				w.handleFile(op, rel, cb)

			case ev.Op&fsnotify.Remove != 0:
				w.forget(rel, cb)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new
				// path arrives as a separate Create event when it lands
				// in a watched dir. Forget the old name now and rescan
				// shortly after to catch stragglers.
				w.forget(rel, cb)
				scheduleReconcile()
			}

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handleFile reads and fingerprints one entry file, reporting it when the
// content actually changed since the last sighting.
func (w *Watcher) handleFile(op, rel string, cb EventCallback) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watch: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}

	w.mu.Lock()
	changed := checksum.Changed(w.snap, rel, data)
	w.mu.Unlock()
	if !changed {
		return
	}

	ev := Event{Op: op, Path: rel}
	e, parseErr := parser.Parse(data)
	if parseErr != nil {
		ev.Err = parseErr
		w.logger.Warn("watch: malformed entry",
			slog.String("path", rel),
			slog.String("error", parseErr.Error()))
	} else {
		e.Path = rel
		ev.Entry = e
		if want := w.layout.EntryPath(e); want != rel {
			ev.Canonical = want
			w.logger.Warn("watch: misplaced entry",
				slog.String("id", e.ID),
				slog.String("path", rel),
				slog.String("want", want))
		} else {
			w.logger.Debug("watch: entry",
				slog.String("id", e.ID),
				slog.String("path", rel),
				slog.String("op", op))
		}
	}
	if cb != nil {
		cb(ev)
	}
}

// forget drops a path from the snapshot and reports the deletion if the
// path was being tracked.
func (w *Watcher) forget(rel string, cb EventCallback) {
	w.mu.Lock()
	_, tracked := w.snap[rel]
	delete(w.snap, rel)
	w.mu.Unlock()
	if !tracked {
		return
	}
	w.logger.Debug("watch: entry removed", slog.String("path", rel))
	if cb != nil {
		cb(Event{Op: "deleted", Path: rel})
	}
}

// reconcile compares the snapshot against the disk after a rename burst:
// tracked paths whose file vanished are forgotten, new or changed files
// reported.
func (w *Watcher) reconcile(cb EventCallback) {
	disk := make(map[string]struct{})
	for _, root := range w.layout.Roots() {
		paths, err := w.store.List(root)
		if err != nil {
			w.logger.Warn("watch: reconcile list failed", slog.String("error", err.Error()))
			return
		}
		for _, p := range paths {
			disk[p] = struct{}{}
		}
	}

	w.mu.Lock()
	var gone []string
	for p := range w.snap {
		if _, ok := disk[p]; !ok {
			gone = append(gone, p)
		}
	}
	w.mu.Unlock()

	for _, p := range gone {
		w.forget(p, cb)
	}
	for p := range disk {
		w.handleFile("created", p, cb)
	}
}

// scanDir reports any entry files already present in a newly created
// directory.
func (w *Watcher) scanDir(rel string, cb EventCallback) {
	paths, err := w.store.List(rel)
	if err != nil {
		w.logger.Warn("watch: scan new dir failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	for _, p := range paths {
		w.handleFile("created", p, cb)
	}
}

func (w *Watcher) withinRoots(rel string) bool {
	for _, root := range w.layout.Roots() {
		if rel == root || strings.HasPrefix(rel, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
