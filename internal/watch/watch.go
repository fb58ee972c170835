// Package watch re-runs the migration generator whenever project sources
// change. It is used by `quarry migration make --watch`.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quarry-dev/quarry/internal/debuglog"
)

// Watcher monitors a project tree for Go source changes and invokes a
// callback after a debounce window, so editor save bursts trigger a single
// regeneration.
type Watcher struct {
	root      string
	skipDir   string
	debounce  time.Duration
	onChange  func()
	fswatcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher over root. Events under skipDir (the migrations
// output directory) are ignored so the generator's own writes do not retrigger
// it.
func New(root, skipDir string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:      root,
		skipDir:   filepath.Clean(skipDir),
		debounce:  debounce,
		onChange:  onChange,
		fswatcher: fsw,
	}
	if err := w.addDirs(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addDirs registers every directory under root with the filesystem watcher.
// fsnotify is not recursive, so new subdirectories are added as they appear.
func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			return filepath.SkipDir
		}
		if filepath.Clean(path) == w.skipDir {
			return filepath.SkipDir
		}
		return w.fswatcher.Add(path)
	})
}

// relevant filters events down to Go source changes outside the output
// directory.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	path := filepath.Clean(event.Name)
	if path == w.skipDir || strings.HasPrefix(path, w.skipDir+string(filepath.Separator)) {
		return false
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if strings.HasSuffix(base, ".go") && !strings.HasSuffix(base, "_test.go") {
		return true
	}
	// A created directory needs watching; whether it contains models is
	// decided when files land in it.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			_ = w.addDirs(path)
		}
	}
	return false
}

// Run blocks, dispatching debounced change callbacks until the context is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fswatcher.Close()
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return ctx.Err()
		case event, ok := <-w.fswatcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			debuglog.Logf("watch: %s %s", event.Op, event.Name)
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.timer = time.AfterFunc(w.debounce, w.onChange)
			w.mu.Unlock()
		case err, ok := <-w.fswatcher.Errors:
			if !ok {
				return nil
			}
			debuglog.Logf("watch: error: %v", err)
		}
	}
}
