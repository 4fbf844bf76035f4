package project

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports edits to project configs made outside this store.
type Watcher struct {
	store *Store
	fs    *fsnotify.Watcher

	mu      sync.Mutex
	watched map[string]int // project name -> Watch calls
}

func NewWatcher(store *Store) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{store: store, fs: fw, watched: make(map[string]int)}, nil
}

// Watch starts watching a project's directory. Calls are counted; each
// needs a matching Unwatch.
func (w *Watcher) Watch(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[name] == 0 {
		// The directory is watched rather than the file because saves
		// replace config.json by rename.
		if err := w.fs.Add(w.store.Dir(name)); err != nil {
			return err
		}
	}
	w.watched[name]++
	return nil
}

func (w *Watcher) Unwatch(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[name] == 0 {
		return
	}
	w.watched[name]--
	if w.watched[name] == 0 {
		delete(w.watched, name)
		if err := w.fs.Remove(w.store.Dir(name)); err != nil {
			slog.Debug("unwatch project", "name", name, "error", err)
		}
	}
}

// Run delivers external changes to onChange until ctx is done. Writes
// whose content matches the store's last save are ignored.
func (w *Watcher) Run(ctx context.Context, onChange func(name string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != ConfigFile || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			name := filepath.Base(filepath.Dir(ev.Name))
			data, err := os.ReadFile(ev.Name)
			if err != nil || w.store.IsOwnWrite(name, data) {
				continue
			}
			slog.Info("project changed on disk", "name", name)
			onChange(name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("project watcher error", "error", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}
