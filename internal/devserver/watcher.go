package devserver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"fresco/internal/logging"
)

// watcher turns raw filesystem events under the configured roots into
// debounced per-file change notifications for template sources.
type watcher struct {
	fs       *fsnotify.Watcher
	log      *logging.Logger
	cfg      Config
	onChange func(path string)

	mu        sync.Mutex
	closed    bool
	debounce  *debouncer
	done      chan struct{}
	closeOnce sync.Once
}

func newWatcher(cfg Config, log *logging.Logger, onChange func(path string)) (*watcher, error) {
	source, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start watcher: %w", err)
	}

	w := &watcher{
		fs:       source,
		log:      log,
		cfg:      cfg,
		onChange: onChange,
		debounce: newDebouncer(cfg.Debounce.Std()),
		done:     make(chan struct{}),
	}

	for _, root := range cfg.Roots {
		if err := w.watchTree(root); err != nil {
			_ = source.Close()
			return nil, err
		}
	}

	go w.run()
	return w, nil
}

// watchTree registers root and every directory below it.
func (w *watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch root %s: %w", root, err)
			}
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.log.Debug("watch added", map[string]string{"path": path})
		return nil
	})
}

func (w *watcher) run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", map[string]string{"error": err.Error()})
		case <-w.done:
			return
		}
	}
}

func (w *watcher) handleEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watchTree(event.Name); err != nil {
				w.log.Warn("watch new directory", map[string]string{
					"path":  event.Name,
					"error": err.Error(),
				})
			}
			return
		}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if !w.cfg.matchesExtension(event.Name) {
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.debounce.schedule(event.Name, w.flush)
	w.mu.Unlock()
}

func (w *watcher) flush(path string) {
	w.mu.Lock()
	if w.closed || !w.debounce.pop(path) {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.log.Debug("source changed", map[string]string{"path": path})
	if w.onChange != nil {
		w.onChange(path)
	}
}

func (w *watcher) Close() error {
	if w == nil {
		return nil
	}
	var err error
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.debounce.stop()
		w.mu.Unlock()
		close(w.done)
		err = w.fs.Close()
	})
	return err
}
