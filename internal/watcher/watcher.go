package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a run is triggered.
const DefaultDebounce = 2 * time.Second

// Watcher watches asset roots and calls a trigger function once events settle.
type Watcher struct {
	roots    []string
	exclude  []string
	debounce time.Duration
	trigger  func()

	fsw      *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	stopChan chan struct{}
	doneChan chan struct{}
}

// New creates a watcher for roots. Directories under any excluded path are
// not watched; the first-frame directory is excluded so extracted frames do
// not retrigger runs.
func New(roots, exclude []string, debounce time.Duration, trigger func()) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		roots:    roots,
		exclude:  exclude,
		debounce: debounce,
		trigger:  trigger,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start registers all directories and begins processing events.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return err
	}
	w.fsw = fsw

	watchCount := 0
	for _, root := range w.roots {
		watchCount += w.addTree(root)
	}
	metrics.WatchedDirectories.Set(float64(watchCount))
	logging.Info("Watcher started, watching %d directories", watchCount)

	go w.processEvents()
	return nil
}

// Stop ends event processing and cancels any pending trigger.
func (w *Watcher) Stop() {
	select {
	case <-w.stopChan:
		return
	default:
		close(w.stopChan)
	}

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.fsw != nil {
		if err := w.fsw.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
		<-w.doneChan
	}
}

func (w *Watcher) addTree(root string) int {
	count := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if w.isExcluded(path) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			logging.Warn("failed to add path to watcher %s: %v", path, addErr)
			metrics.WatcherErrors.Inc()
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		logging.Warn("failed to walk %s for watcher: %v", root, err)
		metrics.WatcherErrors.Inc()
	}
	return count
}

func (w *Watcher) isExcluded(path string) bool {
	for _, ex := range w.exclude {
		if ex == "" {
			continue
		}
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents() {
	defer close(w.doneChan)
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Error("Watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") || w.isExcluded(event.Name) {
		return
	}

	op := eventType(event.Op)
	metrics.WatcherEventsTotal.WithLabelValues(op).Inc()
	if op == "chmod" {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			added := w.addTree(event.Name)
			metrics.WatchedDirectories.Add(float64(added))
			logging.Debug("Added new directory tree to watcher: %s (%d dirs)", event.Name, added)
		}
	}

	logging.Debug("Watcher event %s on %s", op, event.Name)
	w.schedule()
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.stopChan:
			return
		default:
		}
		logging.Info("Filesystem changes settled, triggering sync")
		w.trigger()
	})
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
