// Package watcher implements Calvin's long-running watch mode: a
// debounced filesystem event loop that reuses the deploy orchestrator's
// compile + sync primitives on every settled burst of changes (spec
// §4.8).
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/calvin-dev/calvin/pkg/asset"
	"github.com/calvin-dev/calvin/pkg/config"
	"github.com/calvin-dev/calvin/pkg/constants"
	"github.com/calvin-dev/calvin/pkg/deploy"
	"github.com/calvin-dev/calvin/pkg/events"
	"github.com/calvin-dev/calvin/pkg/logger"
)

var log = logger.New("watcher")

// Options configures one watch run: the deploy options/environment a
// triggered sync reuses verbatim, plus the watch-only knobs (spec §4.8,
// grounded on original_source's WatchOptions).
type Options struct {
	DeployOptions  config.DeployOptions
	Env            deploy.Env
	Sink           events.Sink
	WatchAllLayers bool
}

// fileState is the incremental cache entry for one watched path: its size
// and content hash, so a write that doesn't change content (a touch, or a
// metadata-only update) never triggers a sync (spec §4.9's "Incremental
// watcher cache. Map from path -> (size, hash)").
type fileState struct {
	size int64
	hash string
}

// Watcher runs one watch session. Construct with New and call Run, which
// blocks until running is cleared or the watcher hits a fatal error.
type Watcher struct {
	opts Options

	mu      sync.Mutex
	cache   map[string]fileState
	pending map[string]struct{}

	fsw *fsnotify.Watcher
}

// New constructs a Watcher ready to Run.
func New(opts Options) (*Watcher, error) {
	if opts.Sink == nil {
		opts.Sink = events.NoopSink{}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	return &Watcher{
		opts:    opts,
		cache:   make(map[string]fileState),
		pending: make(map[string]struct{}),
		fsw:     fsw,
	}, nil
}

// Run watches the resolved layer roots and triggers a deploy on every
// debounced burst of content changes, until running is cleared (spec
// §4.8 "Shutdown is cooperative: an atomic boolean shared with the main
// loop is polled between events").
func (w *Watcher) Run(running *atomic.Bool) error {
	defer w.fsw.Close()

	roots := w.watchRoots()
	if len(roots) == 0 {
		return fmt.Errorf("watcher: no layer roots to watch")
	}
	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			log.Printf("warning: %v", err)
		}
	}
	w.primeCache(roots)

	w.opts.Sink.Emit(events.WatchStarted(w.opts.DeployOptions.Source, roots))
	log.Printf("watching %d root(s)", len(roots))

	var debounceTimer *time.Timer
	var debounceMu sync.Mutex

	pollTicker := time.NewTicker(constants.WatchDebounce)
	defer pollTicker.Stop()

	triggerSync := func() {
		debounceMu.Lock()
		paths := make([]string, 0, len(w.pending))
		w.mu.Lock()
		for p := range w.pending {
			paths = append(paths, p)
		}
		w.pending = make(map[string]struct{})
		w.mu.Unlock()
		debounceMu.Unlock()

		if len(paths) == 0 {
			return
		}
		w.runSync(len(paths))
	}

	for running.Load() {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher: event channel closed")
			}
			if event.Has(fsnotify.Chmod) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}

			changed, err := w.observe(event)
			if err != nil {
				w.opts.Sink.Emit(events.WatchError(err.Error()))
				continue
			}
			if !changed {
				continue
			}

			w.opts.Sink.Emit(events.FileChanged(event.Name))
			w.mu.Lock()
			w.pending[event.Name] = struct{}{}
			w.mu.Unlock()

			debounceMu.Lock()
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(constants.WatchDebounce, triggerSync)
			debounceMu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher: error channel closed")
			}
			log.Printf("fsnotify error: %v", err)
			w.opts.Sink.Emit(events.WatchError(err.Error()))

		case <-pollTicker.C:
			// Wakes the loop periodically purely so the running flag is
			// re-checked even during a quiet period with no events.
		}
	}

	debounceMu.Lock()
	if debounceTimer != nil {
		debounceTimer.Stop()
	}
	debounceMu.Unlock()

	w.opts.Sink.Emit(events.Shutdown())
	return nil
}

// observe updates the incremental cache for event and reports whether it
// represents a real content change (spec §4.9: "skips files whose hash is
// unchanged").
func (w *Watcher) observe(event fsnotify.Event) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		_, existed := w.cache[event.Name]
		delete(w.cache, event.Name)
		return existed, nil
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		if os.IsNotExist(err) {
			delete(w.cache, event.Name)
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		if err := w.addRecursive(event.Name); err != nil {
			return false, err
		}
		return false, nil
	}

	data, err := os.ReadFile(event.Name)
	if err != nil {
		return false, err
	}
	newState := fileState{size: info.Size(), hash: asset.HashContent(data)}
	prev, ok := w.cache[event.Name]
	w.cache[event.Name] = newState
	if ok && prev.hash == newState.hash {
		return false, nil
	}
	return true, nil
}

// runSync executes one full deploy in response to a settled debounce
// window, translating its Result into the watch event stream (spec §4.8
// "re-parses the rest, then runs compile + sync exactly as in deploy").
func (w *Watcher) runSync(fileCount int) {
	w.opts.Sink.Emit(events.SyncStarted(fileCount))

	result, err := deploy.Run(w.opts.DeployOptions, w.opts.Env)
	if err != nil {
		log.Printf("sync failed: %v", err)
		w.opts.Sink.Emit(events.WatchError(err.Error()))
		return
	}

	w.opts.Sink.Emit(events.SyncComplete(result.Written, result.Skipped, result.Errors))
}

func (w *Watcher) watchRoots() []string {
	roots := deploy.LayerRoots(w.opts.DeployOptions, w.opts.Env.Home)
	if !w.opts.WatchAllLayers {
		return []string{w.opts.DeployOptions.Source}
	}
	return roots
}

// addRecursive registers root and every subdirectory (skills live nested
// one level under root, spec §4.2) with the underlying fsnotify watcher.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			log.Printf("failed to watch %s: %v", path, addErr)
		}
		return nil
	})
}

// primeCache seeds the incremental cache from the current on-disk state
// so the first real edit after startup is compared against a known
// baseline instead of an empty cache (which would otherwise treat every
// pre-existing file as "changed" on its first touch event).
func (w *Watcher) primeCache(roots []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
				return nil
			}
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				return nil
			}
			info, statErr := d.Info()
			if statErr != nil {
				return nil
			}
			w.cache[path] = fileState{size: info.Size(), hash: asset.HashContent(data)}
			return nil
		})
	}
}
