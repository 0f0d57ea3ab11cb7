package cliconfig

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDelay is how long the watcher waits after a file change
// before reloading, so editors that write in several steps trigger one
// reload, not many.
const DefaultDebounceDelay = 100 * time.Millisecond

// WatchFunc receives the reloaded file config.
type WatchFunc func(FileConfig)

// ConfigWatcher monitors the config file and calls apply when it changes.
// Used to adjust gate thresholds on a running daemon without a restart.
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	apply    WatchFunc
}

// NewConfigWatcher creates a watcher for the config file at path.
func NewConfigWatcher(path string, apply WatchFunc) *ConfigWatcher {
	return &ConfigWatcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounceDelay,
		apply:    apply,
	}
}

// Run watches until the context is cancelled. The parent directory is
// watched rather than the file itself: editors and config management tools
// typically replace the file, which would drop a direct watch.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	log := Logger()

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(w.debounce)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(werr).Msg("config watcher error")

		case <-timer.C:
			fc, lerr := LoadFileConfig(w.path)
			if lerr != nil {
				log.Warn().Err(lerr).Str("path", w.path).Msg("config reload failed")
				continue
			}
			log.Info().Str("path", w.path).Msg("config file changed, reloading")
			w.apply(fc)
		}
	}
}
