package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"ffglitch/internal/logging"
	"ffglitch/internal/transform"
)

// DefaultDebounce is how long Watch waits for edits to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watch runs req once, then reruns it whenever the input file or a plugin
// transform changes, until ctx is cancelled. onResult sees every run.
// Directories are watched instead of files so editors that replace files
// atomically are still seen.
func (r *Runner) Watch(ctx context.Context, req Request, delay time.Duration, onResult func(Result, error)) error {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	logger := logging.NewComponentLogger(r.logger, "watch")

	targets, err := watchTargets(req)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	dirs := map[string]struct{}{}
	for target := range targets {
		dirs[filepath.Dir(target)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	run := func() {
		result, err := r.Run(ctx, req)
		if onResult != nil {
			onResult(result, err)
		}
	}
	run()

	trigger := make(chan struct{}, 1)
	debounced := debounce.New(delay)
	logger.Info("watching for changes", logging.Int("paths", len(targets)))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, targets) {
				continue
			}
			logger.Debug("change detected", logging.String("path", event.Name), logging.String("op", event.Op.String()))
			debounced(func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", logging.Error(err))
		case <-trigger:
			if ctx.Err() != nil {
				return nil
			}
			logger.Info("rerunning after change")
			run()
		}
	}
}

// watchTargets returns the absolute paths whose changes trigger a rerun.
func watchTargets(req Request) (map[string]struct{}, error) {
	targets := map[string]struct{}{}
	paths := []string{req.Input}
	if source := strings.TrimSpace(req.Source); source != "" && !isBuiltinSource(source) {
		paths = append(paths, source)
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		targets[abs] = struct{}{}
	}
	return targets, nil
}

func isBuiltinSource(source string) bool {
	if strings.HasPrefix(source, transform.BuiltinPrefix) {
		return true
	}
	if strings.ContainsRune(source, filepath.Separator) {
		return false
	}
	_, ok := transform.LookupBuiltin(source)
	return ok
}

func relevant(event fsnotify.Event, targets map[string]struct{}) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := targets[abs]
	return ok
}
