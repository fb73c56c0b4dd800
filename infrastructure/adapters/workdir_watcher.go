package adapters

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/setegnworku/africa-rising-video/application/ports/outbound"
)

// RerunHandler is invoked after the work directory settles following a change
// to the script or a slide image.
type RerunHandler func(ctx context.Context) error

type WorkDirWatcher struct {
	workDir    string
	scriptName string
	handler    RerunHandler
	logger     outbound.LoggerPort
	watcher    *fsnotify.Watcher
	debounce   time.Duration
}

func NewWorkDirWatcher(logger outbound.LoggerPort, workDir, scriptName string, debounce time.Duration, handler RerunHandler) (*WorkDirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(workDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &WorkDirWatcher{
		workDir:    workDir,
		scriptName: scriptName,
		handler:    handler,
		logger:     logger,
		watcher:    watcher,
		debounce:   debounce,
	}, nil
}

// Start monitors the work directory until ctx is cancelled. Bursts of events
// are coalesced into one rerun, and reruns never overlap: changes that arrive
// while a run is in flight queue exactly one follow-up run.
func (w *WorkDirWatcher) Start(ctx context.Context) error {
	w.logger.InfoWithFields("Watching work directory", map[string]interface{}{
		"dir":    w.workDir,
		"script": w.scriptName,
	})

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var (
		pending bool
		running bool
		dirty   bool
	)
	runDone := make(chan error, 1)

	launch := func() {
		running = true
		dirty = false
		go func() {
			runDone <- w.handler(ctx)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			if running {
				<-runDone
			}
			w.logger.Info("Work directory watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.DebugWithFields("Change detected", map[string]interface{}{
				"file": filepath.Base(event.Name),
				"op":   event.Op.String(),
			})
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			pending = false
			if running {
				dirty = true
				continue
			}
			launch()

		case err := <-runDone:
			running = false
			if err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error(err, "Rerun failed")
			}
			if dirty {
				launch()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(err, "Watcher error")
		}
	}
}

// Stop closes the underlying file watcher.
func (w *WorkDirWatcher) Stop() error {
	return w.watcher.Close()
}

// relevant reports whether an event should trigger a rerun. Only the script
// and slide images count; hidden files (including scratch directories) and
// generated outputs never do.
func (w *WorkDirWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.EqualFold(base, w.scriptName) {
		return true
	}
	return slideImagePattern.MatchString(base)
}
