package k8s

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/renato0307/kubecontexts/internal/logging"
)

// KubeconfigDebounce groups the burst of events editors and kubectl produce
// when rewriting a kubeconfig into a single notification.
const KubeconfigDebounce = 100 * time.Millisecond

// Watcher notifies when the kubeconfig file is created, written, replaced or removed.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
}

// NewWatcher watches the directory holding path. The directory must exist;
// the file itself may not exist yet.
func NewWatcher(path string, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = KubeconfigDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create kubeconfig watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to resolve kubeconfig path: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		watcher:  fw,
		logger:   logger.Component("kubeconfig-watcher"),
	}, nil
}

// Run calls onChange after each burst of events touching the kubeconfig file,
// until ctx is cancelled. onChange runs on the watcher goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func()) {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			w.logger.Debug("kubeconfig event", "op", ev.Op.String())
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("kubeconfig watch error", "error", err)
		case <-timer.C:
			pending = false
			onChange()
		}
	}
}

// Path returns the absolute kubeconfig path being watched.
func (w *Watcher) Path() string {
	return w.path
}
