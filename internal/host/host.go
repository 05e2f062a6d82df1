// Package host is the extension host: it keeps the set of loaded extensions
// and tells interested parties when that set changes.
//
// Extensions may be loaded and unloaded at any time, from any goroutine.
// Lookups and change listeners run on the host's event loop.
package host

import (
	"fmt"
	"sort"

	"github.com/renato0307/kubecontexts/internal/event"
	"github.com/renato0307/kubecontexts/internal/logging"
)

// Extension is a loaded extension and the value it exports to others.
type Extension struct {
	ID      string
	Exports any
}

// Host tracks loaded extensions.
type Host struct {
	post   func(func()) error
	logger *logging.Logger

	// owned by the event loop
	extensions  map[string]*Extension
	onDidChange event.Emitter
}

// New creates a host whose mutations are posted with post, usually
// loop.Loop.Post.
func New(post func(func()) error, logger *logging.Logger) *Host {
	return &Host{
		post:       post,
		logger:     logger.Component("host"),
		extensions: make(map[string]*Extension),
	}
}

// Load makes an extension available and fires OnDidChange. Loading an id
// that is already loaded replaces its exports.
func (h *Host) Load(id string, exports any) error {
	if id == "" {
		return fmt.Errorf("extension id must not be empty")
	}
	return h.post(func() {
		h.extensions[id] = &Extension{ID: id, Exports: exports}
		h.logger.Info("extension loaded", "extension", id)
		h.onDidChange.Fire()
	})
}

// Unload removes an extension and fires OnDidChange if it was loaded.
func (h *Host) Unload(id string) error {
	return h.post(func() {
		if _, ok := h.extensions[id]; !ok {
			return
		}
		delete(h.extensions, id)
		h.logger.Info("extension unloaded", "extension", id)
		h.onDidChange.Fire()
	})
}

// Extension returns the loaded extension with the given id.
// It must be called on the event loop.
func (h *Host) Extension(id string) (*Extension, bool) {
	ext, ok := h.extensions[id]
	return ext, ok
}

// Extensions returns the ids of loaded extensions, sorted.
// It must be called on the event loop.
func (h *Host) Extensions() []string {
	ids := make([]string, 0, len(h.extensions))
	for id := range h.extensions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OnDidChange registers a listener fired whenever the set of loaded
// extensions changes. It must be called on the event loop.
func (h *Host) OnDidChange(listener func()) event.Disposable {
	return h.onDidChange.On(listener)
}
