// Package manager keeps the dashboard state of the extension and pushes it
// to the frontend channels that are being watched.
//
// Everything in this package runs on the extension's event loop and holds
// no locks.
package manager

import (
	"fmt"

	"github.com/renato0307/kubecontexts/internal/channels"
	"github.com/renato0307/kubecontexts/internal/event"
	"github.com/renato0307/kubecontexts/internal/k8s"
	"github.com/renato0307/kubecontexts/internal/logging"
)

// Manager owns the contexts manager, the dashboard states, the channel
// registry, the companion bridge and the dispatcher tying them together.
type Manager struct {
	contexts   *k8s.ContextsManager
	states     *DashboardStates
	registry   *Registry
	bridge     *Bridge
	dispatcher *Dispatcher
	logger     *logging.Logger

	started  bool
	disposed bool
}

// New assembles a manager. Every channel gets its builder and its source
// wiring here; a duplicate channel name is returned as *DuplicateChannelError.
func New(locator ExtensionLocator, publisher Publisher, logger *logging.Logger) (*Manager, error) {
	m := &Manager{
		contexts: k8s.NewContextsManager(),
		states:   NewDashboardStates(),
		registry: NewRegistry(),
		logger:   logger.Component("manager"),
	}
	m.bridge = NewBridge(locator, m.states, logger)
	m.dispatcher = NewDispatcher(m.registry, publisher, logger)

	wiring := []struct {
		builder Builder
		source  event.Event
	}{
		{AvailableContextsBuilder(m.contexts), m.contexts.OnContextsChange},
		{ContextHealthsBuilder(m.states), m.states.OnContextsHealthChange},
		{ResourcesCountBuilder(m.states), m.states.OnResourcesCountChange},
		{ActiveResourcesCountBuilder(m.states), m.states.OnActiveResourcesCountChange},
		{ContextsPermissionsBuilder(m.states), m.states.OnContextsPermissionsChange},
	}
	for _, w := range wiring {
		if err := m.registry.Register(w.builder); err != nil {
			m.dispatcher.Close()
			return nil, fmt.Errorf("error registering channel: %w", err)
		}
		m.dispatcher.Watch(w.builder.Channel(), w.source)
	}
	for _, channel := range channels.All() {
		if _, ok := m.registry.Builder(channel); !ok {
			m.logger.Warn("channel has no payload builder", "channel", channel)
		}
	}
	return m, nil
}

// Start enables dispatch on subscribe and starts looking for the companion
// extension.
func (m *Manager) Start() {
	if m.started || m.disposed {
		return
	}
	m.started = true
	m.dispatcher.Init()
	m.bridge.Start()
}

// Dispose tears down the bridge, then the dispatcher wiring. It may be
// called more than once.
func (m *Manager) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	m.bridge.Stop()
	m.dispatcher.Close()
}

func (m *Manager) Contexts() *k8s.ContextsManager { return m.contexts }
func (m *Manager) States() *DashboardStates       { return m.states }
func (m *Manager) Registry() *Registry            { return m.registry }
func (m *Manager) Bridge() *Bridge                { return m.bridge }
func (m *Manager) Dispatcher() *Dispatcher        { return m.dispatcher }
