package manager

import (
	"fmt"

	"github.com/renato0307/kubecontexts/internal/dashboard"
	"github.com/renato0307/kubecontexts/internal/event"
	"github.com/renato0307/kubecontexts/internal/host"
	"github.com/renato0307/kubecontexts/internal/logging"
)

// BridgeState is the lifecycle of a Bridge.
type BridgeState int

const (
	BridgeIdle BridgeState = iota
	BridgePending
	BridgeBound
	BridgeDisposed
)

func (s BridgeState) String() string {
	switch s {
	case BridgeIdle:
		return "idle"
	case BridgePending:
		return "pending"
	case BridgeBound:
		return "bound"
	case BridgeDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("BridgeState(%d)", int(s))
	}
}

// ExtensionLocator finds loaded extensions. *host.Host implements it.
type ExtensionLocator interface {
	Extension(id string) (*host.Extension, bool)
	OnDidChange(listener func()) event.Disposable
}

// Bridge binds to the dashboard companion extension once it shows up and
// forwards its feeds into DashboardStates.
//
// Idle -> Pending happens in Start, Pending -> Bound at most once, and any
// state -> Disposed in Stop. Everything acquired is released in reverse
// order. It runs on the event loop.
type Bridge struct {
	locator ExtensionLocator
	states  *DashboardStates
	logger  *logging.Logger

	state       BridgeState
	binding     bool
	discovery   event.Disposable
	disposables event.Stack
}

// NewBridge creates an idle bridge.
func NewBridge(locator ExtensionLocator, states *DashboardStates, logger *logging.Logger) *Bridge {
	return &Bridge{
		locator: locator,
		states:  states,
		logger:  logger.Component("bridge"),
	}
}

// State returns the current lifecycle state.
func (b *Bridge) State() BridgeState {
	return b.state
}

// Start listens for extension changes and probes for the companion right
// away. Only the first call on an idle bridge has an effect.
func (b *Bridge) Start() {
	if b.state != BridgeIdle {
		return
	}
	b.state = BridgePending
	b.discovery = event.Once(b.locator.OnDidChange(b.probe))
	b.disposables.Push(b.discovery)
	b.probe()
}

// Stop releases the discovery listener or the bound subscriber and its
// listeners. Further calls do nothing.
func (b *Bridge) Stop() {
	if b.state == BridgeDisposed {
		return
	}
	previous := b.state
	b.state = BridgeDisposed
	b.disposables.Dispose()
	b.logger.Debug("bridge disposed", "from", previous.String())
}

func (b *Bridge) probe() {
	// The factory may fire discovery or call Stop before it returns.
	if b.state != BridgePending || b.binding {
		return
	}
	ext, ok := b.locator.Extension(dashboard.ExtensionID)
	if !ok || ext == nil {
		b.logger.Debug("companion extension not loaded", "extension", dashboard.ExtensionID)
		return
	}
	api, ok := ext.Exports.(dashboard.API)
	if !ok {
		b.logger.Warn("companion extension exports no subscriber factory", "extension", dashboard.ExtensionID)
		return
	}

	b.binding = true
	sub, err := acquire(api)
	b.binding = false

	if b.state == BridgeDisposed {
		if sub != nil {
			sub.Dispose()
		}
		b.logger.Debug("bridge stopped while binding", "extension", dashboard.ExtensionID)
		return
	}
	if err != nil {
		b.logger.Error("cannot get companion subscriber", "extension", dashboard.ExtensionID, "error", err)
		return
	}

	b.state = BridgeBound
	b.discovery.Dispose()
	b.disposables.Push(sub)
	b.attach(sub)
	b.logger.Info("bound to companion extension", "extension", dashboard.ExtensionID)
}

// acquire calls the companion factory, turning a panic into an error.
func acquire(api dashboard.API) (sub dashboard.Subscriber, err error) {
	defer func() {
		if r := recover(); r != nil {
			sub, err = nil, fmt.Errorf("subscriber factory panicked: %v", r)
		}
	}()
	sub, err = api.GetSubscriber()
	if err == nil && sub == nil {
		err = fmt.Errorf("subscriber factory returned nothing")
	}
	return sub, err
}

func (b *Bridge) attach(sub dashboard.Subscriber) {
	feeds := []struct {
		name     string
		register func() event.Disposable
	}{
		{"contexts health", func() event.Disposable { return sub.OnContextsHealth(b.states.SetContextsHealths) }},
		{"resources count", func() event.Disposable { return sub.OnResourcesCount(b.states.SetResourcesCount) }},
		{"active resources count", func() event.Disposable {
			return sub.OnActiveResourcesCount(b.states.SetActiveResourcesCount)
		}},
		{"contexts permissions", func() event.Disposable {
			return sub.OnContextsPermissions(b.states.SetContextsPermissions)
		}},
	}
	for _, feed := range feeds {
		d, err := register(feed.register)
		if err != nil {
			b.logger.Error("cannot listen to companion feed", "feed", feed.name, "error", err)
			continue
		}
		b.disposables.Push(d)
	}
}

func register(f func() event.Disposable) (d event.Disposable, err error) {
	defer func() {
		if r := recover(); r != nil {
			d, err = nil, fmt.Errorf("registration panicked: %v", r)
		}
	}()
	return f(), nil
}
