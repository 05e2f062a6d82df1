package k8s

import (
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/renato0307/kubecontexts/internal/event"
)

// ContextsManager holds the current kubeconfig and notifies when it changes.
// It is not safe for concurrent use; callers run it on the event loop.
type ContextsManager struct {
	config *clientcmdapi.Config
	graph  Graph

	onContextsChange       event.Emitter
	onCurrentContextChange event.Emitter
}

// NewContextsManager creates a manager holding an empty kubeconfig.
func NewContextsManager() *ContextsManager {
	return &ContextsManager{
		config: clientcmdapi.NewConfig(),
	}
}

// Update replaces the kubeconfig, then fires OnContextsChange, and
// OnCurrentContextChange when the current context name differs.
func (m *ContextsManager) Update(config *clientcmdapi.Config) {
	if config == nil {
		config = clientcmdapi.NewConfig()
	}
	previous := m.graph.CurrentContext

	m.config = config
	m.graph = GraphFromConfig(config)

	m.onContextsChange.Fire()
	if m.graph.CurrentContext != previous {
		m.onCurrentContextChange.Fire()
	}
}

// Kubeconfig returns the last kubeconfig passed to Update.
func (m *ContextsManager) Kubeconfig() *clientcmdapi.Config {
	return m.config
}

// Graph returns the connection graph of the current kubeconfig.
func (m *ContextsManager) Graph() Graph {
	return m.graph
}

// CurrentContext returns the current context name.
func (m *ContextsManager) CurrentContext() string {
	return m.graph.CurrentContext
}

// OnContextsChange registers a listener fired after every Update.
func (m *ContextsManager) OnContextsChange(listener func()) event.Disposable {
	return m.onContextsChange.On(listener)
}

// OnCurrentContextChange registers a listener fired when the current context changes.
func (m *ContextsManager) OnCurrentContextChange(listener func()) event.Disposable {
	return m.onCurrentContextChange.On(listener)
}
