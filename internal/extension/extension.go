// Package extension activates kubecontexts: it assembles the event loop,
// the extension host, the manager and the rpc server, feeds the kubeconfig
// into the manager and, when enabled, loads the dashboard companion.
package extension

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/renato0307/kubecontexts/internal/config"
	"github.com/renato0307/kubecontexts/internal/dashboard"
	"github.com/renato0307/kubecontexts/internal/event"
	"github.com/renato0307/kubecontexts/internal/host"
	"github.com/renato0307/kubecontexts/internal/k8s"
	"github.com/renato0307/kubecontexts/internal/logging"
	"github.com/renato0307/kubecontexts/internal/loop"
	"github.com/renato0307/kubecontexts/internal/manager"
	"github.com/renato0307/kubecontexts/internal/rpc"
)

const deactivateTimeout = 5 * time.Second

// Extension is one running instance of kubecontexts.
type Extension struct {
	cfg    *config.Config
	logger *logging.Logger

	loop    *loop.Loop
	host    *host.Host
	server  *rpc.Server
	manager *manager.Manager

	ready chan struct{}

	// serializes kubeconfig edits
	editMu sync.Mutex

	// owned by the loop
	disposables event.Stack
}

// New assembles an extension. Nothing runs until Run.
func New(cfg *config.Config, logger *logging.Logger) (*Extension, error) {
	e := &Extension{
		cfg:    cfg,
		logger: logger.Component("extension"),
		ready:  make(chan struct{}),
	}
	e.loop = loop.New(loop.DefaultQueueSize, func(r any) {
		e.logger.Error("event loop task panicked", "panic", r)
	})
	e.host = host.New(e.loop.Post, logger)
	e.server = rpc.NewServer(rpc.ServerConfig{
		Address: cfg.Server.Address,
		Connection: rpc.ConnectionConfig{
			ReadTimeout:       cfg.Server.ReadTimeout,
			MessagesPerSecond: cfg.Server.MessagesPerSecond,
		},
	}, logger)

	m, err := manager.New(e.host, e.server, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating manager: %w", err)
	}
	e.manager = m

	e.server.OnRequest(e.handleRequest)
	e.server.OnDisconnect(e.handleDisconnect)
	return e, nil
}

// Host returns the extension host, for loading further extensions.
func (e *Extension) Host() *host.Host {
	return e.host
}

// Loop returns the event loop that owns the manager.
func (e *Extension) Loop() *loop.Loop {
	return e.loop
}

// Manager returns the manager. Use it only from loop tasks.
func (e *Extension) Manager() *manager.Manager {
	return e.manager
}

// Ready is closed once activation is complete and the server accepts
// connections.
func (e *Extension) Ready() <-chan struct{} {
	return e.ready
}

// Run activates the extension, serves frontends on l until ctx is cancelled
// and then deactivates. A nil l listens on the configured address.
func (e *Extension) Run(ctx context.Context, l net.Listener) error {
	if l == nil {
		var err error
		l, err = net.Listen("tcp", e.cfg.Server.Address)
		if err != nil {
			return fmt.Errorf("error listening on %s: %w", e.cfg.Server.Address, err)
		}
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer func() {
		stopLoop()
		<-e.loop.Done()
	}()
	go e.loop.Run(loopCtx)

	if err := e.loop.Call(ctx, e.activate); err != nil {
		_ = l.Close()
		return fmt.Errorf("error activating: %w", err)
	}
	if k8s.KubeconfigExists(e.cfg.Kubeconfig) {
		e.loadKubeconfig()
	} else {
		e.logger.Info("no kubeconfig found", "path", e.cfg.Kubeconfig)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.server.Serve(gctx, l)
	})
	if watcher := e.newWatcher(); watcher != nil {
		g.Go(func() error {
			watcher.Run(gctx, e.loadKubeconfig)
			return nil
		})
	}
	if e.cfg.Dashboard.Enabled {
		g.Go(func() error {
			e.runDashboard(gctx)
			return nil
		})
	}
	close(e.ready)
	e.logger.Info("extension activated", "address", l.Addr().String())

	err := g.Wait()

	dctx, cancel := context.WithTimeout(context.Background(), deactivateTimeout)
	defer cancel()
	if derr := e.loop.Call(dctx, e.deactivate); derr != nil {
		e.logger.Warn("deactivation did not complete", "error", derr)
	}
	e.logger.Info("extension deactivated")
	return err
}

// activate runs on the loop.
func (e *Extension) activate() {
	e.manager.Start()
	e.disposables.Push(event.DisposableFunc(e.manager.Dispose))
	e.disposables.Push(e.manager.Contexts().OnCurrentContextChange(func() {
		e.logger.Info("current context changed", "context", e.manager.Contexts().CurrentContext())
	}))
}

// deactivate runs on the loop and releases everything activate acquired,
// last first.
func (e *Extension) deactivate() {
	e.disposables.Dispose()
}

// loadKubeconfig reads the kubeconfig on the calling goroutine and hands
// it to the contexts manager on the loop. A file that cannot be parsed
// leaves the previous graph in place.
func (e *Extension) loadKubeconfig() {
	var (
		config *clientcmdapi.Config
		err    error
	)
	e.logger.Time("kubeconfig read", func() {
		config, err = readKubeconfig(e.cfg.Kubeconfig)
	})
	if err != nil {
		e.logger.Warn("cannot read kubeconfig", "path", e.cfg.Kubeconfig, "error", err)
		return
	}
	err = e.loop.Post(func() {
		e.manager.Contexts().Update(config)
		e.logger.Debug("kubeconfig loaded", "path", e.cfg.Kubeconfig, "contexts", len(config.Contexts))
	})
	if err != nil {
		e.logger.Debug("dropping kubeconfig update", "error", err)
	}
}

// readKubeconfig treats a missing file as an empty kubeconfig.
func readKubeconfig(path string) (*clientcmdapi.Config, error) {
	config, err := k8s.LoadKubeconfig(path)
	if k8s.IsNotExist(err) {
		return clientcmdapi.NewConfig(), nil
	}
	return config, err
}

func (e *Extension) newWatcher() *k8s.Watcher {
	w, err := k8s.NewWatcher(e.cfg.Kubeconfig, k8s.KubeconfigDebounce, e.logger)
	if err != nil {
		e.logger.Warn("kubeconfig changes will not be picked up", "error", err)
		return nil
	}
	return w
}

// runDashboard loads the companion after the configured delay and runs its
// checks until ctx is cancelled.
func (e *Extension) runDashboard(ctx context.Context) {
	if d := e.cfg.Dashboard.ActivationDelay; d > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(d):
		}
	}

	path := e.cfg.Kubeconfig
	monitor := dashboard.NewMonitor(func() (*clientcmdapi.Config, error) {
		return readKubeconfig(path)
	}, dashboard.Options{
		Interval:    e.cfg.Dashboard.Interval,
		Timeout:     e.cfg.Dashboard.Timeout,
		Concurrency: e.cfg.Dashboard.Concurrency,
		Schedule:    e.loop.Scheduler(),
	}, e.logger)

	if err := e.host.Load(dashboard.ExtensionID, monitor); err != nil {
		e.logger.Warn("cannot load dashboard extension", "error", err)
		return
	}
	monitor.Run(ctx)
	_ = e.host.Unload(dashboard.ExtensionID)
}

func (e *Extension) handleRequest(id string, req rpc.Request) {
	if req.Type == rpc.TypeEditContext {
		e.editContext(id, req)
		return
	}
	err := e.loop.Post(func() {
		registry := e.manager.Registry()
		switch req.Type {
		case rpc.TypeSubscribe:
			if _, ok := registry.Builder(req.Channel); !ok {
				e.logger.Warn("subscribe to unknown channel", "channel", req.Channel, "subscriber", id)
			}
			registry.Subscribe(req.Channel, id)
		case rpc.TypeUnsubscribe:
			registry.Unsubscribe(req.Channel, id)
		}
	})
	if err != nil {
		e.logger.Debug("dropping request", "subscriber", id, "error", err)
	}
}

// editContext rewrites the kubeconfig on the calling goroutine. The
// kubeconfig watcher picks the change up and dispatches the new contexts.
func (e *Extension) editContext(id string, req rpc.Request) {
	edited := k8s.Context{
		Name:      req.Context.Name,
		Cluster:   req.Context.Cluster,
		User:      req.Context.User,
		Namespace: req.Context.Namespace,
	}
	e.editMu.Lock()
	defer e.editMu.Unlock()
	if err := k8s.EditContext(e.cfg.Kubeconfig, req.OldName, edited); err != nil {
		e.logger.Warn("cannot edit context", "subscriber", id, "context", req.OldName, "error", err)
		return
	}
	e.logger.Info("context edited", "subscriber", id, "context", req.OldName, "name", edited.Name)
}

func (e *Extension) handleDisconnect(id string) {
	err := e.loop.Post(func() {
		if left := e.manager.Registry().UnsubscribeAll(id); len(left) > 0 {
			e.logger.Debug("subscriber left", "subscriber", id, "channels", left)
		}
	})
	if err != nil {
		e.logger.Debug("dropping disconnect", "subscriber", id, "error", err)
	}
}
