package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	authorizationv1 "k8s.io/api/authorization/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	utilnet "k8s.io/apimachinery/pkg/util/net"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/renato0307/kubecontexts/internal/logging"
	"github.com/renato0307/kubecontexts/internal/metrics"
)

// Monitor defaults
const (
	DefaultInterval    = 30 * time.Second
	DefaultTimeout     = 5 * time.Second
	DefaultConcurrency = 4
)

// ErrStopped is returned by GetSubscriber once the monitor has been stopped.
var ErrStopped = errors.New("dashboard monitor stopped")

// ConfigSource returns the kubeconfig to check. A missing kubeconfig is
// reported as an empty config, not an error.
type ConfigSource func() (*clientcmdapi.Config, error)

// ClientFactory builds a clientset for one context of config.
type ClientFactory func(config *clientcmdapi.Config, contextName string) (kubernetes.Interface, error)

// NewClientFactory returns a factory building real clientsets whose
// requests time out after timeout.
func NewClientFactory(timeout time.Duration) ClientFactory {
	return func(config *clientcmdapi.Config, contextName string) (kubernetes.Interface, error) {
		restConfig, err := clientcmd.NewNonInteractiveClientConfig(
			*config, contextName, &clientcmd.ConfigOverrides{}, nil,
		).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("error building client config for %s: %w", contextName, err)
		}
		restConfig.Timeout = timeout
		clientset, err := kubernetes.NewForConfig(restConfig)
		if err != nil {
			return nil, fmt.Errorf("error creating clientset for %s: %w", contextName, err)
		}
		return clientset, nil
	}
}

// Options configures a Monitor.
type Options struct {
	Interval    time.Duration
	Timeout     time.Duration
	Concurrency int
	Resources   []Resource
	Clients     ClientFactory
	// Schedule runs deliveries to subscribers. All subscriber registration
	// and delivery happen inside it.
	Schedule func(func())
}

// Monitor periodically checks every kubeconfig context and publishes the
// results to its subscribers. It implements API.
type Monitor struct {
	source ConfigSource
	opts   Options
	logger *logging.Logger

	// owned by Schedule
	subscribers []*subscriber
	stopped     bool
	latest      struct {
		healths     slot[ContextsHealthsInfo]
		counts      slot[ResourcesCountInfo]
		active      slot[ActiveResourcesCountInfo]
		permissions slot[ContextsPermissionsInfo]
	}
}

var _ API = (*Monitor)(nil)

// NewMonitor creates a monitor. Zero options fall back to defaults; a nil
// Schedule runs deliveries inline.
func NewMonitor(source ConfigSource, opts Options, logger *logging.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Resources == nil {
		opts.Resources = DefaultResources()
	}
	if opts.Clients == nil {
		opts.Clients = NewClientFactory(opts.Timeout)
	}
	if opts.Schedule == nil {
		opts.Schedule = func(f func()) { f() }
	}
	return &Monitor{
		source: source,
		opts:   opts,
		logger: logger.Component("dashboard"),
	}
}

// GetSubscriber returns a new subscriber. It must be called from Schedule.
func (m *Monitor) GetSubscriber() (Subscriber, error) {
	if m.stopped {
		return nil, ErrStopped
	}
	s := &subscriber{monitor: m}
	m.subscribers = append(m.subscribers, s)
	return s, nil
}

func (m *Monitor) removeSubscriber(s *subscriber) {
	for i, sub := range m.subscribers {
		if sub == s {
			m.subscribers = append(m.subscribers[:i:i], m.subscribers[i+1:]...)
			return
		}
	}
}

// Run checks immediately, then every Interval, until ctx is cancelled.
// Subscribers are disposed when it returns.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()
	defer m.opts.Schedule(m.stop)

	for {
		m.CheckNow(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) stop() {
	m.stopped = true
	for _, s := range append([]*subscriber(nil), m.subscribers...) {
		s.Dispose()
	}
}

// contextResult is the outcome of checking one context.
type contextResult struct {
	health      ContextHealth
	counts      []ResourceCount
	active      []ResourceCount
	permissions []ContextPermission
}

// CheckNow runs one check round over every context and publishes the result.
func (m *Monitor) CheckNow(ctx context.Context) {
	config, err := m.source()
	if err != nil {
		m.logger.Warn("cannot read kubeconfig", "error", err)
		return
	}
	if config == nil {
		config = clientcmdapi.NewConfig()
	}

	names := make([]string, 0, len(config.Contexts))
	for name := range config.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)

	m.publishChecking(names)

	tc := m.logger.Start("dashboard check round")
	results := make([]contextResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)
	for i, name := range names {
		g.Go(func() error {
			results[i] = m.checkContext(gctx, config, name)
			return nil
		})
	}
	_ = g.Wait()
	metrics.CheckDuration.Observe(tc.EndWithCount(len(names)).Seconds())

	if ctx.Err() != nil {
		return
	}
	m.publish(results)
}

func (m *Monitor) publishChecking(names []string) {
	m.opts.Schedule(func() {
		previous := map[string]ContextHealth{}
		if v, ok := m.latest.healths.get(); ok {
			for _, h := range v.Healths {
				previous[h.ContextName] = h
			}
		}
		info := ContextsHealthsInfo{Healths: make([]ContextHealth, 0, len(names))}
		for _, name := range names {
			h := previous[name]
			h.ContextName = name
			h.Checking = true
			info.Healths = append(info.Healths, h)
		}
		m.latest.healths.put(info)
		for _, s := range m.subscribers {
			s.healths.Fire(info)
		}
	})
}

func (m *Monitor) publish(results []contextResult) {
	healths := ContextsHealthsInfo{Healths: make([]ContextHealth, 0, len(results))}
	counts := ResourcesCountInfo{Counts: []ResourceCount{}}
	active := ActiveResourcesCountInfo{Counts: []ResourceCount{}}
	permissions := ContextsPermissionsInfo{Permissions: []ContextPermission{}}
	reachable := 0
	for _, r := range results {
		if r.health.Reachable {
			reachable++
		}
		healths.Healths = append(healths.Healths, r.health)
		counts.Counts = append(counts.Counts, r.counts...)
		active.Counts = append(active.Counts, r.active...)
		permissions.Permissions = append(permissions.Permissions, r.permissions...)
	}
	metrics.ContextsReachable.Set(float64(reachable))

	m.opts.Schedule(func() {
		m.latest.healths.put(healths)
		m.latest.counts.put(counts)
		m.latest.active.put(active)
		m.latest.permissions.put(permissions)
		for _, s := range append([]*subscriber(nil), m.subscribers...) {
			s.healths.Fire(healths)
			s.counts.Fire(counts)
			s.active.Fire(active)
			s.permissions.Fire(permissions)
		}
	})
}

func (m *Monitor) checkContext(ctx context.Context, config *clientcmdapi.Config, name string) contextResult {
	result := contextResult{health: ContextHealth{ContextName: name}}
	logger := m.logger.With("context", name)

	client, err := m.opts.Clients(config, name)
	if err != nil {
		logger.Debug("cannot build client", "error", err)
		result.health.Error = err.Error()
		return result
	}

	if _, err := client.Discovery().ServerVersion(); err != nil {
		logger.Debug("context unreachable", "error", err)
		result.health.Offline = isOffline(err)
		result.health.Error = err.Error()
		return result
	}
	result.health.Reachable = true

	for _, res := range m.opts.Resources {
		cctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
		perm := m.checkPermission(cctx, client, name, res)
		result.permissions = append(result.permissions, perm)
		if perm.Permitted {
			total, activeCount, err := res.Count(cctx, client)
			switch {
			case err != nil:
				logger.Debug("cannot count resources", "resource", res.Name, "error", err)
			default:
				result.counts = append(result.counts, ResourceCount{ContextName: name, ResourceName: res.Name, Count: total})
				if activeCount >= 0 {
					result.active = append(result.active, ResourceCount{ContextName: name, ResourceName: res.Name, Count: activeCount})
				}
			}
		}
		cancel()
	}
	return result
}

// checkPermission asks the API server whether the context user can list and
// watch res in all namespaces.
func (m *Monitor) checkPermission(ctx context.Context, client kubernetes.Interface, contextName string, res Resource) ContextPermission {
	perm := ContextPermission{ContextName: contextName, ResourceName: res.Name, Permitted: true}
	for _, verb := range []string{"list", "watch"} {
		review := &authorizationv1.SelfSubjectAccessReview{
			Spec: authorizationv1.SelfSubjectAccessReviewSpec{
				ResourceAttributes: &authorizationv1.ResourceAttributes{
					Verb:     verb,
					Group:    res.Group,
					Resource: res.Name,
				},
			},
		}
		resp, err := client.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
		if err != nil {
			perm.Permitted = false
			perm.Reason = reviewError(err)
			return perm
		}
		if !resp.Status.Allowed {
			perm.Permitted = false
			perm.Reason = resp.Status.Reason
			return perm
		}
	}
	return perm
}

func reviewError(err error) string {
	if apierrors.IsForbidden(err) {
		return "access review forbidden"
	}
	return err.Error()
}

// isOffline tells a network-level failure (nothing answered) from an API
// server that answered with an error.
func isOffline(err error) bool {
	if utilnet.IsConnectionRefused(err) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
