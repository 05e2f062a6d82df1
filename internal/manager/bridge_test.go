package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/kubecontexts/internal/dashboard"
	"github.com/renato0307/kubecontexts/internal/logging"
)

func newTestBridge() (*Bridge, *fakeLocator, *DashboardStates) {
	locator := newFakeLocator()
	states := NewDashboardStates()
	return NewBridge(locator, states, logging.Discard()), locator, states
}

func TestBridgeState_String(t *testing.T) {
	tests := []struct {
		state BridgeState
		want  string
	}{
		{BridgeIdle, "idle"},
		{BridgePending, "pending"},
		{BridgeBound, "bound"},
		{BridgeDisposed, "disposed"},
		{BridgeState(9), "BridgeState(9)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestBridge_StaysPendingWithoutCompanion(t *testing.T) {
	b, locator, states := newTestBridge()
	assert.Equal(t, BridgeIdle, b.State())

	b.Start()
	assert.Equal(t, BridgePending, b.State())

	locator.load("someone.else", nil)

	assert.Equal(t, BridgePending, b.State())
	assert.Equal(t, 1, locator.changed.Len(), "discovery listener stays registered")
	assert.Equal(t, dashboard.ContextsHealthsInfo{Healths: []dashboard.ContextHealth{}}, states.ContextsHealths())
}

func TestBridge_BindsAtMostOnce(t *testing.T) {
	b, locator, _ := newTestBridge()
	sub := &fakeSubscriber{}
	api := &fakeAPI{subscriber: sub}
	b.Start()

	for i := 0; i < 5; i++ {
		locator.load(dashboard.ExtensionID, api)
	}

	assert.Equal(t, BridgeBound, b.State())
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 4, sub.registrations)
	assert.Equal(t, 4, sub.listeners())
	assert.Equal(t, 0, locator.changed.Len(), "discovery listener released on bind")
}

func TestBridge_BindsImmediatelyWhenAlreadyLoaded(t *testing.T) {
	b, locator, _ := newTestBridge()
	api := &fakeAPI{subscriber: &fakeSubscriber{}}
	locator.load(dashboard.ExtensionID, api)

	b.Start()

	assert.Equal(t, BridgeBound, b.State())
	assert.Equal(t, 1, api.calls)
}

func TestBridge_ForwardsFeedsIntoStates(t *testing.T) {
	b, locator, states := newTestBridge()
	sub := &fakeSubscriber{}
	b.Start()
	locator.load(dashboard.ExtensionID, &fakeAPI{subscriber: sub})

	changes := 0
	states.OnContextsHealthChange(func() { changes++ })

	healths := dashboard.ContextsHealthsInfo{Healths: []dashboard.ContextHealth{
		{ContextName: "context1", Reachable: true},
	}}
	counts := dashboard.ResourcesCountInfo{Counts: []dashboard.ResourceCount{
		{ContextName: "context1", ResourceName: "pods", Count: 4},
	}}
	active := dashboard.ActiveResourcesCountInfo{Counts: []dashboard.ResourceCount{
		{ContextName: "context1", ResourceName: "pods", Count: 2},
	}}
	permissions := dashboard.ContextsPermissionsInfo{Permissions: []dashboard.ContextPermission{
		{ContextName: "context1", ResourceName: "pods", Permitted: true},
	}}
	sub.healths.Fire(healths)
	sub.counts.Fire(counts)
	sub.active.Fire(active)
	sub.permissions.Fire(permissions)

	assert.Equal(t, healths, states.ContextsHealths())
	assert.Equal(t, counts, states.ResourcesCount())
	assert.Equal(t, active, states.ActiveResourcesCount())
	assert.Equal(t, permissions, states.ContextsPermissions())
	assert.Equal(t, 1, changes)
}

func TestBridge_FactoryFailureKeepsPending(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
	}{
		{"factory returns an error", &fakeAPI{err: errFactory}},
		{"factory panics", &fakeAPI{panics: true}},
		{"factory returns nothing", &fakeAPI{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, locator, _ := newTestBridge()
			b.Start()

			assert.NotPanics(t, func() {
				locator.load(dashboard.ExtensionID, tt.api)
			})

			assert.Equal(t, BridgePending, b.State())
			assert.Equal(t, 1, locator.changed.Len())

			// the next discovery firing retries
			tt.api.err, tt.api.panics = nil, false
			tt.api.subscriber = &fakeSubscriber{}
			locator.changed.Fire()

			assert.Equal(t, BridgeBound, b.State())
			assert.Equal(t, 2, tt.api.calls)
		})
	}
}

func TestBridge_IgnoresUnexpectedExports(t *testing.T) {
	b, locator, _ := newTestBridge()
	b.Start()

	locator.load(dashboard.ExtensionID, "not an API")

	assert.Equal(t, BridgePending, b.State())
}

func TestBridge_RegistrationPanicSkipsOnlyThatFeed(t *testing.T) {
	b, locator, states := newTestBridge()
	sub := &fakeSubscriber{panicOnCounts: true}
	b.Start()

	assert.NotPanics(t, func() {
		locator.load(dashboard.ExtensionID, &fakeAPI{subscriber: sub})
	})

	assert.Equal(t, BridgeBound, b.State())
	assert.Equal(t, 4, sub.registrations)
	assert.Equal(t, 3, sub.listeners())

	healths := dashboard.ContextsHealthsInfo{Healths: []dashboard.ContextHealth{{ContextName: "x"}}}
	sub.healths.Fire(healths)
	assert.Equal(t, healths, states.ContextsHealths())
}

func TestBridge_StopBeforeBinding(t *testing.T) {
	b, locator, _ := newTestBridge()
	b.Start()
	require.Equal(t, 1, locator.changed.Len())

	assert.NotPanics(t, b.Stop)
	assert.NotPanics(t, b.Stop)

	assert.Equal(t, BridgeDisposed, b.State())
	assert.Equal(t, 0, locator.changed.Len())

	api := &fakeAPI{subscriber: &fakeSubscriber{}}
	locator.load(dashboard.ExtensionID, api)
	assert.Equal(t, 0, api.calls, "a disposed bridge never binds")
}

func TestBridge_DiscoveryDuringFactoryBindsOnce(t *testing.T) {
	b, locator, _ := newTestBridge()
	sub := &fakeSubscriber{}
	api := &fakeAPI{subscriber: sub}
	api.during = func() {
		if api.calls == 1 {
			locator.changed.Fire()
		}
	}
	b.Start()

	locator.load(dashboard.ExtensionID, api)

	assert.Equal(t, BridgeBound, b.State())
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 4, sub.registrations)
	assert.Equal(t, 0, locator.changed.Len())
}

func TestBridge_FailedFactoryRetriesAfterReentrantDiscovery(t *testing.T) {
	b, locator, _ := newTestBridge()
	api := &fakeAPI{err: errFactory}
	api.during = func() {
		if api.calls == 1 {
			locator.changed.Fire()
		}
	}
	b.Start()

	locator.load(dashboard.ExtensionID, api)
	require.Equal(t, BridgePending, b.State())
	require.Equal(t, 1, api.calls)

	api.err = nil
	api.subscriber = &fakeSubscriber{}
	locator.changed.Fire()

	assert.Equal(t, BridgeBound, b.State())
	assert.Equal(t, 2, api.calls)
}

func TestBridge_StopDuringFactoryReleasesSubscriber(t *testing.T) {
	b, locator, _ := newTestBridge()
	sub := &fakeSubscriber{}
	api := &fakeAPI{subscriber: sub}
	api.during = b.Stop
	b.Start()

	locator.load(dashboard.ExtensionID, api)

	assert.Equal(t, BridgeDisposed, b.State())
	assert.Equal(t, 1, sub.disposals)
	assert.Equal(t, 0, sub.registrations, "no feed listens after stop")
	assert.Equal(t, 0, locator.changed.Len())

	b.Stop()
	assert.Equal(t, 1, sub.disposals)
}

func TestBridge_StopAfterBindingReleasesInReverseOrder(t *testing.T) {
	b, locator, _ := newTestBridge()
	sub := &fakeSubscriber{}
	listenersAtDispose := -1
	sub.onDispose = func() { listenersAtDispose = sub.listeners() }
	b.Start()
	locator.load(dashboard.ExtensionID, &fakeAPI{subscriber: sub})

	b.Stop()
	b.Stop()

	assert.Equal(t, BridgeDisposed, b.State())
	assert.Equal(t, 1, sub.disposals, "subscriber released exactly once")
	assert.Equal(t, 0, listenersAtDispose, "feed listeners released before the subscriber")
	assert.Equal(t, 0, sub.listeners())
}

func TestBridge_StopWithoutStart(t *testing.T) {
	b, locator, _ := newTestBridge()

	assert.NotPanics(t, b.Stop)
	b.Start()

	assert.Equal(t, BridgeDisposed, b.State())
	assert.Equal(t, 0, locator.changed.Len())
}
