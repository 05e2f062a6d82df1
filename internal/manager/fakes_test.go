package manager

import (
	"errors"

	"github.com/renato0307/kubecontexts/internal/dashboard"
	"github.com/renato0307/kubecontexts/internal/event"
	"github.com/renato0307/kubecontexts/internal/host"
	"github.com/renato0307/kubecontexts/internal/logging"
)

func inline(task func()) error {
	task()
	return nil
}

func newHost() *host.Host {
	return host.New(inline, logging.Discard())
}

// fakeSubscriber is a companion subscriber driven by the test.
type fakeSubscriber struct {
	healths     event.Typed[dashboard.ContextsHealthsInfo]
	counts      event.Typed[dashboard.ResourcesCountInfo]
	active      event.Typed[dashboard.ActiveResourcesCountInfo]
	permissions event.Typed[dashboard.ContextsPermissionsInfo]

	registrations int
	disposals     int
	panicOnCounts bool
	onDispose     func()
}

func (s *fakeSubscriber) OnContextsHealth(cb func(dashboard.ContextsHealthsInfo)) event.Disposable {
	s.registrations++
	return s.healths.On(cb)
}

func (s *fakeSubscriber) OnResourcesCount(cb func(dashboard.ResourcesCountInfo)) event.Disposable {
	s.registrations++
	if s.panicOnCounts {
		panic("counts feed broken")
	}
	return s.counts.On(cb)
}

func (s *fakeSubscriber) OnActiveResourcesCount(cb func(dashboard.ActiveResourcesCountInfo)) event.Disposable {
	s.registrations++
	return s.active.On(cb)
}

func (s *fakeSubscriber) OnContextsPermissions(cb func(dashboard.ContextsPermissionsInfo)) event.Disposable {
	s.registrations++
	return s.permissions.On(cb)
}

func (s *fakeSubscriber) Dispose() {
	s.disposals++
	if s.onDispose != nil {
		s.onDispose()
	}
}

func (s *fakeSubscriber) listeners() int {
	return s.healths.Len() + s.counts.Len() + s.active.Len() + s.permissions.Len()
}

// fakeAPI is the export of a fake companion extension.
type fakeAPI struct {
	subscriber *fakeSubscriber
	err        error
	panics     bool
	calls      int
	during     func()
}

func (a *fakeAPI) GetSubscriber() (dashboard.Subscriber, error) {
	a.calls++
	if a.during != nil {
		a.during()
	}
	if a.panics {
		panic("factory exploded")
	}
	if a.err != nil {
		return nil, a.err
	}
	if a.subscriber == nil {
		return nil, nil
	}
	return a.subscriber, nil
}

var errFactory = errors.New("factory failed")

type sent struct {
	channel     string
	subscribers []string
	payload     any
}

// recordingPublisher remembers every payload fired.
type recordingPublisher struct {
	sent []sent
	err  error
}

func (p *recordingPublisher) Fire(channel string, subscribers []string, payload any) error {
	p.sent = append(p.sent, sent{channel: channel, subscribers: subscribers, payload: payload})
	return p.err
}

func (p *recordingPublisher) on(channel string) []sent {
	var out []sent
	for _, s := range p.sent {
		if s.channel == channel {
			out = append(out, s)
		}
	}
	return out
}

// fakeLocator is an extension host whose change event the test fires.
type fakeLocator struct {
	extensions map[string]*host.Extension
	changed    event.Emitter
}

func newFakeLocator() *fakeLocator {
	return &fakeLocator{extensions: make(map[string]*host.Extension)}
}

func (l *fakeLocator) Extension(id string) (*host.Extension, bool) {
	ext, ok := l.extensions[id]
	return ext, ok
}

func (l *fakeLocator) OnDidChange(listener func()) event.Disposable {
	return l.changed.On(listener)
}

func (l *fakeLocator) load(id string, exports any) {
	l.extensions[id] = &host.Extension{ID: id, Exports: exports}
	l.changed.Fire()
}
