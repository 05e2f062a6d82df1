package dashboard

import "github.com/renato0307/kubecontexts/internal/event"

// subscriber is the Subscriber handed out by Monitor.GetSubscriber.
type subscriber struct {
	monitor  *Monitor
	disposed bool

	healths     event.Typed[ContextsHealthsInfo]
	counts      event.Typed[ResourcesCountInfo]
	active      event.Typed[ActiveResourcesCountInfo]
	permissions event.Typed[ContextsPermissionsInfo]
}

// register adds cb to f and replays the latest published value, if any.
func register[T any](s *subscriber, f *event.Typed[T], latest *slot[T], cb func(T)) event.Disposable {
	if s.disposed {
		return event.DisposableFunc(nil)
	}
	d := f.On(cb)
	if v, ok := latest.get(); ok {
		cb(v)
	}
	return d
}

func (s *subscriber) OnContextsHealth(cb func(ContextsHealthsInfo)) event.Disposable {
	return register(s, &s.healths, &s.monitor.latest.healths, cb)
}

func (s *subscriber) OnResourcesCount(cb func(ResourcesCountInfo)) event.Disposable {
	return register(s, &s.counts, &s.monitor.latest.counts, cb)
}

func (s *subscriber) OnActiveResourcesCount(cb func(ActiveResourcesCountInfo)) event.Disposable {
	return register(s, &s.active, &s.monitor.latest.active, cb)
}

func (s *subscriber) OnContextsPermissions(cb func(ContextsPermissionsInfo)) event.Disposable {
	return register(s, &s.permissions, &s.monitor.latest.permissions, cb)
}

// Dispose drops every registration and detaches from the monitor.
func (s *subscriber) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.healths.Clear()
	s.counts.Clear()
	s.active.Clear()
	s.permissions.Clear()
	s.monitor.removeSubscriber(s)
}

// slot remembers whether a value was ever published.
type slot[T any] struct {
	value T
	set   bool
}

func (s *slot[T]) put(v T) {
	s.value, s.set = v, true
}

func (s *slot[T]) get() (T, bool) {
	return s.value, s.set
}
