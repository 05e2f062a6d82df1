// Package event provides the payload-less multicast notification used to
// signal that a piece of state changed. Listeners pull the new value from the
// owner instead of receiving it, so they never act on a stale snapshot.
package event

// Disposable releases a registration.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a function to Disposable.
type DisposableFunc func()

// Dispose calls f.
func (f DisposableFunc) Dispose() {
	if f != nil {
		f()
	}
}

// Event registers a listener and returns the handle that removes it.
type Event func(listener func()) Disposable

type entry struct {
	fn func()
}

// Emitter is a synchronous, ordered multicast notification.
// It is not safe for concurrent use; owners call it from the event loop.
type Emitter struct {
	listeners []*entry
}

// Event returns the registration side of the emitter.
func (e *Emitter) Event() Event {
	return e.On
}

// On registers listener. Listeners run in registration order.
func (e *Emitter) On(listener func()) Disposable {
	en := &entry{fn: listener}
	e.listeners = append(e.listeners, en)
	return DisposableFunc(func() {
		for i, l := range e.listeners {
			if l == en {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				break
			}
		}
		en.fn = nil
	})
}

// Fire invokes every registered listener. A listener disposed by an earlier
// listener during the same Fire is skipped; one added during Fire is not run.
func (e *Emitter) Fire() {
	snapshot := make([]*entry, len(e.listeners))
	copy(snapshot, e.listeners)
	for _, en := range snapshot {
		if fn := en.fn; fn != nil {
			fn()
		}
	}
}

// Len returns the number of registered listeners.
func (e *Emitter) Len() int {
	return len(e.listeners)
}

// Stack collects disposables and releases them in reverse order of
// acquisition. The zero value is ready to use.
type Stack struct {
	items []Disposable
}

// Push adds d to the stack.
func (s *Stack) Push(d Disposable) {
	if d != nil {
		s.items = append(s.items, d)
	}
}

// Dispose releases every collected item, last in first out, and empties the
// stack. Calling it again is a no-op.
func (s *Stack) Dispose() {
	for i := len(s.items) - 1; i >= 0; i-- {
		s.items[i].Dispose()
	}
	s.items = nil
}

// Len returns the number of items not yet released.
func (s *Stack) Len() int {
	return len(s.items)
}

// Once wraps d so that only the first Dispose reaches it.
func Once(d Disposable) Disposable {
	done := false
	return DisposableFunc(func() {
		if done || d == nil {
			return
		}
		done = true
		d.Dispose()
	})
}

type typedEntry[T any] struct {
	fn func(T)
}

// Typed is an Emitter whose listeners receive a value. Same ordering and
// concurrency rules as Emitter.
type Typed[T any] struct {
	listeners []*typedEntry[T]
}

// On registers listener.
func (e *Typed[T]) On(listener func(T)) Disposable {
	en := &typedEntry[T]{fn: listener}
	e.listeners = append(e.listeners, en)
	return DisposableFunc(func() {
		for i, l := range e.listeners {
			if l == en {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				break
			}
		}
		en.fn = nil
	})
}

// Fire invokes every registered listener with v.
func (e *Typed[T]) Fire(v T) {
	snapshot := make([]*typedEntry[T], len(e.listeners))
	copy(snapshot, e.listeners)
	for _, en := range snapshot {
		if fn := en.fn; fn != nil {
			fn(v)
		}
	}
}

// Clear removes every listener.
func (e *Typed[T]) Clear() {
	for _, en := range e.listeners {
		en.fn = nil
	}
	e.listeners = nil
}

// Len returns the number of registered listeners.
func (e *Typed[T]) Len() int {
	return len(e.listeners)
}
