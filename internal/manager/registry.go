package manager

import (
	"errors"
	"fmt"
	"sort"

	"github.com/renato0307/kubecontexts/internal/event"
)

// Builder materializes the current payload of one channel.
type Builder interface {
	Channel() string
	Build() any
}

type builderFunc struct {
	channel string
	build   func() any
}

func (b builderFunc) Channel() string { return b.channel }
func (b builderFunc) Build() any      { return b.build() }

// NewBuilder returns a Builder for channel backed by build.
func NewBuilder(channel string, build func() any) Builder {
	return builderFunc{channel: channel, build: build}
}

// DuplicateChannelError is returned when a second builder is registered for
// a channel.
type DuplicateChannelError struct {
	Channel string
}

func (e *DuplicateChannelError) Error() string {
	return fmt.Sprintf("channel %q already has a payload builder", e.Channel)
}

// Registry maps channels to their payload builder and to the ids of the
// subscribers currently listening. It runs on the event loop.
type Registry struct {
	builders    map[string]Builder
	subscribers map[string]map[string]struct{}
	onSubscribe event.Typed[string]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders:    make(map[string]Builder),
		subscribers: make(map[string]map[string]struct{}),
	}
}

// Register associates b with its channel.
func (r *Registry) Register(b Builder) error {
	if b == nil {
		return errors.New("nil payload builder")
	}
	channel := b.Channel()
	if channel == "" {
		return errors.New("payload builder has an empty channel name")
	}
	if _, ok := r.builders[channel]; ok {
		return &DuplicateChannelError{Channel: channel}
	}
	r.builders[channel] = b
	return nil
}

// Builder returns the builder registered for channel.
func (r *Registry) Builder(channel string) (Builder, bool) {
	b, ok := r.builders[channel]
	return b, ok
}

// Channels returns the channels that have a builder, sorted.
func (r *Registry) Channels() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subscribe adds id to channel and reports whether it was new. OnSubscribe
// listeners run only for new ids.
func (r *Registry) Subscribe(channel, id string) bool {
	set, ok := r.subscribers[channel]
	if !ok {
		set = make(map[string]struct{})
		r.subscribers[channel] = set
	}
	if _, ok := set[id]; ok {
		return false
	}
	set[id] = struct{}{}
	r.onSubscribe.Fire(channel)
	return true
}

// Unsubscribe removes id from channel and reports whether it was present.
func (r *Registry) Unsubscribe(channel, id string) bool {
	set, ok := r.subscribers[channel]
	if !ok {
		return false
	}
	if _, ok := set[id]; !ok {
		return false
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.subscribers, channel)
	}
	return true
}

// UnsubscribeAll removes id from every channel and returns the channels it
// left, sorted.
func (r *Registry) UnsubscribeAll(id string) []string {
	var left []string
	for channel := range r.subscribers {
		if r.Unsubscribe(channel, id) {
			left = append(left, channel)
		}
	}
	sort.Strings(left)
	return left
}

// HasSubscribers reports whether anyone listens to channel.
func (r *Registry) HasSubscribers(channel string) bool {
	return len(r.subscribers[channel]) > 0
}

// Subscribers returns the ids listening to channel, sorted.
func (r *Registry) Subscribers(channel string) []string {
	set := r.subscribers[channel]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OnSubscribe registers a listener receiving the channel of every new
// subscription.
func (r *Registry) OnSubscribe(listener func(channel string)) event.Disposable {
	return r.onSubscribe.On(listener)
}
