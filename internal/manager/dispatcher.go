package manager

import (
	"fmt"

	"github.com/renato0307/kubecontexts/internal/event"
	"github.com/renato0307/kubecontexts/internal/logging"
	"github.com/renato0307/kubecontexts/internal/metrics"
)

// Publisher sends a payload to the given subscribers of a channel.
// Delivery is best effort.
type Publisher interface {
	Fire(channel string, subscribers []string, payload any) error
}

// Dispatcher rebuilds and sends a channel's payload whenever one of its
// sources changes or someone new subscribes, but only while the channel has
// subscribers.
type Dispatcher struct {
	registry  *Registry
	publisher Publisher
	logger    *logging.Logger

	wirings event.Stack
}

// NewDispatcher creates a dispatcher with no wiring.
func NewDispatcher(registry *Registry, publisher Publisher, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		registry:  registry,
		publisher: publisher,
		logger:    logger.Component("dispatcher"),
	}
}

// Watch dispatches channel every time source fires.
func (d *Dispatcher) Watch(channel string, source event.Event) {
	d.wirings.Push(source(func() { d.Dispatch(channel) }))
}

// Init dispatches a channel as soon as it gains a subscriber, so the newcomer
// gets the current snapshot without waiting for the next change.
func (d *Dispatcher) Init() {
	d.wirings.Push(d.registry.OnSubscribe(d.Dispatch))
}

// Dispatch builds the payload of channel and sends it to its subscribers.
// Dormant channels are skipped without building anything.
func (d *Dispatcher) Dispatch(channel string) {
	if !d.registry.HasSubscribers(channel) {
		return
	}
	builder, ok := d.registry.Builder(channel)
	if !ok {
		d.logger.Error("no payload builder for channel", "channel", channel)
		metrics.DispatchTotal.WithLabelValues(channel, metrics.ResultUnregistered).Inc()
		return
	}
	payload, err := build(builder)
	if err != nil {
		d.logger.Error("cannot build payload", "channel", channel, "error", err)
		metrics.DispatchTotal.WithLabelValues(channel, metrics.ResultBuildError).Inc()
		return
	}
	subscribers := d.registry.Subscribers(channel)
	if err := d.publisher.Fire(channel, subscribers, payload); err != nil {
		d.logger.Warn("cannot send payload", "channel", channel, "subscribers", len(subscribers), "error", err)
		metrics.DispatchTotal.WithLabelValues(channel, metrics.ResultFireError).Inc()
		return
	}
	metrics.DispatchTotal.WithLabelValues(channel, metrics.ResultSent).Inc()
	d.logger.Debug("payload sent", "channel", channel, "subscribers", len(subscribers))
}

// Close removes every wiring made by Watch and Init.
func (d *Dispatcher) Close() {
	d.wirings.Dispose()
}

func build(b Builder) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload, err = nil, fmt.Errorf("payload builder panicked: %v", r)
		}
	}()
	return b.Build(), nil
}
