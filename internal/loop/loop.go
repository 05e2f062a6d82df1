// Package loop runs every state mutation of the extension on one goroutine.
//
// Callbacks arriving from other goroutines (websocket reads, file watches,
// companion deliveries) are posted here, so the state cache, channel registry
// and emitters can stay lock-free and notify synchronously.
package loop

import (
	"context"
	"errors"
	"sync"
)

// DefaultQueueSize is the buffer of pending tasks before Post blocks.
const DefaultQueueSize = 256

// ErrStopped is returned when posting to a loop that is no longer running.
var ErrStopped = errors.New("event loop stopped")

// Loop is a FIFO task queue drained by a single goroutine.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
	onPanic  func(any)
}

// New creates a loop. onPanic, if set, receives values recovered from tasks.
func New(queueSize int, onPanic func(any)) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		tasks:   make(chan func(), queueSize),
		done:    make(chan struct{}),
		onPanic: onPanic,
	}
}

// Run drains tasks until ctx is cancelled or Stop is called. It must be
// called exactly once.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.done:
			return
		case task := <-l.tasks:
			l.run(task)
		}
	}
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil && l.onPanic != nil {
			l.onPanic(r)
		}
	}()
	task()
}

// Post queues task. Tasks run in the order they were posted.
// It must not be called from inside a task.
func (l *Loop) Post(task func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.tasks <- task:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Call posts task and waits for it to finish.
func (l *Loop) Call(ctx context.Context, task func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		task()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Scheduler returns a function that posts to the loop and drops the task
// once the loop has stopped.
func (l *Loop) Scheduler() func(func()) {
	return func(task func()) {
		_ = l.Post(task)
	}
}

// Stop ends the loop. Pending tasks are discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed once the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
