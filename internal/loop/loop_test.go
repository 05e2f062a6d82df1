package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T, onPanic func(any)) *Loop {
	t.Helper()
	l := New(0, onPanic)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)
	return l
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	l := startLoop(t, nil)

	var got []int
	for i := 0; i < 50; i++ {
		require.NoError(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Call(context.Background(), func() {}))

	want := make([]int, 50)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestLoop_SingleGoroutine(t *testing.T) {
	l := startLoop(t, nil)

	counter := 0
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = l.Post(func() { counter++ })
			}
		}()
	}
	wg.Wait()
	require.NoError(t, l.Call(context.Background(), func() {}))

	assert.Equal(t, 800, counter)
}

func TestLoop_RecoversPanics(t *testing.T) {
	recovered := make(chan any, 1)
	l := startLoop(t, func(r any) { recovered <- r })

	require.NoError(t, l.Post(func() { panic("boom") }))

	select {
	case r := <-recovered:
		assert.Equal(t, "boom", r)
	case <-time.After(time.Second):
		t.Fatal("panic was not reported")
	}

	ran := false
	require.NoError(t, l.Call(context.Background(), func() { ran = true }))
	assert.True(t, ran, "loop must keep running after a panicking task")
}

func TestLoop_PostAfterStop(t *testing.T) {
	l := startLoop(t, nil)
	l.Stop()
	l.Stop()

	assert.ErrorIs(t, l.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrStopped)

	select {
	case <-l.Done():
	default:
		t.Fatal("Done must be closed after Stop")
	}
}

func TestLoop_ContextCancelStops(t *testing.T) {
	l := New(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(exited)
	}()

	cancel()

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.ErrorIs(t, l.Post(func() {}), ErrStopped)
}
