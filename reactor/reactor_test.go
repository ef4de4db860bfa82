package reactor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReactorSubmitRunsInOrder(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var order []int

	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		i := i
		_, err := r.Submit(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
		require.NoError(t, err)
	}

	_, err = r.Submit(func() {
		cancel()
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reactor did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{0, 1}, order)
}

func TestReactorCancelJob(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	ran := false
	h, err := r.Submit(func() { ran = true })
	require.NoError(t, err)
	h.Cancel()

	_, err = r.Submit(func() { cancel() })
	require.NoError(t, err)

	<-done
	require.False(t, ran)
}

func TestReactorTimerOrder(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	var mu sync.Mutex
	var fired []int

	// Two timers scheduled for the same instant fire in registration order.
	deadline := 30 * time.Millisecond
	_, err = r.Submit(func() {
		_, _ = r.ScheduleTimer(deadline, func() {
			mu.Lock()
			fired = append(fired, 1)
			mu.Unlock()
		})
		_, _ = r.ScheduleTimer(deadline, func() {
			mu.Lock()
			fired = append(fired, 2)
			mu.Unlock()
			cancel()
		})
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timers never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2}, fired)
}

func TestReactorTimerCancel(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	fired := false
	var h Timer
	_, err = r.Submit(func() {
		h, _ = r.ScheduleTimer(20*time.Millisecond, func() { fired = true })
		h.Cancel()
		_, _ = r.ScheduleTimer(40*time.Millisecond, func() { cancel() })
	})
	require.NoError(t, err)

	<-done
	require.False(t, fired)
}

func TestReactorShutdownDrainsPending(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{})
	go func() { _ = r.Run(ctx) }()

	_, err = r.Submit(func() { close(ran) })
	require.NoError(t, err)

	require.NoError(t, r.Shutdown(context.Background()))

	select {
	case <-ran:
	default:
		t.Fatal("pending job was not drained on shutdown")
	}
}
