package procmgr

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/ncdlang/ncd/reactor"
	"github.com/stretchr/testify/require"
)

func newRunningReactor(t *testing.T) (*reactor.Reactor, context.CancelFunc) {
	t.Helper()
	r, err := reactor.New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = r.Run(ctx) }()
	t.Cleanup(cancel)
	return r, cancel
}

func TestSpawnNormalExit(t *testing.T) {
	r, _ := newRunningReactor(t)
	m := New(r)

	h, err := m.Spawn("/bin/true", []string{"true"}, nil)
	require.NoError(t, err)

	resCh := make(chan Result, 1)
	require.NoError(t, h.SetTerminationCallback(func(res Result) {
		resCh <- res
	}))

	select {
	case res := <-resCh:
		require.True(t, res.ExitedNormally)
		require.Equal(t, 0, res.ExitStatus)
	case <-time.After(2 * time.Second):
		t.Fatal("termination callback never fired")
	}
}

func TestSpawnNonZeroExit(t *testing.T) {
	r, _ := newRunningReactor(t)
	m := New(r)

	h, err := m.Spawn("/bin/false", []string{"false"}, nil)
	require.NoError(t, err)

	resCh := make(chan Result, 1)
	require.NoError(t, h.SetTerminationCallback(func(res Result) {
		resCh <- res
	}))

	select {
	case res := <-resCh:
		require.False(t, res.ExitedNormally)
		require.Equal(t, 1, res.ExitStatus)
	case <-time.After(2 * time.Second):
		t.Fatal("termination callback never fired")
	}
}

func TestSecondCallbackRejected(t *testing.T) {
	r, _ := newRunningReactor(t)
	m := New(r)

	h, err := m.Spawn("/bin/true", []string{"true"}, nil)
	require.NoError(t, err)

	require.NoError(t, h.SetTerminationCallback(func(Result) {}))
	require.ErrorIs(t, h.SetTerminationCallback(func(Result) {}), ErrCallbackAlreadySet)
}

func TestSignalTerm(t *testing.T) {
	r, _ := newRunningReactor(t)
	m := New(r)

	h, err := m.Spawn("/bin/sleep", []string{"sleep", "30"}, nil)
	require.NoError(t, err)

	resCh := make(chan Result, 1)
	require.NoError(t, h.SetTerminationCallback(func(res Result) {
		resCh <- res
	}))

	require.NoError(t, h.Signal(syscall.SIGTERM))

	select {
	case res := <-resCh:
		require.False(t, res.ExitedNormally)
	case <-time.After(2 * time.Second):
		t.Fatal("signalled process never terminated")
	}
}

func TestFreeDiscardsResult(t *testing.T) {
	r, _ := newRunningReactor(t)
	m := New(r)

	h, err := m.Spawn("/bin/true", []string{"true"}, nil)
	require.NoError(t, err)

	called := false
	require.NoError(t, h.SetTerminationCallback(func(Result) { called = true }))
	h.Free()

	time.Sleep(200 * time.Millisecond)
	require.False(t, called)
}
