package procmgr

import (
	"errors"
	"os/exec"
	"sync"
	"syscall"

	"github.com/ncdlang/ncd/reactor"
)

// ErrAlreadyFreed is returned by Signal when called on a handle that was
// already freed.
var ErrAlreadyFreed = errors.New("procmgr: handle already freed")

// ErrCallbackAlreadySet is returned by SetTerminationCallback if a callback
// was already registered for the handle; at most one is allowed per
// handle.
var ErrCallbackAlreadySet = errors.New("procmgr: termination callback already set")

// Result is delivered to a termination callback once a child has exited.
type Result struct {
	ExitedNormally bool
	ExitStatus     int
}

// Manager spawns and tracks child processes, delivering termination
// notifications through a reactor so module code never has to synchronize
// against a reaper goroutine directly.
type Manager struct {
	r *reactor.Reactor

	mu      sync.Mutex
	handles map[*Handle]struct{}
}

// New creates a Manager that reports terminations through r.
func New(r *reactor.Reactor) *Manager {
	return &Manager{
		r:       r,
		handles: make(map[*Handle]struct{}),
	}
}

// Handle identifies one spawned child process.
type Handle struct {
	cmd *exec.Cmd
	r   *reactor.Reactor

	mu        sync.Mutex
	freed     bool
	callback  func(Result)
	delivered bool
	result    Result
}

// Spawn starts executable with argv (argv[0] conventionally repeats the
// executable name, matching os/exec.Cmd.Args semantics) and an optional
// environment (nil inherits the manager process's environment). It returns a
// handle immediately; the child's exit is reaped on a background goroutine
// and reported through the reactor via [Handle.SetTerminationCallback]. A
// child that exits before the callback is registered has its result
// buffered, so no exit can be lost between Spawn and registration.
func (m *Manager) Spawn(executable string, argv []string, env []string) (*Handle, error) {
	cmd := exec.Command(executable)
	if len(argv) > 0 {
		cmd.Args = argv
	}
	if env != nil {
		cmd.Env = env
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &Handle{cmd: cmd, r: m.r}

	m.mu.Lock()
	m.handles[h] = struct{}{}
	m.mu.Unlock()

	go m.reap(h)

	return h, nil
}

func (m *Manager) reap(h *Handle) {
	err := h.cmd.Wait()

	res := Result{ExitedNormally: err == nil}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitStatus = exitErr.ExitCode()
		} else {
			res.ExitStatus = -1
		}
	}

	m.mu.Lock()
	delete(m.handles, h)
	m.mu.Unlock()

	h.mu.Lock()
	freed := h.freed
	cb := h.callback
	if !freed && cb == nil {
		// No callback registered yet: buffer the result so a later
		// SetTerminationCallback replays it instead of losing the exit.
		h.delivered = true
		h.result = res
	}
	h.mu.Unlock()

	if freed || cb == nil {
		return
	}

	_, _ = h.r.Submit(func() {
		cb(res)
	})
}

// SetTerminationCallback registers the (sole) callback invoked when the
// child exits. It runs on the reactor goroutine. Calling it a second time
// returns ErrCallbackAlreadySet. If the child already exited before this
// call, the buffered result is delivered immediately instead of being lost.
func (h *Handle) SetTerminationCallback(cb func(Result)) error {
	h.mu.Lock()
	if h.callback != nil {
		h.mu.Unlock()
		return ErrCallbackAlreadySet
	}
	h.callback = cb
	delivered := h.delivered
	res := h.result
	freed := h.freed
	h.mu.Unlock()

	if delivered && !freed {
		_, _ = h.r.Submit(func() {
			cb(res)
		})
	}
	return nil
}

// Signal sends sig to the child. Typical use is syscall.SIGTERM followed,
// after a grace period, by syscall.SIGKILL.
func (h *Handle) Signal(sig syscall.Signal) error {
	h.mu.Lock()
	freed := h.freed
	h.mu.Unlock()
	if freed {
		return ErrAlreadyFreed
	}
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Signal(sig)
}

// Free abandons bookkeeping for the handle. If the child is still alive the
// manager keeps reaping it in the background (so the OS process table entry
// is eventually released) but discards the result instead of invoking the
// termination callback.
func (h *Handle) Free() {
	h.mu.Lock()
	h.freed = true
	h.callback = nil
	h.mu.Unlock()
}

// PID returns the child's process ID.
func (h *Handle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}
