package reactor

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Task is a unit of work run on the reactor's single goroutine.
type Task func()

// Reactor is the single-threaded cooperative scheduler: a FIFO pending-job
// queue, a timer min-heap, and fd-readiness dispatch, all serviced from one
// goroutine inside [Run].
//
// Submit, ScheduleTimer, RegisterFD and friends are safe to call from any
// goroutine (so e.g. a [procmgr] reap goroutine can hand results back to
// the reactor); callbacks themselves run
// only on the Run goroutine and must not block.
type Reactor struct {
	state *atomicState

	mu      sync.Mutex
	jobs    []*job
	timers  timerHeap
	timerID uint64

	poller   poller
	wake     chan struct{}
	wakeOnce sync.Once

	done chan struct{}
}

type job struct {
	fn        Task
	cancelled bool
}

// Job is a handle to a pending job, letting the submitter cancel it before
// it runs.
type Job struct {
	j *job
}

// Cancel removes the job from the queue synchronously; it is a no-op if the
// job already ran or was already cancelled. Cancellation of a pending job
// removes it synchronously: it will not fire afterwards.
func (h Job) Cancel() {
	if h.j != nil {
		h.j.cancelled = true
	}
}

type timerEntry struct {
	when      time.Time
	seq       uint64
	fn        Task
	cancelled bool
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		// Open Question (b): simultaneous timers fire in registration order.
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// Timer is a handle to a scheduled timer, letting the submitter cancel it
// before it fires.
type Timer struct {
	e *timerEntry
}

// Cancel removes the timer synchronously; it will not fire afterwards.
func (t Timer) Cancel() {
	if t.e != nil {
		t.e.cancelled = true
	}
}

// New creates a Reactor ready to [Run].
func New() (*Reactor, error) {
	r := &Reactor{
		state:  newAtomicState(),
		poller: newPoller(),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if err := r.poller.init(); err != nil {
		return nil, err
	}
	return r, nil
}

// Submit enqueues fn to run on the reactor goroutine at the next loop turn,
// after any job already queued (FIFO).
func (r *Reactor) Submit(fn Task) (Job, error) {
	if r.state.Load() == Terminated {
		return Job{}, ErrTerminated
	}
	r.mu.Lock()
	j := &job{fn: fn}
	r.jobs = append(r.jobs, j)
	r.mu.Unlock()
	r.wakeup()
	return Job{j: j}, nil
}

// ScheduleTimer schedules fn to run after delay has elapsed, measured from
// the reactor's monotonic clock. It returns a handle that can cancel the
// timer before it fires.
func (r *Reactor) ScheduleTimer(delay time.Duration, fn Task) (Timer, error) {
	if r.state.Load() == Terminated {
		return Timer{}, ErrTerminated
	}
	r.mu.Lock()
	r.timerID++
	e := &timerEntry{when: time.Now().Add(delay), seq: r.timerID, fn: fn}
	heap.Push(&r.timers, e)
	r.mu.Unlock()
	r.wakeup()
	return Timer{e: e}, nil
}

// RegisterFD registers fd for I/O readiness notification.
func (r *Reactor) RegisterFD(fd int, events IOEvents, cb IOCallback) error {
	err := r.poller.registerFD(fd, events, cb)
	if err == nil {
		r.wakeup()
	}
	return err
}

// UnregisterFD removes fd from readiness notification.
func (r *Reactor) UnregisterFD(fd int) error {
	return r.poller.unregisterFD(fd)
}

// ModifyFD updates the events monitored for fd.
func (r *Reactor) ModifyFD(fd int, events IOEvents) error {
	return r.poller.modifyFD(fd, events)
}

// State returns the reactor's current lifecycle state.
func (r *Reactor) State() State { return r.state.Load() }

func (r *Reactor) wakeup() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run drives the reactor until ctx is cancelled or [Reactor.Shutdown] is called.
// It must only be called once, and blocks the calling goroutine for its
// entire lifetime.
func (r *Reactor) Run(ctx context.Context) error {
	if !r.state.TryTransition(Awake, Running) {
		if r.state.Load() == Terminated {
			return ErrTerminated
		}
		return ErrAlreadyRunning
	}
	defer close(r.done)
	defer r.poller.close()

	for {
		select {
		case <-ctx.Done():
			r.drainAll()
			r.state.Store(Terminated)
			return ctx.Err()
		default:
		}
		if r.state.Load() == Terminating {
			r.drainAll()
			r.state.Store(Terminated)
			return nil
		}

		r.tick(ctx)
	}
}

// tick runs one iteration: drain ready jobs, fire expired timers, then poll
// for fd readiness (bounded by the next timer deadline, or block if there is
// neither a timer nor I/O pending — woken by wakeup()).
func (r *Reactor) tick(ctx context.Context) {
	r.runJobs()
	r.runTimers()

	timeout := r.calculateTimeout()

	select {
	case <-r.wake:
		// Something was submitted/scheduled/cancelled; loop around and
		// re-evaluate without blocking in the poller.
		return
	case <-ctx.Done():
		return
	default:
	}

	if timeout == 0 {
		return
	}

	r.state.TryTransition(Running, Sleeping)
	done := make(chan struct{})
	go func() {
		select {
		case <-r.wake:
		case <-ctx.Done():
		case <-time.After(time.Duration(timeout) * time.Millisecond):
		}
		close(done)
	}()
	// Poll I/O with a short timeout so registered fds still get serviced
	// promptly while we're also waiting on the wake channel/timer above.
	_, _ = r.poller.pollIO(0)
	<-done
	r.state.TryTransition(Sleeping, Running)
}

func (r *Reactor) runJobs() {
	for {
		r.mu.Lock()
		if len(r.jobs) == 0 {
			r.mu.Unlock()
			return
		}
		j := r.jobs[0]
		r.jobs = r.jobs[1:]
		r.mu.Unlock()
		if j.cancelled || j.fn == nil {
			continue
		}
		r.safeExecute(j.fn)
	}
}

func (r *Reactor) runTimers() {
	now := time.Now()
	for {
		r.mu.Lock()
		if len(r.timers) == 0 || r.timers[0].when.After(now) {
			r.mu.Unlock()
			return
		}
		e := heap.Pop(&r.timers).(*timerEntry)
		r.mu.Unlock()
		if e.cancelled || e.fn == nil {
			continue
		}
		r.safeExecute(e.fn)
	}
}

func (r *Reactor) calculateTimeout() int {
	const maxDelayMs = 10_000
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.jobs) > 0 {
		return 0
	}
	if len(r.timers) == 0 {
		return maxDelayMs
	}
	delay := time.Until(r.timers[0].when)
	if delay <= 0 {
		return 0
	}
	ms := int(delay / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	if ms > maxDelayMs {
		ms = maxDelayMs
	}
	return ms
}

// drainAll runs any jobs and already-expired timers once more, so
// in-flight work submitted just before shutdown is not silently dropped.
func (r *Reactor) drainAll() {
	r.runJobs()
	r.runTimers()
}

func (r *Reactor) safeExecute(fn Task) {
	defer func() {
		recover() //nolint:errcheck // a panicking module must not take the whole reactor down
	}()
	fn()
}

// Shutdown requests a graceful stop: any jobs/timers already queued are run
// once more, then Run returns. It blocks until Run has returned or ctx
// expires.
func (r *Reactor) Shutdown(ctx context.Context) error {
	r.wakeOnce.Do(func() {
		for {
			cur := r.state.Load()
			if cur == Terminated || cur == Terminating {
				return
			}
			if r.state.TryTransition(cur, Terminating) {
				r.wakeup()
				break
			}
		}
	})
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
