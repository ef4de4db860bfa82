// Package reactor implements the engine's single-threaded cooperative event
// loop: a FIFO pending-job queue, millisecond-resolution one-shot timers on
// a monotonic clock, and file-descriptor readiness callbacks multiplexed
// through epoll on Linux.
//
// All callbacks registered with a Reactor run one at a time, on the single
// goroutine that calls [Reactor.Run]; none is preemptible, and none may
// safely block. A callback that needs to recurse into the engine defers
// that work with [Reactor.Submit] rather than calling back in directly —
// this is the engine's only mechanism for avoiding unbounded call-stack
// reentrancy.
package reactor
