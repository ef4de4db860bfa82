// Package procmgr wraps OS process spawning for the engine's process_manager
// and spawn modules: spawn/signal/free plus a single termination callback
// per handle, delivered through a [reactor.Reactor] so callers never
// observe a termination notification off the reactor goroutine.
package procmgr
