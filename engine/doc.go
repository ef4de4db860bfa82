// Package engine implements the interpreter core: per-process statement
// graphs, the cursor/direction scheduler, variable/object resolution, and
// module instantiation/teardown. It runs single-threaded, cooperatively,
// driven entirely by pending jobs submitted to a [reactor.Reactor]; there
// is no locking of engine state because only one activation of one process
// is ever on the call stack at a time.
package engine
