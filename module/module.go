package module

import (
	"github.com/joeycumines/logiface"
	"github.com/ncdlang/ncd/procmgr"
	"github.com/ncdlang/ncd/reactor"
	"github.com/ncdlang/ncd/strindex"
	"github.com/ncdlang/ncd/value"
)

// Module is the per-statement interface a concrete module implements once
// its Factory has returned successfully (the statement is now Starting).
// Die/GetVar/GetObj correspond directly to the die/getvar/getobj module
// runtime operations.
type Module interface {
	// Die requests termination (Up -> Dying); the engine does not call it on
	// a statement that is still Starting. The module must eventually call
	// Callbacks.BackendDead.
	Die()

	// GetVar writes the named variable's value into arena and returns true,
	// or returns false if the statement has no such variable. Called only
	// while the statement is Up. name is "" for the statement's primary
	// result.
	GetVar(name string, arena *value.Arena) (value.Value, bool)

	// GetObj returns a lightweight reference to a sub-object, or false if
	// the module has no such sub-object. Modules without sub-objects always
	// return (nil, false).
	GetObj(name string) (ObjectRef, bool)
}

// Cleaner is an optional hook: the engine calls Clean when it knows no
// successor statement is alive, so the module may release large buffers
// early. Most modules don't need it.
type Cleaner interface {
	Clean()
}

// ObjectRef is a resolved sub-object reference, obtained via GetObj,
// through which a dotted name's remaining segments are resolved.
type ObjectRef interface {
	GetVar(name string, arena *value.Arena) (value.Value, bool)
	GetObj(name string) (ObjectRef, bool)
}

// SubProcessHandle is a running template invocation, as seen by the module
// that started it. It is satisfied directly by *engine.Process; this
// package never imports engine to avoid a cycle.
type SubProcessHandle interface {
	// Terminate tears the sub-process down from the tail, same as a process
	// asked to exit outright.
	Terminate()
}

// SubProcessHooks mirrors a sub-process's lifecycle back to whatever
// started it, matching engine.Hooks field-for-field.
type SubProcessHooks struct {
	OnUp         func()
	OnDown       func()
	OnAbort      func(err error)
	OnTerminated func()
}

// Callbacks are the engine-provided, reentrant-safe entry points a module
// uses to report its own lifecycle transitions. Each one trampolines
// through the reactor's pending-job queue, so a module may call
// back synchronously from within its own Factory or Die without the engine
// re-entering its own scheduling state on the same stack frame.
type Callbacks interface {
	// BackendUp transitions the statement Starting -> Up.
	BackendUp()
	// BackendDown transitions an Up statement back to Starting, after the
	// engine has unwound every successor statement and invoked Clean.
	BackendDown()
	// BackendDead transitions Dying -> Forgotten. The module is freed after
	// this call; it must not use its Context again.
	BackendDead()
	// BackendError reports a failure, equivalent to an immediate
	// BackendDead with a process-abort marker. It is accepted from a
	// Starting or an Up statement.
	BackendError(err error)
}

// Context is handed to a module's Factory, and stays valid for the
// module's entire lifetime (Pending->...->Forgotten). It bundles the
// module's evaluated arguments plus accessors to the process-wide
// collaborators: log, get_args, get_reactor, get_process_manager,
// get_string_index.
type Context struct {
	// Args are the statement's evaluated argument values, valid only for
	// the duration of the Factory call (freed once Starting completes); a
	// module that needs one past Factory must copy it into its own arena.
	Args  []value.Value
	Arena *value.Arena

	Callbacks Callbacks
	Log       *logiface.Logger[logiface.Event]

	Reactor        *reactor.Reactor
	ProcessManager *procmgr.Manager
	StringIndex    *strindex.Index

	// Resolve looks up a dotted variable reference against the calling
	// statement's process, following the backward-visibility rule: besides
	// the `_args`/`_caller` namespaces and, for a template, the caller's
	// scope, only statements already Up, strictly before the caller, are in
	// scope. It
	// is how modules like call/alias/ondemand re-resolve a reference on
	// demand rather than only at statement construction.
	Resolve func(path []string, arena *value.Arena) (value.Value, bool)

	// InstantiateTemplate starts name as a sub-process of the calling
	// statement, mirroring its up/down/abort onto hooks. It is how the
	// `call` module (and anything like it) spawns a template without this
	// package depending on the engine.
	InstantiateTemplate func(name string, args value.Value, hooks SubProcessHooks) (SubProcessHandle, error)
}

// Factory constructs a module-private state for a statement transitioning
// Pending -> Starting. A non-nil error is treated exactly like a
// synchronous Callbacks.BackendError: the statement never reaches Up and
// no Die call will follow. On success the returned Module must eventually
// call ctx.Callbacks.BackendUp or ctx.Callbacks.BackendError.
type Factory func(ctx *Context) (Module, error)
