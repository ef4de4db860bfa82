package modules

import (
	"fmt"

	"github.com/ncdlang/ncd/module"
	"github.com/ncdlang/ncd/value"
)

// callModule instantiates a named template as a sub-process, mirroring the
// sub-process's own up/down onto this statement's backend_up/backend_down.
//
// Whether a template abort is recoverable is configurable per call site:
// call(name, args) (no third argument) treats it as fatal — backend_error,
// torn down without a die cycle, regardless of whether the statement had
// already reached Up (a deliberate widening of backend_error's normal
// Starting-only scope, see engine.Process.onBackendError). Passing "retry"
// as a third argument instead reports backend_down and silently restarts
// the template; that is the only non-default behavior available.
type callModule struct {
	cbs         module.Callbacks
	instantiate func(name string, args value.Value, hooks module.SubProcessHooks) (module.SubProcessHandle, error)
	handle      module.SubProcessHandle
	arena       *value.Arena
	name        string
	args        value.Value
	retry       bool
	dying       bool
	abortErr    error
}

// NewCall registers the "call" module type: call(templateName, args[, "retry"]).
// It never imports the engine package directly; the calling process
// supplies InstantiateTemplate on the Context, so call is just another
// client of that abstraction.
func NewCall(ctx *module.Context) (module.Module, error) {
	if len(ctx.Args) < 1 || ctx.Args[0].Kind() != value.String {
		return nil, fmt.Errorf("call: expected a template name as the first argument")
	}

	var args value.Value
	if len(ctx.Args) > 1 {
		args = ctx.Args[1]
	}
	retry := len(ctx.Args) > 2 && ctx.Args[2].Kind() == value.String && ctx.Args[2].Str() == "retry"

	// The Factory's Context.Arena is released once Starting completes; a
	// restarted call needs the template name and args past that point, so
	// they're copied into a private arena owned for the module's lifetime.
	arena := value.NewArena(ctx.StringIndex)
	m := &callModule{
		cbs:         ctx.Callbacks,
		instantiate: ctx.InstantiateTemplate,
		arena:       arena,
		name:        ctx.Args[0].Str(),
		args:        arena.Import(args),
		retry:       retry,
	}

	handle, err := m.start()
	if err != nil {
		arena.Release()
		return nil, err
	}
	m.handle = handle
	return m, nil
}

func (m *callModule) start() (module.SubProcessHandle, error) {
	return m.instantiate(m.name, m.args, module.SubProcessHooks{
		OnUp:         func() { m.cbs.BackendUp() },
		OnDown:       func() { m.cbs.BackendDown() },
		OnAbort:      func(err error) { m.abortErr = err },
		OnTerminated: m.onTerminated,
	})
}

func (m *callModule) onTerminated() {
	switch {
	case m.dying:
		m.arena.Release()
		m.cbs.BackendDead()
	case m.abortErr == nil:
		// Terminated cleanly without an abort or a die request: nothing to
		// report (shouldn't occur in practice, since only Die or abort tear
		// a sub-process down).
	case m.retry:
		err := m.abortErr
		m.abortErr = nil
		m.cbs.BackendDown()
		handle, startErr := m.start()
		if startErr != nil {
			m.arena.Release()
			m.cbs.BackendError(fmt.Errorf("call: retry after %w failed: %w", err, startErr))
			return
		}
		m.handle = handle
	default:
		m.arena.Release()
		m.cbs.BackendError(m.abortErr)
	}
}

func (m *callModule) Die() {
	m.dying = true
	m.handle.Terminate()
}

func (m *callModule) GetVar(name string, arena *value.Arena) (value.Value, bool) {
	return value.Value{}, false
}

func (m *callModule) GetObj(string) (module.ObjectRef, bool) { return nil, false }
