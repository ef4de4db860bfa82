package modules

import (
	"syscall"

	"github.com/ncdlang/ncd/module"
	"github.com/ncdlang/ncd/procmgr"
	"github.com/ncdlang/ncd/value"
)

// spawnModule runs an external command for the lifetime of the statement:
// Up once the child starts, torn down by sending SIGTERM and reporting dead
// once the child has exited. It exposes no variables: GetVar reports
// not-found for every name, including the primary result.
type spawnModule struct {
	cbs    module.Callbacks
	handle *procmgr.Handle
	dying  bool
}

// NewSpawn registers the "spawn" module type: spawn(executable, arg, arg, ...).
func NewSpawn(ctx *module.Context) (module.Module, error) {
	if len(ctx.Args) == 0 || ctx.Args[0].Kind() != value.String {
		return nil, errWrongArgs
	}
	exe := ctx.Args[0].Str()
	argv := make([]string, 0, len(ctx.Args))
	argv = append(argv, exe)
	for _, a := range ctx.Args[1:] {
		if a.Kind() != value.String {
			return nil, errWrongArgs
		}
		argv = append(argv, a.Str())
	}

	h, err := ctx.ProcessManager.Spawn(exe, argv, nil)
	if err != nil {
		return nil, err
	}

	m := &spawnModule{cbs: ctx.Callbacks, handle: h}
	if err := h.SetTerminationCallback(m.onTerminated); err != nil {
		return nil, err
	}
	ctx.Callbacks.BackendUp()
	return m, nil
}

func (m *spawnModule) onTerminated(procmgr.Result) {
	if m.dying {
		m.cbs.BackendDead()
		return
	}
	// The child exited on its own while the statement was still Up; that
	// is a module-local event the statement surfaces as going down: the
	// engine unwinds every successor and leaves this statement Starting,
	// and this module does not re-publish Up. OS-level failures inside
	// modules are module-local, not process-fatal.
	m.cbs.BackendDown()
}

func (m *spawnModule) Die() {
	m.dying = true
	_ = m.handle.Signal(syscall.SIGTERM)
}

func (m *spawnModule) GetVar(name string, arena *value.Arena) (value.Value, bool) {
	return value.Value{}, false
}

func (m *spawnModule) GetObj(string) (module.ObjectRef, bool) { return nil, false }

var errWrongArgs = wrongArgsError{}

type wrongArgsError struct{}

func (wrongArgsError) Error() string { return "spawn: expected at least one string argument (executable)" }
