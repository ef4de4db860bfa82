package modules

import (
	"github.com/ncdlang/ncd/module"
	"github.com/ncdlang/ncd/value"
)

// varModule holds a single literal (string, list, or map) argument and
// exposes it as its primary getvar result — the simplest possible way to
// give a statement a label other statements can reference.
type varModule struct {
	cbs   module.Callbacks
	arena *value.Arena
	val   value.Value
}

// NewVar registers the "var" module type.
func NewVar(ctx *module.Context) (module.Module, error) {
	// The statement's own arena outlives Factory only until Starting
	// completes, so a value a statement must keep exposing while Up needs
	// its own private arena.
	arena := value.NewArena(ctx.StringIndex)
	var v value.Value
	if len(ctx.Args) > 0 {
		v = arena.Import(ctx.Args[0])
	}
	m := &varModule{cbs: ctx.Callbacks, arena: arena, val: v}
	ctx.Callbacks.BackendUp()
	return m, nil
}

func (m *varModule) Die() {
	m.arena.Release()
	m.cbs.BackendDead()
}

func (m *varModule) GetVar(name string, arena *value.Arena) (value.Value, bool) {
	if name != "" {
		return value.Value{}, false
	}
	return arena.Import(m.val), true
}

func (m *varModule) GetObj(string) (module.ObjectRef, bool) { return nil, false }
