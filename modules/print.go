package modules

import (
	"github.com/ncdlang/ncd/module"
	"github.com/ncdlang/ncd/value"
)

// printModule logs its single string argument and reaches Up immediately.
// It exposes no sub-objects and its primary result ("" getvar) echoes the
// printed text, so print(x) chains can themselves be referenced.
type printModule struct {
	cbs  module.Callbacks
	text string
}

// NewPrint registers the "print" module type.
func NewPrint(ctx *module.Context) (module.Module, error) {
	text := ""
	if len(ctx.Args) > 0 && ctx.Args[0].Kind() == value.String {
		text = ctx.Args[0].Str()
	}
	ctx.Log.Info().Str("text", text).Log("print")
	m := &printModule{cbs: ctx.Callbacks, text: text}
	ctx.Callbacks.BackendUp()
	return m, nil
}

func (m *printModule) Die() { m.cbs.BackendDead() }

func (m *printModule) GetVar(name string, arena *value.Arena) (value.Value, bool) {
	if name != "" {
		return value.Value{}, false
	}
	return arena.NewString(m.text), true
}

func (m *printModule) GetObj(string) (module.ObjectRef, bool) { return nil, false }
