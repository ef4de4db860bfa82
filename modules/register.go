package modules

import "github.com/ncdlang/ncd/module"

// RegisterBuiltins adds the built-in catalog to reg: print, var, sleep,
// blocker, spawn, call. It returns the Blocker handle, since that module
// (unlike the others) needs an out-of-band way for its owner to drive it.
func RegisterBuiltins(reg *module.Registry) *Blocker {
	reg.Register("print", NewPrint)
	reg.Register("var", NewVar)
	reg.Register("sleep", NewSleep)
	reg.Register("spawn", NewSpawn)
	reg.Register("call", NewCall)

	factory, b := NewBlocker()
	reg.Register("blocker", factory)
	return b
}
