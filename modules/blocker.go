package modules

import (
	"sync"

	"github.com/ncdlang/ncd/module"
	"github.com/ncdlang/ncd/value"
)

// Blocker is the engine-external handle a test (or an operator console)
// uses to toggle a running blocker statement: toggling to blocked sends
// backend_down, tearing down every successor statement before the blocker
// re-publishes Up on release.
type Blocker struct {
	mu      sync.Mutex
	cbs     module.Callbacks
	blocked bool
}

// NewBlocker returns a Factory for the "blocker" module type and the
// Blocker handle used to drive it externally. Unlike the other built-ins,
// callers need the handle back out-of-band, so this is a constructor
// rather than a Factory assignable straight into a Registry.
func NewBlocker() (module.Factory, *Blocker) {
	b := &Blocker{}
	factory := func(ctx *module.Context) (module.Module, error) {
		b.mu.Lock()
		b.cbs = ctx.Callbacks
		b.mu.Unlock()
		ctx.Callbacks.BackendUp()
		return &blockerModule{b: b, cbs: ctx.Callbacks}, nil
	}
	return factory, b
}

// Block transitions the statement Up -> Starting, unwinding every
// successor, if it is not already blocked.
func (b *Blocker) Block() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.blocked {
		return
	}
	b.blocked = true
	b.cbs.BackendDown()
}

// Unblock re-publishes Up, letting the engine re-advance successor
// statements.
func (b *Blocker) Unblock() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.blocked {
		return
	}
	b.blocked = false
	b.cbs.BackendUp()
}

type blockerModule struct {
	b   *Blocker
	cbs module.Callbacks
}

func (m *blockerModule) Die() { m.cbs.BackendDead() }

func (m *blockerModule) GetVar(name string, arena *value.Arena) (value.Value, bool) {
	return value.Value{}, false
}

func (m *blockerModule) GetObj(string) (module.ObjectRef, bool) { return nil, false }
