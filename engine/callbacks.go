package engine

import "github.com/ncdlang/ncd/ncderr"

// statementCallbacks implements module.Callbacks for one StatementInstance.
// Every method trampolines through the reactor's pending-job queue, so a
// module calling back synchronously from its own Factory never re-enters
// the engine's scheduling state on the same stack frame.
type statementCallbacks struct {
	p  *Process
	si *StatementInstance
}

func (c *statementCallbacks) BackendUp() {
	c.p.engine.Reactor.Submit(func() { c.p.onBackendUp(c.si) }) //nolint:errcheck
}

func (c *statementCallbacks) BackendDown() {
	c.p.engine.Reactor.Submit(func() { c.p.onBackendDown(c.si) }) //nolint:errcheck
}

func (c *statementCallbacks) BackendDead() {
	c.p.engine.Reactor.Submit(func() { c.p.onBackendDead(c.si) }) //nolint:errcheck
}

func (c *statementCallbacks) BackendError(err error) {
	c.p.engine.Reactor.Submit(func() { c.p.onBackendError(c.si, err) }) //nolint:errcheck
}

func (p *Process) onBackendUp(si *StatementInstance) {
	if si.state != Starting {
		return
	}
	si.state = Up
	if p.direction == Advancing && p.cursor == si.index {
		p.cursor++
	}
	p.scheduleWork()
}

func (p *Process) onBackendDown(si *StatementInstance) {
	if si.state != Up {
		return
	}
	p.direction = Unwinding
	p.unwindTarget = si.index
	p.scheduleWork()
}

func (p *Process) onBackendDead(si *StatementInstance) {
	if si.state != Dying {
		return
	}
	si.state = Forgotten
	p.scheduleWork()
}

// onBackendError handles a reported statement failure. A Starting-time
// failure is equivalent to an immediate backend_dead with a process-abort
// marker; a statement already Up (e.g. a `call` whose template aborted
// after reaching quiescent) may also report it, with the same effect: the
// statement is retired without a Die cycle and the whole process aborts.
func (p *Process) onBackendError(si *StatementInstance, err error) {
	if si.state != Starting && si.state != Up {
		return
	}
	si.state = Forgotten
	p.abort(ncderr.Wrap(ncderr.KindResource, p.def.Name, si.index, err))
}
