package engine

// unwindStep tears statements down from the tail, one per call, stopping
// once it reaches unwindTarget or a statement that is still Starting.
func (p *Process) unwindStep() {
	for {
		k := p.highestLive()
		if k == -1 {
			p.completeUnwind()
			return
		}
		si := p.statements[k]
		switch si.state {
		case Pending:
			// Never started; dropped silently.
			si.state = Forgotten
			continue
		case Up:
			si.state = Dying
			si.handle.Die()
			return
		case Starting:
			// Await backend_up/backend_error; onBackendUp will re-enter
			// unwindStep once the statement reaches Up.
			return
		case Dying:
			// Already awaiting backend_dead.
			return
		default:
			return
		}
	}
}

// highestLive returns the highest statement index above unwindTarget whose
// state is not Forgotten, or -1 if none remain.
func (p *Process) highestLive() int {
	for i := len(p.statements) - 1; i > p.unwindTarget; i-- {
		if p.statements[i].state != Forgotten {
			return i
		}
	}
	return -1
}

func (p *Process) completeUnwind() {
	if p.unwindTarget == -1 {
		p.terminated = true
		if p.hooks.OnTerminated != nil {
			p.hooks.OnTerminated()
		}
		return
	}

	target := p.statements[p.unwindTarget]
	if cleaner, ok := target.handle.(interface{ Clean() }); ok {
		cleaner.Clean()
	}

	for i := p.unwindTarget + 1; i < len(p.statements); i++ {
		p.statements[i].state = Pending
	}
	target.state = Starting
	p.cursor = p.unwindTarget
	p.direction = Advancing

	if p.hooks.OnDown != nil {
		p.hooks.OnDown()
	}
	// No scheduleWork here: the triggering module itself decides when to
	// re-publish backend_up.
}

// abort tears the process down entirely and notifies the creator once via
// hooks.OnAbort.
func (p *Process) abort(err error) {
	if p.hooks.OnAbort != nil {
		p.hooks.OnAbort(err)
	}
	p.direction = Unwinding
	p.unwindTarget = -1
	p.scheduleWork()
}
