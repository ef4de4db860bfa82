package engine

import (
	"strconv"

	"github.com/ncdlang/ncd/config"
	"github.com/ncdlang/ncd/module"
	"github.com/ncdlang/ncd/ncderr"
	"github.com/ncdlang/ncd/value"
)

// Hooks lets the creator of a Process (the root launcher, or the `call`
// module instantiating a template) observe the process's own up/down
// lifecycle; a sub-process's up/down is mirrored to its calling statement's
// up/down.
type Hooks struct {
	// OnUp fires every time the process becomes quiescent (cursor past the
	// last statement), including re-publications after a down cascade.
	OnUp func()
	// OnDown fires once the suffix after a statement that called
	// backend_down has been fully torn down and that statement is back in
	// Starting.
	OnDown func()
	// OnAbort fires once, when the process aborts due to a statement
	// failure; the process is being torn down entirely.
	OnAbort func(err error)
	// OnTerminated fires once, after every statement has reached Forgotten
	// following either OnAbort or an explicit Terminate.
	OnTerminated func()
}

// StatementInstance is the running realization of one config.Statement
// within a Process.
type StatementInstance struct {
	index   int
	stmt    *config.Statement
	label   string
	state   State
	handle  module.Module
	process *Process
}

// Process is a running realization of a config.ProcessDefinition.
type Process struct {
	engine     *Engine
	def        *config.ProcessDefinition
	statements []*StatementInstance

	cursor       int
	direction    Direction
	unwindTarget int // -1 means full termination

	args  value.Value
	arena *value.Arena

	caller      *Process
	callerIndex int

	hooks Hooks

	terminated bool
}

// NewProcess creates a ProcessInstance for def: direction=Advancing,
// cursor=0, every statement Pending. args is the `_args` namespace (a List
// value, typically empty for a non-template process); caller/callerIndex
// are set for a template invocation, enabling `_caller` resolution.
func (e *Engine) NewProcess(def *config.ProcessDefinition, args value.Value, caller *Process, callerIndex int, hooks Hooks) *Process {
	arena := value.NewArena(e.StringIndex)
	p := &Process{
		engine:       e,
		def:          def,
		unwindTarget: -1,
		args:         arena.Import(args),
		arena:        arena,
		caller:       caller,
		callerIndex:  callerIndex,
		hooks:        hooks,
	}
	p.statements = make([]*StatementInstance, len(def.Statements))
	for i, stmt := range def.Statements {
		label := stmt.Label
		if !stmt.HasLabel {
			label = stmt.Method[len(stmt.Method)-1]
		}
		p.statements[i] = &StatementInstance{index: i, stmt: stmt, label: label, process: p}
	}
	return p
}

// Start enqueues the process's first activation.
func (p *Process) Start() {
	p.scheduleWork()
}

// Terminate requests the process die entirely: direction flips to
// Unwinding with an unbounded target, tearing down any Up prefix from the
// tail. Callable from any goroutine; the scheduling-state mutation itself
// is deferred to a job on the reactor goroutine, same as every other
// engine API that touches direction/unwindTarget/terminated.
func (p *Process) Terminate() {
	p.engine.Reactor.Submit(func() { //nolint:errcheck // reactor rejects only post-shutdown submits
		if p.terminated {
			return
		}
		p.direction = Unwinding
		p.unwindTarget = -1
		p.work()
	})
}

func (p *Process) scheduleWork() {
	p.engine.Reactor.Submit(func() { p.work() }) //nolint:errcheck // reactor rejects only post-shutdown submits
}

func (p *Process) work() {
	if p.terminated {
		return
	}
	if p.direction == Advancing {
		p.advance()
	} else {
		p.unwindStep()
	}
}

// advance moves the cursor forward one statement, starting it if Pending
// and reporting quiescent once the cursor runs off the end.
func (p *Process) advance() {
	if p.cursor >= len(p.statements) {
		if p.hooks.OnUp != nil {
			p.hooks.OnUp()
		}
		return
	}

	si := p.statements[p.cursor]
	switch si.state {
	case Pending:
		p.startStatement(si)
	case Starting:
		// Awaiting backend_up/backend_error from the module; nothing to
		// do until the callback fires.
	case Up:
		// A republish after a down-cascade landed back on cursor already
		// Up (shouldn't normally happen, but advancing past it is safe).
		p.cursor++
		p.scheduleWork()
	default:
		// Dying/Forgotten statements are never the cursor while advancing.
	}
}

func (p *Process) startStatement(si *StatementInstance) {
	argArena := value.NewArena(p.engine.StringIndex)
	argVals := make([]value.Value, 0, len(si.stmt.Args))
	for _, expr := range si.stmt.Args {
		v, err := p.evalExpr(si.index, expr, argArena)
		if err != nil {
			p.abort(ncderr.Wrap(ncderr.KindVariableNotFound, p.def.Name, si.index, err))
			return
		}
		argVals = append(argVals, v)
	}

	typ := dottedName(si.stmt.Method)
	factory, ok := p.engine.Registry.Lookup(typ)
	if !ok {
		p.abort(ncderr.New(ncderr.KindModuleTypeUnknown, p.def.Name, si.index, "unknown module type "+typ))
		return
	}

	si.state = Starting

	cbs := &statementCallbacks{p: p, si: si}
	ctx := &module.Context{
		Args:           argVals,
		Arena:          argArena,
		Callbacks:      cbs,
		Log:            p.engine.Log,
		Reactor:        p.engine.Reactor,
		ProcessManager: p.engine.ProcessManager,
		StringIndex:    p.engine.StringIndex,
		Resolve: func(path []string, a *value.Arena) (value.Value, bool) {
			return p.resolve(si.index, path, a)
		},
		InstantiateTemplate: func(name string, args value.Value, hooks module.SubProcessHooks) (module.SubProcessHandle, error) {
			return p.instantiateTemplate(si.index, name, args, hooks)
		},
	}

	handle, err := factory(ctx)
	argArena.Release()
	if err != nil {
		si.state = Forgotten
		p.abort(ncderr.Wrap(ncderr.KindWrongType, p.def.Name, si.index, err))
		return
	}
	si.handle = handle
}

// instantiateTemplate looks up name as a template and starts it as a
// sub-process of the statement at callerIndex, translating
// module.SubProcessHooks into the engine's own Hooks type. Returned as a
// module.SubProcessHandle so callers outside this package never need
// *Process itself.
func (p *Process) instantiateTemplate(callerIndex int, name string, args value.Value, hooks module.SubProcessHooks) (module.SubProcessHandle, error) {
	def, ok := p.engine.LookupTemplate(name)
	if !ok {
		return nil, ncderr.New(ncderr.KindModuleTypeUnknown, p.def.Name, callerIndex, "unknown template "+name)
	}
	sub := p.engine.NewProcess(def, args, p, callerIndex, Hooks{
		OnUp:         hooks.OnUp,
		OnDown:       hooks.OnDown,
		OnAbort:      hooks.OnAbort,
		OnTerminated: hooks.OnTerminated,
	})
	sub.Start()
	return sub, nil
}

// resolve implements variable/object resolution. A `_args` or `_caller`
// head goes straight to that namespace; any other head is searched strictly
// backward from fromIndex, then, for a template invocation, in the caller's
// scope.
func (p *Process) resolve(fromIndex int, path []string, arena *value.Arena) (value.Value, bool) {
	if len(path) == 0 {
		return value.Value{}, false
	}

	head := path[0]
	// "_args" and "_caller" are pre-interned into the Symbol Table at
	// startup, so a hit here is an ID compare rather than a byte compare;
	// any other head (a statement label) was never a candidate for the
	// table and falls through to the backward label search below.
	if id, ok := p.engine.StringIndex.Lookup(head); ok {
		switch id {
		case p.engine.Symbols.Args:
			return p.resolveArgs(path[1:], arena)
		case p.engine.Symbols.Caller:
			if p.caller == nil {
				return value.Value{}, false
			}
			return p.caller.resolve(p.callerIndex, path[1:], arena)
		}
	}

	for i := fromIndex - 1; i >= 0; i-- {
		si := p.statements[i]
		if si.label == head && si.state == Up {
			return resolveChain(si.handle, path[1:], arena)
		}
	}

	if p.caller != nil {
		if v, ok := p.caller.resolve(p.callerIndex, path, arena); ok {
			return v, ok
		}
	}

	return value.Value{}, false
}

func (p *Process) resolveArgs(rest []string, arena *value.Arena) (value.Value, bool) {
	if p.args.Kind() != value.List || len(rest) == 0 {
		return value.Value{}, false
	}
	n, err := strconv.Atoi(rest[0])
	if err != nil || n < 0 || n >= p.args.Len() {
		return value.Value{}, false
	}
	return arena.Import(p.args.List()[n]), true
}

// resolveChain walks getobj for every segment but the last, then getvar on
// the last; a single-segment dotted name is getvar with name "".
func resolveChain(obj module.ObjectRef, rest []string, arena *value.Arena) (value.Value, bool) {
	if len(rest) == 0 {
		return obj.GetVar("", arena)
	}
	cur := obj
	for _, seg := range rest[:len(rest)-1] {
		next, ok := cur.GetObj(seg)
		if !ok {
			return value.Value{}, false
		}
		cur = next
	}
	return cur.GetVar(rest[len(rest)-1], arena)
}

func (p *Process) evalExpr(fromIndex int, expr config.Expr, arena *value.Arena) (value.Value, error) {
	switch e := expr.(type) {
	case config.StringExpr:
		return arena.NewString(e.Value), nil
	case config.VarExpr:
		v, ok := p.resolve(fromIndex, e.Path, arena)
		if !ok {
			return value.Value{}, &resolutionError{path: e.Path}
		}
		return v, nil
	case config.ListExpr:
		elems := make([]value.Value, len(e.Elems))
		for i, sub := range e.Elems {
			v, err := p.evalExpr(fromIndex, sub, arena)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = v
		}
		return arena.NewList(elems), nil
	default:
		return value.Value{}, &resolutionError{path: nil}
	}
}

type resolutionError struct {
	path []string
}

func (e *resolutionError) Error() string {
	return "variable not found: " + dottedName(e.path)
}
