package engine

import (
	"github.com/joeycumines/logiface"
	"github.com/ncdlang/ncd/config"
	"github.com/ncdlang/ncd/module"
	"github.com/ncdlang/ncd/ncderr"
	"github.com/ncdlang/ncd/procmgr"
	"github.com/ncdlang/ncd/reactor"
	"github.com/ncdlang/ncd/strindex"
	"github.com/ncdlang/ncd/symtab"
)

// Engine holds the process-wide collaborators — singletons with explicit
// init/free, shared across every running process — and the loaded
// program's process/template definitions, keyed by name.
type Engine struct {
	Reactor        *reactor.Reactor
	ProcessManager *procmgr.Manager
	StringIndex    *strindex.Index
	Symbols        symtab.Table
	Registry       *module.Registry
	Log            *logiface.Logger[logiface.Event]

	processes map[string]*config.ProcessDefinition
	templates map[string]*config.ProcessDefinition
}

// New constructs an Engine around the given collaborators. Callers own the
// collaborators' lifetimes (create reactor/procmgr before, shut them down
// after).
func New(
	r *reactor.Reactor,
	pm *procmgr.Manager,
	idx *strindex.Index,
	reg *module.Registry,
	log *logiface.Logger[logiface.Event],
) *Engine {
	return &Engine{
		Reactor:        r,
		ProcessManager: pm,
		StringIndex:    idx,
		Symbols:        symtab.New(idx),
		Registry:       reg,
		Log:            log,
		processes:      make(map[string]*config.ProcessDefinition),
		templates:      make(map[string]*config.ProcessDefinition),
	}
}

// Load installs prog's process and template definitions. It does not
// instantiate anything; processes are never started spontaneously.
//
// Object-prefixed statements (`foo.bar -> method()`) are rejected here
// rather than silently accepted and ignored: resolving a method against an
// object reference is module-method dispatch, which this interpreter does
// not implement, and running such a statement as if the prefix had never
// been written would make it indistinguishable from a typo.
func (e *Engine) Load(prog *config.Program) error {
	for _, def := range prog.Definitions {
		for i, stmt := range def.Statements {
			if len(stmt.ObjectPrefix) > 0 {
				return ncderr.New(ncderr.KindWrongType, def.Name, i,
					"object-prefixed statement (\"->\") is not supported: "+dottedName(stmt.ObjectPrefix)+" -> "+dottedName(stmt.Method)).
					WithPosition(stmt.Line, stmt.Col)
			}
		}
		if def.IsTemplate {
			e.templates[def.Name] = def
		} else {
			e.processes[def.Name] = def
		}
	}
	return nil
}

// LookupProcess returns a loaded (non-template) ProcessDefinition by name.
func (e *Engine) LookupProcess(name string) (*config.ProcessDefinition, bool) {
	def, ok := e.processes[name]
	return def, ok
}

// LookupTemplate returns a loaded template ProcessDefinition by name.
func (e *Engine) LookupTemplate(name string) (*config.ProcessDefinition, bool) {
	def, ok := e.templates[name]
	return def, ok
}

func dottedName(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		out := parts[0]
		for _, p := range parts[1:] {
			out += "." + p
		}
		return out
	}
}
