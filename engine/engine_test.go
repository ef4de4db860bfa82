package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/izerolog"
	"github.com/ncdlang/ncd/config"
	"github.com/ncdlang/ncd/module"
	"github.com/ncdlang/ncd/procmgr"
	"github.com/ncdlang/ncd/reactor"
	"github.com/ncdlang/ncd/strindex"
	"github.com/ncdlang/ncd/value"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// recordModule is a trivial module used only to exercise the engine's
// scheduling discipline: it calls BackendUp immediately (or never, if
// manual is set) from its Factory, records its own new/die calls, and
// answers GetVar with a fixed string.
type recordModule struct {
	ctx    *module.Context
	result string
	mu     *sync.Mutex
	log    *[]string
	name   string
	manual bool
	died   chan struct{}
}

func (m *recordModule) Die() {
	m.mu.Lock()
	*m.log = append(*m.log, "die:"+m.name)
	m.mu.Unlock()
	close(m.died)
	m.ctx.Callbacks.BackendDead()
}

func (m *recordModule) GetVar(name string, arena *value.Arena) (value.Value, bool) {
	return arena.NewString(m.result), true
}

func (m *recordModule) GetObj(string) (module.ObjectRef, bool) { return nil, false }

func newRecordFactory(mu *sync.Mutex, log *[]string, name string, manual bool) module.Factory {
	return func(ctx *module.Context) (module.Module, error) {
		result := ""
		if len(ctx.Args) > 0 && ctx.Args[0].Kind() == value.String {
			result = ctx.Args[0].Str()
		}
		mu.Lock()
		*log = append(*log, "new:"+name)
		mu.Unlock()
		m := &recordModule{ctx: ctx, result: result, mu: mu, log: log, name: name, manual: manual, died: make(chan struct{})}
		if !manual {
			ctx.Callbacks.BackendUp()
		}
		return m, nil
	}
}

func testEngine(t *testing.T) (*Engine, context.CancelFunc) {
	t.Helper()
	r, err := reactor.New()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = r.Run(ctx) }()
	t.Cleanup(cancel)

	pm := procmgr.New(r)
	idx := strindex.New()
	reg := module.NewRegistry()
	log := izerolog.L.New(izerolog.WithZerolog(zerolog.Nop())).Logger()

	return New(r, pm, idx, reg, log), cancel
}

func TestLinearUpAndReverseTeardown(t *testing.T) {
	e, _ := testEngine(t)

	var mu sync.Mutex
	var log []string
	e.Registry.Register("print", newRecordFactory(&mu, &log, "print", false))

	prog, err := config.Parse(`process main { print("a"); print("b"); print("c"); }`)
	require.NoError(t, err)
	require.NoError(t, e.Load(prog))

	def, _ := e.LookupProcess("main")

	upCh := make(chan struct{})
	p := e.NewProcess(def, value.Value{}, nil, 0, Hooks{
		OnUp: func() { close(upCh) },
	})
	p.Start()

	select {
	case <-upCh:
	case <-time.After(2 * time.Second):
		t.Fatal("process never reached quiescent")
	}

	for _, si := range p.statements {
		require.Equal(t, Up, si.state)
	}

	termCh := make(chan struct{})
	p.hooks.OnTerminated = func() { close(termCh) }
	p.Terminate()

	select {
	case <-termCh:
	case <-time.After(2 * time.Second):
		t.Fatal("process never terminated")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"new:print", "new:print", "new:print", "die:print", "die:print", "die:print"}, log)
}

func TestVariableResolution(t *testing.T) {
	e, _ := testEngine(t)

	var mu sync.Mutex
	var log []string
	e.Registry.Register("var", newRecordFactory(&mu, &log, "var", false))

	var gotArg string
	e.Registry.Register("print", func(ctx *module.Context) (module.Module, error) {
		if len(ctx.Args) > 0 && ctx.Args[0].Kind() == value.String {
			gotArg = ctx.Args[0].Str()
		}
		m := &recordModule{ctx: ctx, mu: &mu, log: &log, name: "print", died: make(chan struct{})}
		ctx.Callbacks.BackendUp()
		return m, nil
	})

	prog, err := config.Parse(`process main { var("hello") x; print(x); }`)
	require.NoError(t, err)
	require.NoError(t, e.Load(prog))
	def, _ := e.LookupProcess("main")

	upCh := make(chan struct{})
	p := e.NewProcess(def, value.Value{}, nil, 0, Hooks{OnUp: func() { close(upCh) }})
	p.Start()

	select {
	case <-upCh:
	case <-time.After(2 * time.Second):
		t.Fatal("process never reached quiescent")
	}
	require.Equal(t, "hello", gotArg)
}

func TestBackwardOnlyVisibilityFails(t *testing.T) {
	e, _ := testEngine(t)

	var mu sync.Mutex
	var log []string
	printStarted := false
	e.Registry.Register("print", func(ctx *module.Context) (module.Module, error) {
		printStarted = true
		m := &recordModule{ctx: ctx, mu: &mu, log: &log, name: "print", died: make(chan struct{})}
		ctx.Callbacks.BackendUp()
		return m, nil
	})
	e.Registry.Register("var", newRecordFactory(&mu, &log, "var", false))

	prog, err := config.Parse(`process main { print(y); var("hi") y; }`)
	require.NoError(t, err)
	require.NoError(t, e.Load(prog))
	def, _ := e.LookupProcess("main")

	abortCh := make(chan error, 1)
	termCh := make(chan struct{})
	p := e.NewProcess(def, value.Value{}, nil, 0, Hooks{
		OnAbort:      func(err error) { abortCh <- err },
		OnTerminated: func() { close(termCh) },
	})
	p.Start()

	select {
	case err := <-abortCh:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("process never aborted")
	}
	<-termCh

	require.False(t, printStarted, "print must never instantiate: y is defined after it")
}

func TestDieUnderContention(t *testing.T) {
	e, _ := testEngine(t)

	var mu sync.Mutex
	var log []string
	var sleepCtx *module.Context
	factoryCalled := make(chan struct{})
	e.Registry.Register("sleep", func(ctx *module.Context) (module.Module, error) {
		sleepCtx = ctx
		m := &recordModule{ctx: ctx, mu: &mu, log: &log, name: "sleep", manual: true, died: make(chan struct{})}
		close(factoryCalled)
		// Deliberately do not call BackendUp yet: statement stays Starting.
		return m, nil
	})

	prog, err := config.Parse(`process main { sleep("5000"); }`)
	require.NoError(t, err)
	require.NoError(t, e.Load(prog))
	def, _ := e.LookupProcess("main")

	termCh := make(chan struct{})
	p := e.NewProcess(def, value.Value{}, nil, 0, Hooks{OnTerminated: func() { close(termCh) }})
	p.Start()

	<-factoryCalled
	p.Terminate()

	// Now let the module complete its up, simulating the real-world race
	// where the engine must await backend_up, then immediately die.
	time.Sleep(20 * time.Millisecond)
	sleepCtx.Callbacks.BackendUp()

	select {
	case <-termCh:
	case <-time.After(2 * time.Second):
		t.Fatal("process never terminated after die-under-contention")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, log, "die:sleep")
}
