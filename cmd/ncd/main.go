// Command ncd is the interpreter binary: it loads a configuration file,
// starts every top-level process definition it contains, and runs the
// reactor until all of them terminate or an exit signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/ncdlang/ncd/config"
	"github.com/ncdlang/ncd/engine"
	"github.com/ncdlang/ncd/module"
	"github.com/ncdlang/ncd/modules"
	"github.com/ncdlang/ncd/procmgr"
	"github.com/ncdlang/ncd/reactor"
	"github.com/ncdlang/ncd/strindex"
	"github.com/ncdlang/ncd/value"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("ncd", flag.ContinueOnError)
	configFile := fs.String("config-file", "", "path to the NCD configuration program (mandatory)")
	syntaxOnly := fs.Bool("syntax-only", false, "parse the configuration and exit, without running it")
	logLevel := fs.String("loglevel", "info", "minimum log level written to stderr")

	args, progArgs := splitProgramArgs(argv)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ncd: invalid --loglevel %q: %v\n", *logLevel, err)
		return 2
	}
	zl := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
	log := izerolog.L.New(izerolog.WithZerolog(zl)).Logger()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "ncd: --config-file is required")
		return 2
	}
	src, err := os.ReadFile(*configFile)
	if err != nil {
		log.Crit().Err(err).Str("path", *configFile).Log("failed to read config file")
		return 1
	}

	prog, err := config.Parse(string(src))
	if err != nil {
		log.Crit().Err(err).Log("configuration failed to parse")
		return 1
	}
	if *syntaxOnly {
		return 0
	}

	return runProgram(prog, progArgs, log)
}

// splitProgramArgs separates ncd's own flags from the trailing "-- ARGS"
// positional arguments exposed to programs via the `_args` namespace.
func splitProgramArgs(argv []string) (flags, progArgs []string) {
	for i, a := range argv {
		if a == "--" {
			return argv[:i], argv[i+1:]
		}
	}
	return argv, nil
}

// runProgram starts one Process per top-level (non-template) definition in
// prog — as the root launcher; templates are instantiated only by `call`
// statements — and runs until every one of them terminates, or until
// SIGINT/SIGTERM asks them all to terminate.
func runProgram(prog *config.Program, progArgs []string, log *logiface.Logger[logiface.Event]) int {
	r, err := reactor.New()
	if err != nil {
		log.Crit().Err(err).Log("failed to create reactor")
		return 1
	}

	pm := procmgr.New(r)
	idx := strindex.New()
	reg := module.NewRegistry()
	modules.RegisterBuiltins(reg)

	e := engine.New(r, pm, idx, reg, log)
	if err := e.Load(prog); err != nil {
		log.Crit().Err(err).Log("failed to load configuration")
		return 1
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	var loopWG sync.WaitGroup
	loopWG.Add(1)
	go func() {
		defer loopWG.Done()
		if err := r.Run(runCtx); err != nil {
			log.Err().Err(err).Log("reactor exited")
		}
	}()

	argArena := value.NewArena(idx)
	argVals := make([]value.Value, len(progArgs))
	for i, a := range progArgs {
		argVals[i] = argArena.NewString(a)
	}
	rootArgs := argArena.NewList(argVals)

	var names []string
	for _, def := range prog.Definitions {
		if !def.IsTemplate {
			names = append(names, def.Name)
		}
	}
	if len(names) == 0 {
		log.Info().Log("configuration has no top-level processes; nothing to run")
		cancelRun()
		loopWG.Wait()
		return 0
	}

	var (
		mu       sync.Mutex
		live     = len(names)
		exitCode int
	)
	done := make(chan struct{})
	closeDone := sync.OnceFunc(func() { close(done) })

	processes := make([]*engine.Process, 0, len(names))
	for _, name := range names {
		def, _ := e.LookupProcess(name)
		name := name
		p := e.NewProcess(def, rootArgs, nil, 0, engine.Hooks{
			OnAbort: func(err error) {
				log.Err().Err(err).Str("process", name).Log("process aborted")
				mu.Lock()
				exitCode = 1
				mu.Unlock()
			},
			OnTerminated: func() {
				mu.Lock()
				live--
				n := live
				mu.Unlock()
				if n == 0 {
					closeDone()
				}
			},
		})
		processes = append(processes, p)
	}
	for _, p := range processes {
		p.Start()
	}
	argArena.Release()

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-done:
	case s := <-sigCh:
		log.Info().Str("signal", s.String()).Log("shutting down")
		for _, p := range processes {
			p.Terminate()
		}
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			log.Warning().Log("processes did not terminate in time, exiting anyway")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := r.Shutdown(shutdownCtx); err != nil {
		log.Err().Err(err).Log("reactor shutdown error")
	}
	cancelRun()
	loopWG.Wait()

	mu.Lock()
	defer mu.Unlock()
	return exitCode
}
