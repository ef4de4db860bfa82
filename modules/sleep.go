package modules

import (
	"strconv"
	"time"

	"github.com/ncdlang/ncd/module"
	"github.com/ncdlang/ncd/reactor"
	"github.com/ncdlang/ncd/value"
)

// sleepModule waits for its single millisecond-duration argument to elapse
// before publishing Up. Dying before the timer fires cancels it outright.
type sleepModule struct {
	cbs   module.Callbacks
	timer reactor.Timer
}

// NewSleep registers the "sleep" module type.
func NewSleep(ctx *module.Context) (module.Module, error) {
	ms := 0
	if len(ctx.Args) > 0 && ctx.Args[0].Kind() == value.String {
		ms, _ = strconv.Atoi(ctx.Args[0].Str())
	}
	m := &sleepModule{cbs: ctx.Callbacks}
	timer, err := ctx.Reactor.ScheduleTimer(time.Duration(ms)*time.Millisecond, func() {
		m.cbs.BackendUp()
	})
	if err != nil {
		return nil, err
	}
	m.timer = timer
	return m, nil
}

func (m *sleepModule) Die() {
	m.timer.Cancel()
	m.cbs.BackendDead()
}

func (m *sleepModule) GetVar(name string, arena *value.Arena) (value.Value, bool) {
	return value.Value{}, false
}

func (m *sleepModule) GetObj(string) (module.ObjectRef, bool) { return nil, false }
