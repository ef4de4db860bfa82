//go:build !linux

package reactor

import "time"

// noopPoller is used on non-Linux platforms, where NCD is not expected to
// run (its module catalog is network-namespace/netlink-facing). It supports
// the timeout-sleep half of PollIO so the reactor's timer/job loop still
// functions in tests run on a developer's non-Linux machine, but refuses fd
// registration.
type noopPoller struct{}

func newPoller() poller { return &noopPoller{} }

func (p *noopPoller) init() error  { return nil }
func (p *noopPoller) close() error { return nil }

func (p *noopPoller) registerFD(fd int, events IOEvents, cb IOCallback) error {
	return ErrFDNotRegistered
}

func (p *noopPoller) unregisterFD(fd int) error { return ErrFDNotRegistered }

func (p *noopPoller) modifyFD(fd int, events IOEvents) error { return ErrFDNotRegistered }

func (p *noopPoller) pollIO(timeoutMs int) (int, error) {
	if timeoutMs > 0 {
		time.Sleep(time.Duration(timeoutMs) * time.Millisecond)
	}
	return 0, nil
}
