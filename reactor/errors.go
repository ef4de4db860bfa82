package reactor

import "errors"

// Standard errors, in the plain sentinel-error style used throughout this
// module.
var (
	// ErrTerminated is returned when an operation is attempted on a reactor
	// that has fully shut down.
	ErrTerminated = errors.New("reactor: terminated")
	// ErrAlreadyRunning is returned when Run is called on a reactor that is
	// already running.
	ErrAlreadyRunning = errors.New("reactor: already running")
	// ErrNotRunning is returned when Run has not yet been called.
	ErrNotRunning = errors.New("reactor: not running")
	// ErrFDAlreadyRegistered is returned by RegisterFD for a duplicate fd.
	ErrFDAlreadyRegistered = errors.New("reactor: fd already registered")
	// ErrFDNotRegistered is returned by UnregisterFD/ModifyFD for an unknown fd.
	ErrFDNotRegistered = errors.New("reactor: fd not registered")
)
