package listen

import "errors"

// Errors returned by Listener and TaskPool operations.
var (
	// ErrCouldNotStart is returned by Start when the spec is invalid. The
	// returned error wraps it together with what was wrong.
	ErrCouldNotStart = errors.New("could not start listener")
	// ErrCouldNotStop is returned by Stop when the listener has already
	// been stopped.
	ErrCouldNotStop = errors.New("listener already stopped")
	// ErrListenerDied is returned by Poll when the worker is gone and the
	// queue has been drained.
	ErrListenerDied = errors.New("listener died")
	// ErrPoolClosed is returned by Spawn after Close.
	ErrPoolClosed = errors.New("task pool closed")
	// ErrSourceClosed marks a source that has delivered everything it ever
	// will. It is always wrapped by Permanent.
	ErrSourceClosed = errors.New("source closed")
)

// PollError wraps an error a source returned while polling. The worker
// forwards it through the queue, so it surfaces from Poll on the consumer
// side, never on the source's goroutine.
type PollError struct{ Err error }

func (e *PollError) Error() string { return "poll failed: " + e.Err.Error() }

func (e *PollError) Unwrap() error { return e.Err }

// Permanent marks err as having permanently failed its source. The port is
// retired after the error is forwarded; unmarked errors are transient and
// the source is polled again on its normal schedule.
func Permanent(err error) error { return permanentError{err} }

// IsPermanent reports whether any error in err's tree is marked permanent.
func IsPermanent(err error) bool {
	var pe permanentError
	return errors.As(err, &pe)
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }

func (e permanentError) Unwrap() error { return e.err }
