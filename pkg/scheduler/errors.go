package scheduler

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrAlreadyStarted is returned by Start on a session that was started.
	ErrAlreadyStarted = errors.New("scheduler: session already started")

	// ErrTerminated is returned by Start after Stop, and by AwaitRenders
	// when the session ends before reaching the requested count.
	ErrTerminated = errors.New("scheduler: session terminated")
)

// ProducerError is a failure while pulling from a producer or applying one
// of its trees. It terminates the session that raised it and no other.
type ProducerError struct {
	SessionID string
	Label     string
	Op        string // "pull" or "apply"
	Err       error
}

func (e *ProducerError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("scheduler: %s failed for %s: %v", e.Op, e.Label, e.Err)
	}
	return fmt.Sprintf("scheduler: %s failed: %v", e.Op, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// PanicError carries a recovered panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// ErrorReporter receives producer failures.
type ErrorReporter interface {
	Report(err *ProducerError)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(err *ProducerError)

// Report calls f.
func (f ReporterFunc) Report(err *ProducerError) { f(err) }

type nopReporter struct{}

func (nopReporter) Report(*ProducerError) {}

func newPanicError(p any) *PanicError {
	return &PanicError{Value: p, Stack: debug.Stack()}
}
