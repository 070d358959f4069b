package runner

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Sentinel errors for the runner package.
var (
	// ErrMaxFailures is returned when the max failure limit is reached.
	ErrMaxFailures = errors.New("runner: max failures reached")

	// ErrNoSuites is returned when a run is started without a root suite.
	ErrNoSuites = errors.New("runner: no suites to run")

	// ErrInvalidSuiteFile is returned when a suite file cannot be loaded.
	ErrInvalidSuiteFile = errors.New("runner: invalid suite file")
)

// AssertionError is the failure recorded when a test body evaluates to false.
type AssertionError struct {
	Message  string `json:"message"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Operator string `json:"operator"`
	ShowDiff bool   `json:"showDiff"`

	stack pkgerrors.StackTrace
}

func newAssertionError(body string, actual any) *AssertionError {
	return &AssertionError{
		Message:  fmt.Sprintf("expected %s to be truthy", body),
		Expected: true,
		Actual:   actual,
		Operator: "==",
		ShowDiff: false,
		stack:    callers(),
	}
}

func (e *AssertionError) Error() string {
	return e.Message
}

// StackTrace returns where the assertion was raised.
func (e *AssertionError) StackTrace() pkgerrors.StackTrace {
	return e.stack
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// callers captures the stack of its caller.
func callers() pkgerrors.StackTrace {
	st, ok := pkgerrors.New("").(stackTracer)
	if !ok {
		return nil
	}

	trace := st.StackTrace()
	if len(trace) > 1 {
		return trace[1:]
	}

	return trace
}

// timeoutError is the failure recorded when a body outlives its timeout.
func timeoutError(ms int64) error {
	return pkgerrors.Errorf("Timeout of %dms exceeded", ms)
}
