// Package runner implements a small test host: it runs suites of expression
// tests and hooks and notifies handlers as the run progresses.
package runner

import (
	"strings"
	"time"
)

// Action represents the type of run event.
type Action string

// Action constants for run events.
const (
	ActionStart    Action = "start"
	ActionSuite    Action = "suite"
	ActionSuiteEnd Action = "suite end"
	ActionTest     Action = "test"
	ActionPass     Action = "pass"
	ActionFail     Action = "fail"
	ActionPending  Action = "pending"
	ActionRetry    Action = "retry"
	ActionTestEnd  Action = "test end"
	ActionEnd      Action = "end"
)

// IsTerminal returns true if this action ends a test.
func (a Action) IsTerminal() bool {
	return a == ActionPass || a == ActionFail || a == ActionPending
}

// Event represents a single event emitted during a run.
type Event struct {
	Time    time.Time     // When the event occurred
	Action  Action        // What happened
	Suite   *Suite        // Suite the event concerns, or the parent of Test/Hook
	Test    *Test         // Set for test events
	Hook    *Hook         // Set for hook failures
	Path    []string      // Title path: ["Math", "adds"]
	Elapsed time.Duration // Time taken (for terminal events)
	Error   any           // Failure payload (for ActionFail and ActionRetry)

	// Run is set on ActionEnd.
	Run *Run
}

// PathString returns the path as a slash-separated string.
func (e Event) PathString() string {
	return strings.Join(e.Path, "/")
}

// ID returns a unique identifier: "file::path::components".
func (e Event) ID() string {
	file := ""

	switch {
	case e.Test != nil:
		file = e.Test.File
	case e.Hook != nil:
		file = e.Hook.File
	case e.Suite != nil:
		file = e.Suite.File
	}

	if file == "" {
		return strings.Join(e.Path, "::")
	}

	return file + "::" + strings.Join(e.Path, "::")
}

// TestName returns the leaf title.
func (e Event) TestName() string {
	if len(e.Path) == 0 {
		return ""
	}

	return e.Path[len(e.Path)-1]
}
