package runner

import (
	"time"

	"github.com/rlch/suitejson"
)

// Stats accumulates run counters. It is the summary handed to reporters and
// is serialized as-is.
type Stats struct {
	Suites   int        `json:"suites"`
	Tests    int        `json:"tests"`
	Passes   int        `json:"passes"`
	Pending  int        `json:"pending"`
	Failures int        `json:"failures"`
	Start    time.Time  `json:"start"`
	End      *time.Time `json:"end,omitempty"`
	Duration int64      `json:"duration"` // milliseconds
}

// NewStats creates Stats for a run starting now.
func NewStats() *Stats {
	return &Stats{Start: time.Now()}
}

// Add updates the counters for an event.
func (s *Stats) Add(event Event) {
	switch event.Action {
	case ActionSuite:
		if event.Suite != nil && !event.Suite.Root {
			s.Suites++
		}
	case ActionTestEnd:
		s.Tests++
	case ActionPass:
		s.Passes++
	case ActionFail:
		s.Failures++
	case ActionPending:
		s.Pending++
	case ActionStart, ActionSuiteEnd, ActionTest, ActionRetry, ActionEnd:
		// Not counted
	}
}

// Finish marks the stats as complete.
func (s *Stats) Finish() {
	end := time.Now()
	s.End = &end
	s.Duration = end.Sub(s.Start).Milliseconds()
}

// Elapsed returns the total execution time.
func (s *Stats) Elapsed() time.Duration {
	if s.End == nil {
		return time.Since(s.Start)
	}

	return s.End.Sub(s.Start)
}

// Ok returns true if nothing failed.
func (s *Stats) Ok() bool {
	return s.Failures == 0
}

// Run is the completed run handed to reporters. It satisfies
// suitejson.RunContext.
type Run struct {
	// TestResults is set by the JSON reporter once the run is serialized.
	TestResults *suitejson.Envelope

	root    *Suite
	stats   *Stats
	version string
}

var _ suitejson.RunContext = (*Run)(nil)

// RootSuite returns the root of the suite tree.
func (r *Run) RootSuite() any { return r.root }

// Stats returns the run counters.
func (r *Run) Stats() any { return r.stats }

// HostVersion returns the version of the runner that produced the run.
func (r *Run) HostVersion() string { return r.version }

// SetTestResults retains the serialized envelope.
func (r *Run) SetTestResults(env *suitejson.Envelope) { r.TestResults = env }

// Root returns the root suite.
func (r *Run) Root() *Suite { return r.root }

// Summary returns the run counters.
func (r *Run) Summary() *Stats { return r.stats }

// Ok returns true if nothing failed.
func (r *Run) Ok() bool { return r.stats.Ok() }
