package runner

import (
	"context"

	"github.com/rlch/suitejson"
)

// Handler receives run events.
type Handler interface {
	// Event is called for each run event as it occurs.
	Event(ctx context.Context, event Event, stats *Stats) error

	// Err is called for non-test errors (stderr, infrastructure issues).
	Err(text string) error
}

// MultiHandler fans out events to multiple handlers.
type MultiHandler struct {
	handlers []Handler
}

// NewMultiHandler creates a handler that dispatches to multiple handlers.
func NewMultiHandler(handlers ...Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Event dispatches to all handlers, stopping on first error.
func (m *MultiHandler) Event(ctx context.Context, event Event, stats *Stats) error {
	for _, h := range m.handlers {
		err := h.Event(ctx, event, stats)
		if err != nil {
			return err
		}
	}

	return nil
}

// Err dispatches to all handlers.
func (m *MultiHandler) Err(text string) error {
	for _, h := range m.handlers {
		err := h.Err(text)
		if err != nil {
			return err
		}
	}

	return nil
}

// StatsHandler updates the Stats accumulator from events.
type StatsHandler struct{}

// NewStatsHandler creates a handler that accumulates stats.
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{}
}

// Event updates the stats accumulator.
func (h *StatsHandler) Event(_ context.Context, event Event, stats *Stats) error {
	if event.Action == ActionEnd {
		stats.Finish()
		return nil
	}

	stats.Add(event)

	return nil
}

// Err is a no-op for StatsHandler.
func (h *StatsHandler) Err(_ string) error {
	return nil
}

// StopOnFailHandler stops execution when max failures is reached.
type StopOnFailHandler struct {
	maxFails int
}

// NewStopOnFailHandler creates a handler that stops after n failures.
func NewStopOnFailHandler(maxFails int) *StopOnFailHandler {
	return &StopOnFailHandler{maxFails: maxFails}
}

// Event checks if we've hit max failures.
func (h *StopOnFailHandler) Event(_ context.Context, event Event, stats *Stats) error {
	if h.maxFails <= 0 {
		return nil
	}

	if event.Action == ActionFail && stats.Failures >= h.maxFails {
		return ErrMaxFailures
	}

	return nil
}

// Err is a no-op.
func (h *StopOnFailHandler) Err(_ string) error {
	return nil
}

// ReporterHandler hands the finished run to a JSON reporter.
type ReporterHandler struct {
	reporter *suitejson.Reporter
}

// NewReporterHandler subscribes reporter to the end of the run.
func NewReporterHandler(reporter *suitejson.Reporter) *ReporterHandler {
	return &ReporterHandler{reporter: reporter}
}

// Event reports the run on ActionEnd and ignores everything else.
func (h *ReporterHandler) Event(_ context.Context, event Event, _ *Stats) error {
	if event.Action != ActionEnd || event.Run == nil {
		return nil
	}

	return h.reporter.OnEnd(event.Run)
}

// Err is a no-op.
func (h *ReporterHandler) Err(_ string) error {
	return nil
}
