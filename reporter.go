package suitejson

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// RunContext is the run-completion notification handed over by the host.
type RunContext interface {
	// RootSuite returns the root of the suite tree.
	RootSuite() any
	// Stats returns the host's summary object.
	Stats() any
	// HostVersion returns the semver of the host that ran the tree.
	HostVersion() string
	// SetTestResults retains the envelope for consumers that do not read
	// the output stream.
	SetTestResults(env *Envelope)
}

// Reporter serializes a finished run exactly once.
type Reporter struct {
	opts   Options
	out    io.Writer
	logger *zap.Logger

	once sync.Once
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = l
	}
}

// NewReporter creates a Reporter that writes to out unless opts.Sink is set.
func NewReporter(opts Options, out io.Writer, ropts ...ReporterOption) *Reporter {
	r := &Reporter{
		opts:   opts,
		out:    out,
		logger: zap.NewNop(),
	}
	for _, opt := range ropts {
		opt(r)
	}

	return r
}

// OnEnd builds, retains and emits the envelope for run. Only the first call
// does any work; later calls return ErrAlreadyReported.
func (r *Reporter) OnEnd(run RunContext) error {
	err := ErrAlreadyReported

	r.once.Do(func() {
		err = r.report(run)
	})

	return err
}

func (r *Reporter) report(run RunContext) error {
	caps := ResolveCapabilities(run.HostVersion())

	r.logger.Debug("serializing run",
		zap.String("hostVersion", run.HostVersion()),
		zap.Bool("pendingHasState", caps.PendingHasState),
		zap.Bool("includeStats", r.opts.IncludeStats))

	env, err := Build(run.RootSuite(), run.Stats(), caps, r.opts.IncludeStats)
	if err != nil {
		return err
	}

	run.SetTestResults(env)

	data, err := env.Encode(r.opts)
	if err != nil {
		return fmt.Errorf("suitejson: encoding results: %w", err)
	}

	if r.opts.Sink != nil {
		r.logger.Debug("handing results to sink", zap.Int("bytes", len(data)))
		r.opts.Sink(string(data))

		return nil
	}

	r.logger.Debug("writing results", zap.Int("bytes", len(data)))

	if _, err := r.out.Write(data); err != nil {
		return fmt.Errorf("suitejson: writing results: %w", err)
	}

	return nil
}
