package runner

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// Runner executes suite trees.
type Runner struct {
	handler  Handler
	failFast bool
	filter   *regexp.Regexp
	logger   *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithHandler sets the event handler.
func WithHandler(h Handler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithFailFast stops on first failure.
func WithFailFast(enabled bool) Option {
	return func(r *Runner) {
		r.failFast = enabled
	}
}

// WithFilter sets a regex pattern to filter which tests run.
// Tests whose path matches the pattern will be executed.
func WithFilter(pattern string) Option {
	return func(r *Runner) {
		if pattern != "" {
			r.filter = regexp.MustCompile(pattern)
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes root and everything below it and returns the completed run.
// The run-end event is emitted exactly once, also when the run stops early.
func (r *Runner) Run(ctx context.Context, root *Suite) (*Run, error) {
	if root == nil {
		return nil, ErrNoSuites
	}

	handlers := []Handler{NewStatsHandler()}
	if r.failFast {
		handlers = append(handlers, NewStopOnFailHandler(1))
	}

	if r.handler != nil {
		handlers = append(handlers, r.handler)
	}

	ex := &execution{
		Runner:  r,
		handler: NewMultiHandler(handlers...),
		stats:   NewStats(),
	}

	run := &Run{root: root, stats: ex.stats, version: Version}

	err := ex.emit(ctx, Event{Action: ActionStart, Suite: root})
	if err == nil {
		err = ex.runSuite(ctx, root)
	}

	if errors.Is(err, ErrMaxFailures) {
		r.logger.Debug("stopping after max failures")
		err = nil
	}

	endErr := ex.emit(ctx, Event{Action: ActionEnd, Suite: root, Run: run})
	if err == nil {
		err = endErr
	}

	return run, err
}

// execution is the state of a single Run call.
type execution struct {
	*Runner

	handler Handler
	stats   *Stats
}

func (ex *execution) emit(ctx context.Context, event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	return ex.handler.Event(ctx, event, ex.stats)
}

func (ex *execution) runSuite(ctx context.Context, s *Suite) error {
	path := s.FullTitle()

	if err := ex.emit(ctx, Event{Action: ActionSuite, Suite: s, Path: path}); err != nil {
		return err
	}

	ex.logger.Debug("suite", zap.Strings("path", path), zap.Bool("pending", s.IsPending()))

	// Tests of a pending suite are never reached, so they keep no state.
	if s.IsPending() || !ex.hasMatches(s) {
		return ex.emit(ctx, Event{Action: ActionSuiteEnd, Suite: s, Path: path})
	}

	env := s.env()

	ok, err := ex.runHooks(ctx, s.BeforeAll, env)
	if err != nil {
		return err
	}

	if ok {
		if err := ex.runTests(ctx, s, env); err != nil {
			return err
		}

		for _, child := range s.Suites {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := ex.runSuite(ctx, child); err != nil {
				return err
			}
		}
	}

	if _, err := ex.runHooks(ctx, s.AfterAll, env); err != nil {
		return err
	}

	return ex.emit(ctx, Event{Action: ActionSuiteEnd, Suite: s, Path: path})
}

func (ex *execution) runTests(ctx context.Context, s *Suite, suiteEnv map[string]any) error {
	for _, t := range s.Tests {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := t.FullTitle()
		if !ex.matchesFilter(path) {
			continue
		}

		if t.IsPending() {
			t.State = StatePending

			if err := ex.emit(ctx, Event{Action: ActionPending, Suite: s, Test: t, Path: path}); err != nil {
				return err
			}

			continue
		}

		env := copyEnv(suiteEnv)

		ok, err := ex.runHooks(ctx, beforeEachChain(s), env)
		if err != nil {
			return err
		}

		if !ok {
			// A failing beforeEach hook skips the rest of the suite.
			return nil
		}

		if err := ex.runTest(ctx, t, env); err != nil {
			return err
		}

		ok, err = ex.runHooks(ctx, afterEachChain(s), env)
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}
	}

	return nil
}

func (ex *execution) runTest(ctx context.Context, t *Test, env map[string]any) error {
	path := t.FullTitle()

	if err := ex.emit(ctx, Event{Action: ActionTest, Suite: t.Parent, Test: t, Path: path}); err != nil {
		return err
	}

	var (
		elapsed time.Duration
		failure any
	)

	retries := t.Retries()

	for attempt := 0; ; attempt++ {
		t.currentRetry = attempt

		start := time.Now()
		out, timedOut, payload := evaluate(ctx, t.Body, env, t.timeoutDuration())
		elapsed = time.Since(start)

		t.TimedOut = timedOut
		failure = payload

		if failure == nil && out == false {
			failure = newAssertionError(t.Body, out)
		}

		if failure == nil || attempt >= retries {
			break
		}

		ex.logger.Debug("retrying test", zap.Strings("path", path), zap.Int("attempt", attempt+1))

		err := ex.emit(ctx, Event{Action: ActionRetry, Suite: t.Parent, Test: t, Path: path, Elapsed: elapsed, Error: failure})
		if err != nil {
			return err
		}
	}

	t.setDuration(elapsed)

	action := ActionPass

	if failure != nil {
		action = ActionFail
		t.State = StateFailed
		t.Err = failure
	} else {
		t.State = StatePassed
		t.Speed = classifySpeed(elapsed, t.slowDuration())
	}

	// The test is counted before pass/fail is announced so handlers see
	// consistent totals.
	if err := ex.emit(ctx, Event{Action: ActionTestEnd, Suite: t.Parent, Test: t, Path: path, Elapsed: elapsed}); err != nil {
		return err
	}

	return ex.emit(ctx, Event{Action: action, Suite: t.Parent, Test: t, Path: path, Elapsed: elapsed, Error: failure})
}

// runHooks runs hooks in order. A hook returning a map merges it into env.
// ok is false when a hook failed.
func (ex *execution) runHooks(ctx context.Context, hooks []*Hook, env map[string]any) (bool, error) {
	for _, h := range hooks {
		path := h.FullTitle()

		start := time.Now()
		out, timedOut, payload := evaluate(ctx, h.Body, env, h.timeoutDuration())
		elapsed := time.Since(start)

		h.setDuration(elapsed)
		h.TimedOut = timedOut

		if payload != nil {
			h.State = StateFailed
			h.Err = payload

			ex.logger.Debug("hook failed", zap.Strings("path", path), zap.Any("error", payload))

			err := ex.emit(ctx, Event{Action: ActionFail, Suite: h.Parent, Hook: h, Path: path, Elapsed: elapsed, Error: payload})

			return false, err
		}

		h.State = StatePassed

		if vars, ok := out.(map[string]any); ok {
			for k, v := range vars {
				env[k] = v
			}
		}
	}

	return true, nil
}

type outcome struct {
	value   any
	payload any
}

// evaluate compiles and runs body against env. payload is the failure, if
// any: an error, or whatever the evaluation panicked with.
func evaluate(ctx context.Context, body string, env map[string]any, timeout time.Duration) (value any, timedOut bool, payload any) {
	if strings.TrimSpace(body) == "" {
		return nil, false, nil
	}

	program, err := expr.Compile(body, expr.Env(env))
	if err != nil {
		return nil, false, pkgerrors.WithStack(err)
	}

	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{payload: rec}
			}
		}()

		out, err := expr.Run(program, env)
		if err != nil {
			done <- outcome{payload: pkgerrors.WithStack(err)}
			return
		}

		done <- outcome{value: out}
	}()

	var deadline <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		deadline = timer.C
	}

	select {
	case o := <-done:
		return o.value, false, o.payload
	case <-deadline:
		return nil, true, timeoutError(timeout.Milliseconds())
	case <-ctx.Done():
		return nil, false, fmt.Errorf("aborted: %w", ctx.Err())
	}
}

func classifySpeed(elapsed, slow time.Duration) Speed {
	switch {
	case elapsed > slow:
		return SpeedSlow
	case elapsed > slow/2:
		return SpeedMedium
	default:
		return SpeedFast
	}
}

// beforeEachChain collects beforeEach hooks from the root down to s.
func beforeEachChain(s *Suite) []*Hook {
	var chain []*Hook
	for cur := s; cur != nil; cur = cur.Parent {
		chain = append(append([]*Hook(nil), cur.BeforeEach...), chain...)
	}

	return chain
}

// afterEachChain collects afterEach hooks from s up to the root.
func afterEachChain(s *Suite) []*Hook {
	var chain []*Hook
	for cur := s; cur != nil; cur = cur.Parent {
		chain = append(chain, cur.AfterEach...)
	}

	return chain
}

func copyEnv(env map[string]any) map[string]any {
	out := make(map[string]any, len(env))
	for k, v := range env {
		out[k] = v
	}

	return out
}

// hasMatches reports whether any test at or below s passes the filter.
func (ex *execution) hasMatches(s *Suite) bool {
	if ex.filter == nil {
		return true
	}

	for _, t := range s.Tests {
		if ex.matchesFilter(t.FullTitle()) {
			return true
		}
	}

	for _, child := range s.Suites {
		if ex.hasMatches(child) {
			return true
		}
	}

	return false
}

// matchesFilter returns true if the test path matches the filter pattern.
// If no filter is set, all tests match.
func (r *Runner) matchesFilter(path []string) bool {
	if r.filter == nil {
		return true
	}

	pathStr := strings.Join(path, "/")

	return r.filter.MatchString(pathStr)
}
