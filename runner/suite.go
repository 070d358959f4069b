package runner

import (
	"time"
)

// Version is the host version reported to reporters.
const Version = "2.1.0"

// Defaults used when no suite in the chain sets a value.
const (
	DefaultTimeout = 2 * time.Second
	DefaultSlow    = 75 * time.Millisecond
)

// Node types.
const (
	TypeTest = "test"
	TypeHook = "hook"
)

// State is the outcome of a test or hook. It stays empty until the node is
// reached, so tests below a skipped suite never get one.
type State string

// State constants.
const (
	StatePassed  State = "passed"
	StateFailed  State = "failed"
	StatePending State = "pending"
)

// Speed classifies a passed test's duration against its slow threshold.
type Speed string

// Speed constants.
const (
	SpeedFast   Speed = "fast"
	SpeedMedium Speed = "medium"
	SpeedSlow   Speed = "slow"
)

// settings are the values a suite, test or hook may override. Unset values
// are inherited from the parent suite.
type settings struct {
	timeout *time.Duration
	slow    *time.Duration
	retries *int
}

// Suite is a group of tests, hooks and nested suites.
type Suite struct {
	Title   string `json:"title"`
	Pending bool   `json:"pending"`
	Root    bool   `json:"root"`
	File    string `json:"file,omitempty"`

	BeforeAll  []*Hook  `json:"beforeAll"`
	BeforeEach []*Hook  `json:"beforeEach"`
	AfterEach  []*Hook  `json:"afterEach"`
	AfterAll   []*Hook  `json:"afterAll"`
	Tests      []*Test  `json:"tests"`
	Suites     []*Suite `json:"suites"`

	// Env holds variables visible to the bodies of this suite and its
	// descendants.
	Env map[string]any `json:"-"`

	Parent *Suite `json:"-"`

	settings
}

// NewRootSuite creates the untitled suite every run starts from.
func NewRootSuite() *Suite {
	return &Suite{Root: true}
}

// NewSuite creates a suite with the given title.
func NewSuite(title string) *Suite {
	return &Suite{Title: title}
}

// AddSuite appends child and makes s its parent.
func (s *Suite) AddSuite(child *Suite) *Suite {
	child.Parent = s
	s.Suites = append(s.Suites, child)

	return child
}

// AddTest appends a test and makes s its parent.
func (s *Suite) AddTest(t *Test) *Test {
	t.Parent = s
	if t.File == "" {
		t.File = s.File
	}

	s.Tests = append(s.Tests, t)

	return t
}

// AddHook appends h to the hook list for kind and makes s its parent.
func (s *Suite) AddHook(kind HookKind, h *Hook) *Hook {
	h.Parent = s
	h.Type = TypeHook
	h.kind = kind

	if h.File == "" {
		h.File = s.File
	}

	switch kind {
	case HookBeforeAll:
		s.BeforeAll = append(s.BeforeAll, h)
	case HookBeforeEach:
		s.BeforeEach = append(s.BeforeEach, h)
	case HookAfterEach:
		s.AfterEach = append(s.AfterEach, h)
	case HookAfterAll:
		s.AfterAll = append(s.AfterAll, h)
	}

	return h
}

// SetTimeout overrides the timeout for s and everything below it.
func (s *Suite) SetTimeout(d time.Duration) { s.timeout = &d }

// SetSlow overrides the slow threshold for s and everything below it.
func (s *Suite) SetSlow(d time.Duration) { s.slow = &d }

// SetRetries overrides the retry count for s and everything below it.
func (s *Suite) SetRetries(n int) { s.retries = &n }

// Timeout returns the effective timeout in milliseconds.
func (s *Suite) Timeout() int64 { return s.timeoutDuration().Milliseconds() }

// Slow returns the effective slow threshold in milliseconds.
func (s *Suite) Slow() int64 { return s.slowDuration().Milliseconds() }

// Retries returns the effective retry count.
func (s *Suite) Retries() int {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.retries != nil {
			return *cur.retries
		}
	}

	return 0
}

// IsPending reports whether s or any of its ancestors is pending.
func (s *Suite) IsPending() bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Pending {
			return true
		}
	}

	return false
}

// FullTitle joins the titles from the root down to s.
func (s *Suite) FullTitle() []string {
	if s == nil || s.Root {
		return nil
	}

	return append(s.Parent.FullTitle(), s.Title)
}

func (s *Suite) timeoutDuration() time.Duration {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.timeout != nil {
			return *cur.timeout
		}
	}

	return DefaultTimeout
}

func (s *Suite) slowDuration() time.Duration {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.slow != nil {
			return *cur.slow
		}
	}

	return DefaultSlow
}

// env returns the variables visible inside s, outermost first so inner
// suites shadow outer ones.
func (s *Suite) env() map[string]any {
	var chain []*Suite
	for cur := s; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}

	env := make(map[string]any)

	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Env {
			env[k] = v
		}
	}

	return env
}

// Runnable holds what tests and hooks have in common.
type Runnable struct {
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	Type     string `json:"type"`
	File     string `json:"file,omitempty"`
	Pending  bool   `json:"pending"`
	TimedOut bool   `json:"timedOut"`
	Duration *int64 `json:"duration,omitempty"` // milliseconds, nil until run
	State    State  `json:"state,omitempty"`
	Speed    Speed  `json:"speed,omitempty"`

	// Err is the failure payload: an error, or whatever the body panicked
	// with.
	Err any `json:"err,omitempty"`

	Parent *Suite `json:"-"`

	settings
	currentRetry int
}

// SetTimeout overrides the timeout of r.
func (r *Runnable) SetTimeout(d time.Duration) { r.timeout = &d }

// SetSlow overrides the slow threshold of r.
func (r *Runnable) SetSlow(d time.Duration) { r.slow = &d }

// SetRetries overrides the retry count of r.
func (r *Runnable) SetRetries(n int) { r.retries = &n }

// Timeout returns the effective timeout in milliseconds.
func (r *Runnable) Timeout() int64 { return r.timeoutDuration().Milliseconds() }

// Slow returns the effective slow threshold in milliseconds.
func (r *Runnable) Slow() int64 { return r.slowDuration().Milliseconds() }

// Retries returns the effective retry count.
func (r *Runnable) Retries() int {
	if r.retries != nil {
		return *r.retries
	}

	return r.Parent.Retries()
}

// CurrentRetry returns the attempt the last run was on, starting at 0.
func (r *Runnable) CurrentRetry() int { return r.currentRetry }

// IsPending reports whether r will be skipped.
func (r *Runnable) IsPending() bool {
	return r.Pending || r.Parent.IsPending()
}

// FullTitle joins the titles from the root down to r.
func (r *Runnable) FullTitle() []string {
	return append(r.Parent.FullTitle(), r.Title)
}

func (r *Runnable) timeoutDuration() time.Duration {
	if r.timeout != nil {
		return *r.timeout
	}

	return r.Parent.timeoutDuration()
}

func (r *Runnable) slowDuration() time.Duration {
	if r.slow != nil {
		return *r.slow
	}

	return r.Parent.slowDuration()
}

func (r *Runnable) setDuration(d time.Duration) {
	ms := d.Milliseconds()
	r.Duration = &ms
}

// Test is a single test case. A test without a body is pending.
type Test struct {
	Runnable
}

// NewTest creates a test with the given title and body.
func NewTest(title, body string) *Test {
	t := &Test{}
	t.Title = title
	t.Body = body
	t.Type = TypeTest
	t.Pending = body == ""

	return t
}

// HookKind selects one of a suite's hook lists.
type HookKind string

// Hook kinds, in the order a suite runs them.
const (
	HookBeforeAll  HookKind = "before all"
	HookBeforeEach HookKind = "before each"
	HookAfterEach  HookKind = "after each"
	HookAfterAll   HookKind = "after all"
)

// Hook runs around the tests of a suite.
type Hook struct {
	Runnable

	kind HookKind
}

// NewHook creates a hook. Its title follows the `"before each" hook: name`
// convention.
func NewHook(kind HookKind, name, body string) *Hook {
	h := &Hook{kind: kind}
	h.Title = `"` + string(kind) + `" hook`

	if name != "" {
		h.Title += ": " + name
	}

	h.Body = body
	h.Type = TypeHook

	return h
}

// Kind returns which hook list h belongs to.
func (h *Hook) Kind() HookKind { return h.kind }
