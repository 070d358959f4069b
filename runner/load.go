package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// suiteDef is the YAML shape of a suite. A file holds one suite.
//
//	title: Math
//	env: {x: 2}
//	beforeEach:
//	  - "{y: x * 2}"
//	tests:
//	  - title: doubles
//	    body: y == 4
type suiteDef struct {
	Title   string         `yaml:"title"`
	Skip    bool           `yaml:"skip"`
	Env     map[string]any `yaml:"env"`
	Timeout *duration      `yaml:"timeout"`
	Slow    *duration      `yaml:"slow"`
	Retries *int           `yaml:"retries"`

	BeforeAll  []hookDef `yaml:"beforeAll"`
	BeforeEach []hookDef `yaml:"beforeEach"`
	AfterEach  []hookDef `yaml:"afterEach"`
	AfterAll   []hookDef `yaml:"afterAll"`

	Tests  []testDef  `yaml:"tests"`
	Suites []suiteDef `yaml:"suites"`
}

type testDef struct {
	Title   string    `yaml:"title"`
	Body    string    `yaml:"body"`
	Skip    bool      `yaml:"skip"`
	Timeout *duration `yaml:"timeout"`
	Slow    *duration `yaml:"slow"`
	Retries *int      `yaml:"retries"`
}

// hookDef is either a bare body or a mapping with a name.
type hookDef struct {
	Name    string    `yaml:"name"`
	Body    string    `yaml:"body"`
	Timeout *duration `yaml:"timeout"`
}

// UnmarshalYAML accepts a scalar body as shorthand.
func (h *hookDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		h.Body = node.Value
		return nil
	}

	type plain hookDef

	return node.Decode((*plain)(h))
}

// duration is either a Go duration string ("500ms") or milliseconds.
type duration time.Duration

// UnmarshalYAML parses a duration.
func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected duration", node.Line)
	}

	if ms, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*d = duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}

	*d = duration(parsed)

	return nil
}

// Load parses suite files into a new root suite, one child suite per file.
// Every file is attempted; the errors of all failing files are combined.
func Load(paths ...string) (*Suite, error) {
	root := NewRootSuite()

	var errs error

	for _, path := range paths {
		s, err := LoadFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		root.AddSuite(s)
	}

	if errs != nil {
		return nil, errs
	}

	return root, nil
}

// LoadFile parses a single suite file. The suite title defaults to the file
// name without its extensions.
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSuiteFile, err)
	}

	var def suiteDef

	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSuiteFile, path, err)
	}

	if def.Title == "" {
		def.Title = titleFromPath(path)
	}

	return def.build(path), nil
}

// titleFromPath turns "math.suite.yaml" into "math".
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return strings.TrimSuffix(name, ".suite")
}

func (def *suiteDef) build(file string) *Suite {
	s := NewSuite(def.Title)
	s.File = file
	s.Pending = def.Skip
	s.Env = def.Env

	if def.Timeout != nil {
		s.SetTimeout(time.Duration(*def.Timeout))
	}

	if def.Slow != nil {
		s.SetSlow(time.Duration(*def.Slow))
	}

	if def.Retries != nil {
		s.SetRetries(*def.Retries)
	}

	addHooks(s, HookBeforeAll, def.BeforeAll)
	addHooks(s, HookBeforeEach, def.BeforeEach)
	addHooks(s, HookAfterEach, def.AfterEach)
	addHooks(s, HookAfterAll, def.AfterAll)

	for _, td := range def.Tests {
		t := s.AddTest(NewTest(td.Title, td.Body))
		if td.Skip {
			t.Pending = true
		}

		if td.Timeout != nil {
			t.SetTimeout(time.Duration(*td.Timeout))
		}

		if td.Slow != nil {
			t.SetSlow(time.Duration(*td.Slow))
		}

		if td.Retries != nil {
			t.SetRetries(*td.Retries)
		}
	}

	for i := range def.Suites {
		s.AddSuite(def.Suites[i].build(file))
	}

	return s
}

func addHooks(s *Suite, kind HookKind, defs []hookDef) {
	for _, hd := range defs {
		h := s.AddHook(kind, NewHook(kind, hd.Name, hd.Body))
		if hd.Timeout != nil {
			h.SetTimeout(time.Duration(*hd.Timeout))
		}
	}
}
