package suitejson

import (
	"fmt"
	"reflect"
)

// Node types as reported in the "type" field of tests and hooks.
const (
	TypeTest = "test"
	TypeHook = "hook"
)

// Child collection keys, in emission order. Hook lists come first, in the
// order the host runs them.
const (
	KeyBeforeAll  = "beforeAll"
	KeyBeforeEach = "beforeEach"
	KeyAfterEach  = "afterEach"
	KeyAfterAll   = "afterAll"
	KeyTests      = "tests"
	KeySuites     = "suites"
	KeyErr        = "err"
)

var hookLists = []string{KeyBeforeAll, KeyBeforeEach, KeyAfterEach, KeyAfterAll}

// Visitor walks a host suite tree depth first and builds its projection.
// A Visitor holds no state besides its Capabilities.
type Visitor struct {
	caps Capabilities
}

// NewVisitor creates a Visitor for a host with the given capabilities.
func NewVisitor(caps Capabilities) *Visitor {
	return &Visitor{caps: caps}
}

// Visit projects root and everything below it. The only error it returns is
// a contract violation raised while projecting a node.
func (v *Visitor) Visit(root any) (*Object, error) {
	return v.suite(root)
}

func (v *Visitor) suite(node any) (*Object, error) {
	out, err := Project(node, suiteFields, suiteAccessors)
	if err != nil {
		return nil, err
	}

	src := newSource(node)

	for _, key := range hookLists {
		if err := v.collect(src, key, out, v.hook); err != nil {
			return nil, err
		}
	}

	if err := v.collect(src, KeyTests, out, v.test); err != nil {
		return nil, err
	}

	err = v.collect(src, KeySuites, out, func(child any) (*Object, error) {
		return v.suite(child)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (v *Visitor) hook(node any) (*Object, error) {
	return v.runnable(node, true)
}

func (v *Visitor) test(node any) (*Object, error) {
	return v.runnable(node, false)
}

// runnable projects a test or hook. It returns nil for a suppressed test.
func (v *Visitor) runnable(node any, isHook bool) (*Object, error) {
	out, err := Project(node, testFields, testAccessors)
	if err != nil {
		return nil, err
	}

	if !isHook && v.suppressed(out) {
		return nil, nil
	}

	if payload, ok := newSource(node).lookup(KeyErr); ok {
		out.Set(KeyErr, Decycle(NormalizeError(payload.Interface())))
	}

	return out, nil
}

// suppressed reports whether a projected test is a pending test that a host
// with explicit pending state never reached.
func (v *Visitor) suppressed(out *Object) bool {
	if !v.caps.PendingHasState {
		return false
	}

	if typ, _ := out.Get("type"); typ == TypeHook {
		return false
	}

	pending, _ := out.Get("pending")

	return pending == true && !out.Has("state")
}

// collect visits the list stored under key and sets it on out when at least
// one child was emitted.
func (v *Visitor) collect(src source, key string, out *Object, visit func(any) (*Object, error)) error {
	list, ok := src.lookup(key)
	if !ok {
		return nil
	}

	list = indirect(list)
	if !list.IsValid() || (list.Kind() != reflect.Slice && list.Kind() != reflect.Array) {
		return nil
	}

	children := make([]any, 0, list.Len())

	for i := range list.Len() {
		child, err := visit(list.Index(i).Interface())
		if err != nil {
			return fmt.Errorf("%s[%d]: %w", key, i, err)
		}

		if child != nil {
			children = append(children, child)
		}
	}

	if len(children) > 0 {
		out.Set(key, children)
	}

	return nil
}
