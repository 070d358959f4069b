// Package suitejson serializes test-result trees to JSON.
//
// A host test runner hands over its live suite tree when a run completes.
// The tree is projected onto a fixed set of fields, failure payloads are
// normalized and stripped of cycles, and the result is written as a single
// document of the form {"suite": ..., "stats": ...}.
package suitejson

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Envelope is the document produced for one run.
type Envelope struct {
	Suite *Object
	// Stats is the host's summary object, copied verbatim. Nil when stats
	// are excluded.
	Stats any
}

// Build visits root and wraps the result together with stats.
func Build(root, stats any, caps Capabilities, includeStats bool) (*Envelope, error) {
	suite, err := NewVisitor(caps).Visit(root)
	if err != nil {
		return nil, err
	}

	env := &Envelope{Suite: suite}
	if includeStats {
		env.Stats = stats
	}

	return env, nil
}

// MarshalJSON encodes the envelope as {"suite": ..., "stats": ...}.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	obj := NewObject()
	obj.Set("suite", e.Suite)

	if e.Stats != nil {
		obj.Set("stats", e.Stats)
	}

	return obj.MarshalJSON()
}

// Encode renders the envelope with the transform and indentation of opts.
// Encoding the same envelope with the same options always yields the same
// bytes.
func (e *Envelope) Encode(opts Options) ([]byte, error) {
	data, err := e.MarshalJSON()
	if err != nil {
		return nil, err
	}

	if opts.Transform != nil {
		doc, err := Decode(data)
		if err != nil {
			return nil, err
		}

		doc = transform(opts.Transform, "", doc)
		if doc == Omit {
			// Nothing is left to write.
			return nil, nil
		}

		data, err = marshal(doc)
		if err != nil {
			return nil, err
		}
	}

	indent := clampIndent(opts.Indent)
	if indent == 0 {
		return data, nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", strings.Repeat(" ", indent)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// transform applies fn to the value first, then to the members of whatever
// fn returned.
func transform(fn TransformFunc, key string, value any) any {
	value = fn(key, value)

	switch v := value.(type) {
	case *Object:
		out := NewObject()

		for _, m := range v.Members() {
			if res := transform(fn, m.Key, m.Value); res != Omit {
				out.Set(m.Key, res)
			}
		}

		return out
	case []any:
		out := make([]any, len(v))

		for i, el := range v {
			if res := transform(fn, strconv.Itoa(i), el); res != Omit {
				out[i] = res
			}
		}

		return out
	default:
		return value
	}
}
