package suitejson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
)

// Member is a single key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// Object is a JSON object that keeps its keys in insertion order.
//
// Projected nodes, normalized errors and decoded documents are all Objects so
// that encoding follows emission order instead of Go's sorted map order.
type Object struct {
	members []Member
	index   map[string]int

	// origin is the value the object was derived from, if any. The decycler
	// treats the object and its origin as the same container.
	origin reflect.Value
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// Set stores value under key. An existing key keeps its position.
func (o *Object) Set(key string, value any) {
	if o.index == nil {
		o.index = make(map[string]int)
	}

	if i, ok := o.index[key]; ok {
		o.members[i].Value = value
		return
	}

	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: value})
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}

	i, ok := o.index[key]
	if !ok {
		return nil, false
	}

	return o.members[i].Value, true
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}

	keys := make([]string, len(o.members))
	for i, m := range o.members {
		keys[i] = m.Key
	}

	return keys
}

// Members returns a copy of the members in insertion order.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}

	return append([]Member(nil), o.members...)
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	return len(o.members)
}

// MarshalJSON encodes the object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, m := range o.members {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := marshal(m.Key)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", m.Key, err)
		}

		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}

	obj, ok := v.(*Object)
	if !ok {
		return fmt.Errorf("suitejson: cannot decode %T into Object", v)
	}

	o.members, o.index = obj.members, obj.index

	return nil
}

// marshal encodes v without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

var errTrailingData = errors.New("suitejson: trailing data after JSON value")

// Decode parses a JSON document into Objects, []any, json.Number, string,
// bool and nil values, preserving object key order.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()

			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}

				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("suitejson: unexpected object key %v", keyTok)
				}

				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}

				obj.Set(key, val)
			}

			if _, err := dec.Token(); err != nil {
				return nil, err
			}

			return obj, nil
		case '[':
			arr := []any{}

			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}

				arr = append(arr, val)
			}

			if _, err := dec.Token(); err != nil {
				return nil, err
			}

			return arr, nil
		default:
			return nil, fmt.Errorf("suitejson: unexpected delimiter %v", t)
		}
	default:
		return tok, nil
	}
}
