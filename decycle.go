package suitejson

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

var (
	marshalerType     = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	objectType        = reflect.TypeFor[*Object]()
	numberType        = reflect.TypeFor[json.Number]()
)

// Decycle turns an arbitrary value into one that encodes as JSON.
//
// A top-level MarshalJSON/MarshalText hook is honoured on its own: if it
// fails the result is a diagnostic string. Otherwise the value is walked
// depth first and any container already on the current path is replaced by
// a textual description. If that walk fails, it is retried once with every
// nested hook ignored. If that fails too, a diagnostic string is returned.
// Decycle never panics.
func Decycle(v any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = diagnostic(fmt.Errorf("panic: %v", r))
		}
	}()

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || isNil(rv) {
		return nil
	}

	if hook, ok := hookOf(rv); ok {
		res, err := callHook(hook)
		if err != nil {
			return fmt.Sprintf("[MarshalJSON failed: %v]", err)
		}

		return res
	}

	res, err := newEncoder(true).encode(rv)
	if err != nil {
		// Anything a nested hook produced before failing is discarded.
		res, err = newEncoder(false).encode(rv)
	}

	if err != nil {
		return diagnostic(err)
	}

	return res
}

func diagnostic(err error) string {
	return fmt.Sprintf("[unserializable value: %v]", err)
}

// visit identifies a container by address, type and, for slices, length.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type encoder struct {
	hooks bool
	path  map[visit]bool
}

func newEncoder(hooks bool) *encoder {
	return &encoder{hooks: hooks, path: make(map[visit]bool)}
}

// encode walks rv and re-parses the encoded text so the result only holds
// decoded JSON values.
func (e *encoder) encode(rv reflect.Value) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	walked, _, err := e.walk(rv)
	if err != nil {
		return nil, err
	}

	data, err := marshal(walked)
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

// walk returns the JSON-safe form of v. defined is false for values JSON has
// no representation for (funcs, channels, complex numbers).
func (e *encoder) walk(v reflect.Value) (out any, defined bool, err error) {
	if !v.IsValid() {
		return nil, true, nil
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, true, nil
		}

		return e.walk(v.Elem())
	}

	switch v.Type() {
	case objectType:
		return e.walkObject(v)
	case numberType:
		return v.Interface(), true, nil
	}

	if e.hooks {
		if hook, ok := hookOf(v); ok {
			res, err := callHook(hook)
			return res, true, err
		}
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil, true, nil
		}

		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if e.path[key] {
			return describe(v), true, nil
		}

		e.path[key] = true
		defer delete(e.path, key)

		return e.walk(v.Elem())
	case reflect.Map:
		if v.IsNil() {
			return nil, true, nil
		}

		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if e.path[key] {
			return describe(v), true, nil
		}

		e.path[key] = true
		defer delete(e.path, key)

		return e.walkMap(v)
	case reflect.Slice:
		if v.IsNil() {
			return nil, true, nil
		}

		if v.Type().Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(v.Bytes()), true, nil
		}

		key := visit{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}
		if v.Len() > 0 {
			if e.path[key] {
				return describe(v), true, nil
			}

			e.path[key] = true
			defer delete(e.path, key)
		}

		return e.walkList(v)
	case reflect.Array:
		return e.walkList(v)
	case reflect.Struct:
		return e.walkStruct(v)
	case reflect.Bool:
		return v.Bool(), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true, nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, true, nil
		}

		return f, true, nil
	case reflect.String:
		return v.String(), true, nil
	default:
		return nil, false, nil
	}
}

func (e *encoder) walkObject(v reflect.Value) (any, bool, error) {
	obj, _ := v.Interface().(*Object)
	if obj == nil {
		return nil, true, nil
	}

	keys := []visit{{ptr: v.Pointer(), typ: objectType}}
	if obj.origin.IsValid() {
		keys = append(keys, visit{ptr: obj.origin.Pointer(), typ: obj.origin.Type()})
	}

	for _, key := range keys {
		if e.path[key] {
			return describe(v), true, nil
		}
	}

	for _, key := range keys {
		e.path[key] = true
		defer delete(e.path, key)
	}

	out := NewObject()

	for _, m := range obj.members {
		val, ok, err := e.walk(reflect.ValueOf(m.Value))
		if err != nil {
			return nil, false, err
		}

		if ok {
			out.Set(m.Key, val)
		}
	}

	return out, true, nil
}

func (e *encoder) walkMap(v reflect.Value) (any, bool, error) {
	type entry struct {
		key string
		val reflect.Value
	}

	entries := make([]entry, 0, v.Len())

	iter := v.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: mapKey(iter.Key()), val: iter.Value()})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	out := NewObject()

	for _, en := range entries {
		val, ok, err := e.walk(en.val)
		if err != nil {
			return nil, false, err
		}

		if ok {
			out.Set(en.key, val)
		}
	}

	return out, true, nil
}

func (e *encoder) walkList(v reflect.Value) (any, bool, error) {
	out := make([]any, v.Len())

	for i := range v.Len() {
		val, ok, err := e.walk(v.Index(i))
		if err != nil {
			return nil, false, err
		}

		if ok {
			out[i] = val
		}
	}

	return out, true, nil
}

func (e *encoder) walkStruct(v reflect.Value) (any, bool, error) {
	out := NewObject()

	for _, sf := range jsonFields(v.Type()) {
		name, omitEmpty, ok := jsonName(sf)
		if !ok {
			continue
		}

		fv, err := v.FieldByIndexErr(sf.Index)
		if err != nil || !fv.CanInterface() {
			continue
		}

		if omitEmpty && isEmptyValue(fv) {
			continue
		}

		val, ok, err := e.walk(fv)
		if err != nil {
			return nil, false, fmt.Errorf("%s.%s: %w", v.Type(), sf.Name, err)
		}

		if ok {
			out.Set(name, val)
		}
	}

	return out, true, nil
}

// hookOf returns the custom serialization hook of v, if it has one.
func hookOf(v reflect.Value) (any, bool) {
	if v.Type() == objectType || !v.CanInterface() {
		return nil, false
	}

	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false
	}

	t := v.Type()
	if t.Implements(marshalerType) || t.Implements(textMarshalerType) {
		return v.Interface(), true
	}

	if v.CanAddr() {
		pt := reflect.PointerTo(t)
		if pt.Implements(marshalerType) || pt.Implements(textMarshalerType) {
			return v.Addr().Interface(), true
		}
	}

	return nil, false
}

// callHook invokes a MarshalJSON or MarshalText hook and decodes its output.
func callHook(hook any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	switch h := hook.(type) {
	case json.Marshaler:
		data, err := h.MarshalJSON()
		if err != nil {
			return nil, err
		}

		return Decode(data)
	case encoding.TextMarshaler:
		text, err := h.MarshalText()
		if err != nil {
			return nil, err
		}

		return string(text), nil
	default:
		return nil, fmt.Errorf("%T has no serialization hook", hook)
	}
}

// describe is the placeholder written where a cycle would re-enter v.
func describe(v reflect.Value) string {
	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case *Object:
			if x.origin.IsValid() && x.origin.CanInterface() {
				return describe(x.origin)
			}
		case error:
			return constructorName(x) + ": " + fmt.Sprint(x)
		case fmt.Stringer:
			return fmt.Sprint(x)
		}
	}

	t := indirectType(v.Type())

	switch {
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		return "[object Array]"
	case t.Kind() == reflect.Struct && t.Name() != "":
		return "[object " + t.Name() + "]"
	default:
		return "[object Object]"
	}
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}

	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		if text, err := tm.MarshalText(); err == nil {
			return string(text)
		}
	}

	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	default:
		return fmt.Sprint(k.Interface())
	}
}

// isEmptyValue mirrors the omitempty rule of encoding/json.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	default:
		return false
	}
}
