package suitejson

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// DefaultIndent is the indentation width used when none, or an invalid one,
// is configured.
const DefaultIndent = 2

// maxIndent caps the indentation width.
const maxIndent = 10

// TransformFunc rewrites values during final encoding. It is called with the
// key "" for the envelope itself and then for every object member and array
// element (keyed by index), parents before children. Values are decoded JSON:
// *Object, []any, json.Number, string, bool or nil. Returning Omit drops an
// object member; inside arrays it becomes null.
type TransformFunc func(key string, value any) any

type omit struct{}

// Omit is returned by a TransformFunc to drop the current value.
var Omit any = omit{}

// Options configure a Reporter for one run.
type Options struct {
	IncludeStats bool
	Transform    TransformFunc
	Indent       int
	// Sink receives the encoded document. When nil the document is written
	// to the reporter's output stream.
	Sink func(text string)
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		IncludeStats: true,
		Indent:       DefaultIndent,
	}
}

// ParseOptions reads a flat options bag on top of DefaultOptions. Recognized
// keys are stats, replacer/transform, space/indent and callback/sink.
// Malformed values are ignored and leave the default in place.
func ParseOptions(bag map[string]any) Options {
	opts := DefaultOptions()
	if bag == nil {
		return opts
	}

	if v, ok := bag["stats"]; ok {
		opts.IncludeStats = ParseBool(v)
	}

	for _, key := range []string{"replacer", "transform"} {
		if fn, ok := asTransform(bag[key]); ok {
			opts.Transform = fn
		}
	}

	for _, key := range []string{"space", "indent"} {
		if v, ok := bag[key]; ok {
			if n, ok := ParseIndent(v); ok {
				opts.Indent = n
			}
		}
	}

	for _, key := range []string{"callback", "sink"} {
		if fn, ok := asSink(bag[key]); ok {
			opts.Sink = fn
		}
	}

	return opts
}

// ParseBool interprets a boolean-like option. Strings are false when they
// read false, no, off or 0 (case-insensitive, trimmed) and true otherwise.
// Other values are false when nil, false, zero or NaN.
func ParseBool(v any) bool {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "false", "no", "off", "0":
			return false
		default:
			return true
		}
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return false
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}

// ParseIndent coerces a number or numeric string to an indentation width.
// Fractions are truncated and the result is clamped to 0..10. ok is false
// when v is not a finite number.
func ParseIndent(v any) (int, bool) {
	var f float64

	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}

		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}

		f = parsed
	default:
		rv := reflect.ValueOf(v)
		if !rv.IsValid() {
			return 0, false
		}

		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			f = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		default:
			return 0, false
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	// Clamped before the conversion so huge values cannot overflow int.
	return int(max(0, min(math.Trunc(f), maxIndent))), true
}

func clampIndent(n int) int {
	return max(0, min(n, maxIndent))
}

func asTransform(v any) (TransformFunc, bool) {
	switch fn := v.(type) {
	case TransformFunc:
		return fn, fn != nil
	case func(key string, value any) any:
		return fn, fn != nil
	default:
		return nil, false
	}
}

func asSink(v any) (func(string), bool) {
	switch fn := v.(type) {
	case func(string):
		return fn, fn != nil
	case func(string) error:
		if fn == nil {
			return nil, false
		}

		return func(text string) { _ = fn(text) }, true
	default:
		return nil, false
	}
}
