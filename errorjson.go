package suitejson

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"

	"github.com/pkg/errors"
)

// baseErrorPackages hold the anonymous error kinds produced by errors.New,
// fmt.Errorf and friends. Their concrete type names are implementation
// details, so they are reported under the generic name "Error".
var baseErrorPackages = map[string]bool{
	"errors":                true,
	"fmt":                   true,
	"github.com/pkg/errors": true,
	"go.uber.org/multierr":  true,
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// NormalizeError converts an error into an Object holding every field of the
// concrete error value, exported or not, plus its message and type name.
// Values that are not errors, including nil, are returned unchanged.
func NormalizeError(v any) any {
	err, ok := v.(error)
	if !ok || err == nil {
		return v
	}

	out := NewObject()
	if rv := reflect.ValueOf(err); rv.Kind() == reflect.Pointer {
		out.origin = rv
	}

	if st, ok := err.(stackTracer); ok {
		out.Set("stack", strings.TrimLeft(fmt.Sprintf("%+v", st.StackTrace()), "\n"))
	}

	out.Set("message", fmt.Sprint(err))

	rv := indirect(reflect.ValueOf(err))
	if rv.Kind() == reflect.Struct {
		if !rv.CanAddr() {
			tmp := reflect.New(rv.Type()).Elem()
			tmp.Set(rv)
			rv = tmp
		}

		for i := range rv.NumField() {
			key := ownFieldName(rv.Type().Field(i))
			if out.Has(key) {
				continue
			}

			out.Set(key, ownFieldValue(rv.Field(i)))
		}
	}

	out.Set("constructorName", constructorName(err))

	return out
}

// ownFieldName names a struct field the way it is serialized, but unlike
// encoding/json never hides a field.
func ownFieldName(sf reflect.StructField) string {
	if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}

	return lowerFirst(sf.Name)
}

// ownFieldValue reads a field of an addressable struct, unexported or not.
func ownFieldValue(f reflect.Value) any {
	if f.CanInterface() {
		return f.Interface()
	}

	return reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem().Interface()
}

func constructorName(err error) string {
	t := indirectType(reflect.TypeOf(err))
	if t.Name() == "" || baseErrorPackages[t.PkgPath()] {
		return "Error"
	}

	return t.Name()
}
