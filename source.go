package suitejson

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// source gives name-based access to a host node, which may be a struct, a
// pointer to a struct, or a map keyed by strings.
type source struct {
	orig reflect.Value // as handed over, so pointer-receiver methods resolve
	v    reflect.Value // with pointers and interfaces peeled off
}

func newSource(node any) source {
	orig := reflect.ValueOf(node)
	return source{orig: orig, v: indirect(orig)}
}

// indirect follows pointers and interfaces until it reaches a concrete value
// or a nil.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

// lookup finds the raw value stored under name. ok is false when the node has
// no such field or the field holds an undefined value.
func (s source) lookup(name string) (reflect.Value, bool) {
	switch s.v.Kind() {
	case reflect.Map:
		if s.v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}

		mv := s.v.MapIndex(reflect.ValueOf(name).Convert(s.v.Type().Key()))
		if !mv.IsValid() || isNil(mv) {
			return reflect.Value{}, false
		}

		if mv.Kind() == reflect.Interface {
			mv = mv.Elem()
		}

		return mv, !isNil(mv)
	case reflect.Struct:
		for _, sf := range jsonFields(s.v.Type()) {
			key, omitEmpty, ok := jsonName(sf)
			if !ok || key != name {
				continue
			}

			fv, err := s.v.FieldByIndexErr(sf.Index)
			if err != nil || !fv.CanInterface() || isNil(fv) || (omitEmpty && fv.IsZero()) {
				return reflect.Value{}, false
			}

			if fv.Kind() == reflect.Interface {
				fv = fv.Elem()
			}

			return fv, !isNil(fv)
		}
	}

	return reflect.Value{}, false
}

// field returns the plain value stored under name with pointers peeled off.
func (s source) field(name string) (any, bool) {
	fv, ok := s.lookup(name)
	if !ok {
		return nil, false
	}

	fv = indirect(fv)
	if !fv.IsValid() {
		return nil, false
	}

	return fv.Interface(), true
}

// call invokes the accessor for name: a zero-argument method named by the
// exported form of name, or a func stored under name.
func (s source) call(name string) (any, bool, error) {
	fn := reflect.Value{}

	if s.orig.IsValid() {
		fn = s.orig.MethodByName(exportName(name))
		if !fn.IsValid() && s.v.IsValid() && s.v.Kind() == reflect.Struct {
			fn = s.v.MethodByName(exportName(name))
		}
	}

	if !fn.IsValid() {
		fv, ok := s.lookup(name)
		if !ok {
			return nil, false, &ContractError{Field: name, Kind: "undefined"}
		}

		if fv.Kind() != reflect.Func {
			return nil, false, &ContractError{Field: name, Kind: fv.Kind().String()}
		}

		fn = fv
	}

	ft := fn.Type()
	if ft.NumIn() != 0 || ft.NumOut() == 0 || ft.NumOut() > 2 {
		return nil, false, &ContractError{Field: name, Kind: ft.String()}
	}

	out := fn.Call(nil)

	if len(out) == 2 {
		if errVal, ok := out[1].Interface().(error); ok && errVal != nil {
			return nil, false, fmt.Errorf("suitejson: accessor %s: %w", name, errVal)
		}
	}

	res := indirect(out[0])
	if !res.IsValid() || isNil(res) {
		return nil, false, nil
	}

	return res.Interface(), true, nil
}

// jsonFields returns the exported fields of t in declaration order, promoted
// ones included. An embedded struct with a json name is a field of its own,
// so its fields are not promoted.
func jsonFields(t reflect.Type) []reflect.StructField {
	var (
		fields []reflect.StructField
		named  [][]int
	)

	for _, sf := range reflect.VisibleFields(t) {
		if promotedFrom(sf.Index, named) {
			continue
		}

		if sf.Anonymous && indirectType(sf.Type).Kind() == reflect.Struct {
			if name, _, _ := strings.Cut(sf.Tag.Get("json"), ","); name != "" {
				named = append(named, sf.Index)
			}
		}

		if sf.IsExported() {
			fields = append(fields, sf)
		}
	}

	return fields
}

func promotedFrom(index []int, embedded [][]int) bool {
	for _, prefix := range embedded {
		if len(index) > len(prefix) && slices.Equal(index[:len(prefix)], prefix) {
			return true
		}
	}

	return false
}

// jsonName resolves the key a struct field is known by. ok is false for
// fields hidden with `json:"-"` and for untagged embedded structs, whose
// fields are promoted instead.
func jsonName(sf reflect.StructField) (name string, omitEmpty, ok bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", false, false
	}

	name, opts, _ := strings.Cut(tag, ",")
	omitEmpty = strings.Contains(","+opts+",", ",omitempty,")

	if name == "" {
		if sf.Anonymous && indirectType(sf.Type).Kind() == reflect.Struct {
			return "", false, false
		}

		name = lowerFirst(sf.Name)
	}

	return name, omitEmpty, true
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func lowerFirst(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}
