package codec

import (
	"reflect"
	"strconv"
)

// CheckLayout reports whether t can be copied to and from a byte stream as
// raw memory. Eligible types are sized numeric kinds, bools, and arrays and
// structs built only from them. Structs must not contain padding so that the
// encoded bytes depend on field values alone.
func CheckLayout(t reflect.Type) error {
	if t == nil {
		return &TypeNotEligibleError{Reason: "nil type"}
	}
	if t.Size() == 0 {
		return &TypeNotEligibleError{Type: t, Reason: "zero size"}
	}
	if path, reason := checkLayout(t, ""); reason != "" {
		return &TypeNotEligibleError{Type: t, Path: path, Reason: reason}
	}
	return nil
}

// checkLayout returns the path and reason of the first violation, or an
// empty reason.
func checkLayout(t reflect.Type, path string) (string, string) {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return "", ""

	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return path, "platform sized " + t.Kind().String()

	case reflect.Array:
		return checkLayout(t.Elem(), path+"["+strconv.Itoa(t.Len())+"]")

	case reflect.Struct:
		var sum uintptr
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			fieldPath := f.Name
			if path != "" {
				fieldPath = path + "." + f.Name
			}
			if p, reason := checkLayout(f.Type, fieldPath); reason != "" {
				return p, reason
			}
			sum += f.Type.Size()
		}
		if sum != t.Size() {
			return path, "struct contains " + strconv.Itoa(int(t.Size()-sum)) + " padding bytes"
		}
		return "", ""

	default:
		// Pointers, strings, slices, maps, chans, funcs, interfaces and
		// unsafe.Pointer all reference memory outside the value.
		return path, t.Kind().String() + " references memory outside the value"
	}
}
