// Package typeof classifies values more precisely than a type switch on kind.
package typeof

import (
	"encoding/json"
	"reflect"
	"regexp"
	"time"
)

// Type is the tag returned by Of
type Type string

const (
	Undefined Type = "Undefined"
	Null      Type = "Null"
	String    Type = "String"
	Number    Type = "Number"
	Boolean   Type = "Boolean"
	Object    Type = "Object"
	Array     Type = "Array"
	Function  Type = "Function"
	Map       Type = "Map"
	Set       Type = "Set"
	Date      Type = "Date"
	RegExp    Type = "RegExp"
	Error     Type = "Error"
	Promise   Type = "Promise"
	Unknown   Type = "Unknown"
)

var (
	errorType  = reflect.TypeOf((*error)(nil)).Elem()
	timeType   = reflect.TypeOf(time.Time{})
	regexpType = reflect.TypeOf(regexp.Regexp{})
	numberType = reflect.TypeOf(json.Number(""))
	emptyType  = reflect.TypeOf(struct{}{})
)

// Of returns the tag for v. It never panics.
//
// A nil interface is Undefined while a typed nil (pointer, map, slice, func,
// chan) is Null. Channels are reported as Promise since they are the
// closest thing Go has to a pending value.
func Of(v any) Type {
	if v == nil {
		return Undefined
	}
	return of(reflect.ValueOf(v))
}

func of(rv reflect.Value) Type {
	if !rv.IsValid() {
		return Undefined
	}

	t := rv.Type()

	switch t {
	case timeType:
		return Date
	case regexpType:
		return RegExp
	case numberType:
		return Number
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			return Null
		}
	}

	// Errors win over their underlying shape
	if t.Implements(errorType) {
		return Error
	}

	switch rv.Kind() {
	case reflect.String:
		return String
	case reflect.Bool:
		return Boolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return Number
	case reflect.Slice, reflect.Array:
		return Array
	case reflect.Func:
		return Function
	case reflect.Chan:
		return Promise
	case reflect.Struct:
		return Object
	case reflect.Map:
		if t.Elem() == emptyType {
			return Set
		}
		if t.Key().Kind() == reflect.String {
			return Object
		}
		return Map
	case reflect.Ptr, reflect.Interface:
		return of(rv.Elem())
	}

	return Unknown
}

// IsStructured reports whether v is an Object or an Array, the shapes that
// are serialized as JSON rather than sent as text.
func IsStructured(v any) bool {
	switch Of(v) {
	case Object, Array, Map, Set:
		return true
	}
	return false
}
