package tabula

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Kind is the bind type of a Value
type Kind int

const (
	KindText Kind = iota
	KindBool
	KindInt
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindNull:
		return "null"
	default:
		return "text"
	}
}

// Value is a parameter value tagged with the bind type used when it is bound to a prepared statement
//
// The set of bind types is closed: anything that is not a bool, an integer or nil is bound as text
type Value struct {
	kind Kind
	b    bool
	i    int64
	s    string
}

// Bool creates a boolean Value
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int creates an integer Value
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Null creates a null Value
func Null() Value {
	return Value{kind: KindNull}
}

// Text creates a text Value
func Text(s string) Value {
	return Value{kind: KindText, s: s}
}

// ValueOf infers the bind type of v
//
// If v is already a Value it is returned as is
func ValueOf(v any) Value {
	switch vt := v.(type) {
	case Value:
		return vt
	case nil:
		return Null()
	case bool:
		return Bool(vt)
	case int:
		return Int(int64(vt))
	case int8:
		return Int(int64(vt))
	case int16:
		return Int(int64(vt))
	case int32:
		return Int(int64(vt))
	case int64:
		return Int(vt)
	case uint:
		return uintValue(uint64(vt))
	case uint8:
		return Int(int64(vt))
	case uint16:
		return Int(int64(vt))
	case uint32:
		return Int(int64(vt))
	case uint64:
		return uintValue(vt)
	case string:
		return Text(vt)
	case []byte:
		return Text(string(vt))
	}
	rv := reflect.ValueOf(v)
	if s, ok := v.(fmt.Stringer); ok && (rv.Kind() != reflect.Pointer || !rv.IsNil()) {
		return Text(s.String())
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintValue(rv.Uint())
	case reflect.Float32:
		return Text(strconv.FormatFloat(rv.Float(), 'f', -1, 32))
	case reflect.Float64:
		return Text(strconv.FormatFloat(rv.Float(), 'f', -1, 64))
	}
	return Text(fmt.Sprint(v))
}

// uintValue binds unsigned integers that overflow int64 as text
func uintValue(u uint64) Value {
	if u > math.MaxInt64 {
		return Text(strconv.FormatUint(u, 10))
	}
	return Int(int64(u))
}

// Kind returns the bind type
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull returns true if the value is null
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Any returns the driver argument for the value - one of bool, int64, nil or string
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindNull:
		return nil
	default:
		return v.s
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindNull:
		return "NULL"
	default:
		return v.s
	}
}
