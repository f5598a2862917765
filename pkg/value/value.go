// Package value defines the NX value tree: the stable, JSON-like data model
// that evaluation produces and the API surface serializes.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Value is an immutable NX value. The zero value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	rec  *Record
}

// Record is a property map with an optional type name. When serialized the
// type name becomes a "$type" property; the remaining keys are emitted in
// sorted order.
type Record struct {
	TypeName string
	props    map[string]Value
}

// NewRecord creates an empty record with the given type name ("" for none).
func NewRecord(typeName string) *Record {
	return &Record{TypeName: typeName, props: make(map[string]Value)}
}

// Set stores a property.
func (r *Record) Set(key string, v Value) {
	r.props[key] = v
}

// Get returns a property and whether it exists.
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.props[key]
	return v, ok
}

// Len returns the number of properties, excluding the type name.
func (r *Record) Len() int {
	return len(r.props)
}

// Keys returns the property keys in sorted order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.props))
	for k := range r.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Bool wraps a bool.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int wraps an int64.
func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

// Float wraps a float64.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// String wraps a string.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Array wraps a slice of values.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, arr: elems}
}

// Rec wraps a record.
func Rec(r *Record) Value {
	return Value{kind: KindRecord, rec: r}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsBool returns the bool payload; ok is false for other kinds.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the int payload; ok is false for other kinds.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsFloat returns the float payload. Ints convert; ok is false otherwise.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsString returns the string payload; ok is false for other kinds.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsArray returns the element slice; ok is false for other kinds.
func (v Value) AsArray() ([]Value, bool) {
	return v.arr, v.kind == KindArray
}

// AsRecord returns the record; ok is false for other kinds.
func (v Value) AsRecord() (*Record, bool) {
	return v.rec, v.kind == KindRecord
}

// Equal reports deep equality. Int and float compare as distinct kinds.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		if v.rec.TypeName != o.rec.TypeName || len(v.rec.props) != len(o.rec.props) {
			return false
		}
		for k, pv := range v.rec.props {
			ov, ok := o.rec.props[k]
			if !ok || !pv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for display.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(v.s))
	case KindArray:
		sb.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.write(sb)
		}
		sb.WriteByte(']')
	case KindRecord:
		sb.WriteByte('{')
		first := true
		if v.rec.TypeName != "" {
			fmt.Fprintf(sb, "$type: %s", v.rec.TypeName)
			first = false
		}
		for _, k := range v.rec.Keys() {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(k)
			sb.WriteString(": ")
			pv := v.rec.props[k]
			pv.write(sb)
		}
		sb.WriteByte('}')
	}
}
