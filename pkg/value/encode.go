package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// MarshalJSON encodes the value compactly. Records become objects with a
// "$type" property first (when typed) and the remaining keys sorted.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool, KindInt, KindString:
		raw, err := json.Marshal(v.native())
		if err != nil {
			return err
		}
		buf.Write(raw)
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return fmt.Errorf("value: cannot encode %v as JSON", v.f)
		}
		raw, err := json.Marshal(v.f)
		if err != nil {
			return err
		}
		buf.Write(raw)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindRecord:
		buf.WriteByte('{')
		first := true
		if v.rec.TypeName != "" {
			buf.WriteString(`"$type":`)
			raw, _ := json.Marshal(v.rec.TypeName)
			buf.Write(raw)
			first = false
		}
		for _, k := range v.rec.Keys() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			raw, _ := json.Marshal(k)
			buf.Write(raw)
			buf.WriteByte(':')
			pv := v.rec.props[k]
			if err := pv.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON decodes a value. Objects with a "$type" string property
// become typed records.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := fromNative(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// native returns the Go representation for the scalar kinds.
func (v Value) native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	}
	return nil
}

func fromNative(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Null(), err
		}
		return Float(f), nil
	case int64:
		return Int(t), nil
	case uint64:
		return Int(int64(t)), nil
	case float64:
		return Float(t), nil
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			ev, err := fromNative(e)
			if err != nil {
				return Null(), err
			}
			elems[i] = ev
		}
		return Array(elems...), nil
	case map[string]any:
		rec := NewRecord("")
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "$type" {
				if name, ok := t[k].(string); ok {
					rec.TypeName = name
					continue
				}
			}
			pv, err := fromNative(t[k])
			if err != nil {
				return Null(), err
			}
			rec.Set(k, pv)
		}
		return Rec(rec), nil
	default:
		return Null(), fmt.Errorf("value: cannot decode %T", raw)
	}
}

var (
	_ msgpack.CustomEncoder = Value{}
	_ msgpack.CustomDecoder = (*Value)(nil)
)

// EncodeMsgpack encodes the value in the compact binary map/array form.
// Records become maps with "$type" first (when typed) and sorted keys.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	switch v.kind {
	case KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindInt:
		return enc.EncodeInt(v.i)
	case KindFloat:
		return enc.EncodeFloat64(v.f)
	case KindString:
		return enc.EncodeString(v.s)
	case KindArray:
		if err := enc.EncodeArrayLen(len(v.arr)); err != nil {
			return err
		}
		for _, e := range v.arr {
			if err := e.EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	case KindRecord:
		n := v.rec.Len()
		if v.rec.TypeName != "" {
			n++
		}
		if err := enc.EncodeMapLen(n); err != nil {
			return err
		}
		if v.rec.TypeName != "" {
			if err := enc.EncodeString("$type"); err != nil {
				return err
			}
			if err := enc.EncodeString(v.rec.TypeName); err != nil {
				return err
			}
		}
		for _, k := range v.rec.Keys() {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			pv := v.rec.props[k]
			if err := pv.EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("value: unknown kind %d", v.kind)
}

// DecodeMsgpack decodes a value, recognizing "$type" map keys as record type
// names.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	raw, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return err
	}
	out, err := fromNative(normalizeMsgpack(raw))
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// normalizeMsgpack rewrites msgpack decoder output into the shapes fromNative
// understands.
func normalizeMsgpack(raw any) any {
	switch t := raw.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeMsgpack(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeMsgpack(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeMsgpack(e)
		}
		return out
	default:
		return raw
	}
}
