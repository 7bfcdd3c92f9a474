package airtable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind byte

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindBool
	KindStrings
	// KindRaw holds any remote shape outside the scalar set (attachments,
	// collaborators, lookups of objects). It is carried as raw JSON.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindStrings:
		return "strings"
	case KindRaw:
		return "raw"
	default:
		return strconv.Itoa(int(k))
	}
}

// Value is a single field value of a record.
// The zero Value is absent.
type Value struct {
	kind Kind
	str  string
	num  json.Number
	b    bool
	strs []string
	raw  json.RawMessage
}

func String(s string) Value { return Value{kind: KindString, str: s} }

func Int(i int64) Value { return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(i, 10))} }

func Float(f float64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Strings(ss ...string) Value {
	cp := make([]string, len(ss))
	copy(cp, ss)
	return Value{kind: KindStrings, strs: cp}
}

// Raw wraps an already encoded JSON value.
func Raw(msg json.RawMessage) Value {
	cp := make(json.RawMessage, len(msg))
	copy(cp, msg)
	return Value{kind: KindRaw, raw: cp}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the number as an integer. It fails for non-numbers and for
// numbers with a fractional part.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	i, err := v.num.Int64()
	if err != nil {
		return 0, false
	}
	return i, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

func (v Value) AsStrings() ([]string, bool) {
	if v.kind != KindStrings {
		return nil, false
	}
	cp := make([]string, len(v.strs))
	copy(cp, v.strs)
	return cp, true
}

func (v Value) AsRaw() (json.RawMessage, bool) { return v.raw, v.kind == KindRaw }

// Native converts the value to a plain Go value: string, int64 or float64,
// bool, []string, any (decoded raw JSON) or nil when absent.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if i, err := v.num.Int64(); err == nil {
			return i
		}
		f, _ := v.num.Float64()
		return f
	case KindBool:
		return v.b
	case KindStrings:
		cp := make([]string, len(v.strs))
		copy(cp, v.strs)
		return cp
	case KindRaw:
		var out interface{}
		if err := json.Unmarshal(v.raw, &out); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStrings:
		return fmt.Sprint(v.strs)
	case KindRaw:
		return string(v.raw)
	default:
		return "<absent>"
	}
}

// Equal reports whether both values hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		if a, err := v.num.Int64(); err == nil {
			b, err := o.num.Int64()
			return err == nil && a == b
		}
		if _, err := o.num.Int64(); err == nil {
			return false
		}
		a, aok := v.AsFloat()
		b, bok := o.AsFloat()
		return aok && bok && a == b
	case KindBool:
		return v.b == o.b
	case KindStrings:
		if len(v.strs) != len(o.strs) {
			return false
		}
		for i := range v.strs {
			if v.strs[i] != o.strs[i] {
				return false
			}
		}
		return true
	case KindRaw:
		return bytes.Equal(v.raw, o.raw)
	default:
		return true
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(v.num), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindStrings:
		if v.strs == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.strs)
	case KindRaw:
		return v.raw, nil
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("airtable: empty field value")
	}

	switch data[0] {
	case 'n':
		*v = Value{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return err
		}
		var ss []string
		if err := json.Unmarshal(data, &ss); err == nil && !hasNull(elems) {
			*v = Value{kind: KindStrings, strs: ss}
			return nil
		}
		*v = Raw(data)
		return nil
	case '{':
		*v = Raw(data)
		return nil
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("airtable: invalid field value %q: %w", data, err)
		}
		*v = Value{kind: KindNumber, num: n}
		return nil
	}
}

func hasNull(elems []json.RawMessage) bool {
	for _, e := range elems {
		if bytes.Equal(bytes.TrimSpace(e), []byte("null")) {
			return true
		}
	}
	return false
}

// FieldSet maps field names to values for one record. The record id is
// never part of a FieldSet.
type FieldSet map[string]Value

// Get returns the named value, absent when not present.
func (fs FieldSet) Get(name string) Value {
	return fs[name]
}

// Clone returns a copy that shares no slices with fs.
func (fs FieldSet) Clone() FieldSet {
	if fs == nil {
		return nil
	}
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		switch v.kind {
		case KindStrings:
			out[k] = Strings(v.strs...)
		case KindRaw:
			out[k] = Raw(v.raw)
		default:
			out[k] = v
		}
	}
	return out
}

// Native converts the set to a map of plain Go values. Absent values are
// dropped.
func (fs FieldSet) Native() map[string]interface{} {
	out := make(map[string]interface{}, len(fs))
	for k, v := range fs {
		if v.IsAbsent() {
			continue
		}
		out[k] = v.Native()
	}
	return out
}

// Equal reports whether both sets hold the same names and values.
func (fs FieldSet) Equal(o FieldSet) bool {
	if len(fs) != len(o) {
		return false
	}
	for k, v := range fs {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// ValueOf converts a plain Go value into a Value.
func ValueOf(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Int(int64(t)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return Value{kind: KindNumber, num: json.Number(strconv.FormatUint(t, 10))}, nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		return Value{kind: KindNumber, num: t}, nil
	case []string:
		return Strings(t...), nil
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return Value{}, fmt.Errorf("airtable: unsupported field value %T: %w", x, err)
		}
		var v Value
		if err := v.UnmarshalJSON(data); err != nil {
			return Value{}, err
		}
		return v, nil
	}
}
