package airtable

import (
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Record is implemented by every row type used with a Table.
//
// The id is assigned by the store and never travels inside the FieldSet.
// Fields must not include it and SetFields must not touch it.
type Record interface {
	ID() string
	SetID(id string)
	Fields() (FieldSet, error)
	SetFields(fields FieldSet) error
}

// RecordPtr constrains P to be a pointer to T that implements Record, so a
// Table can allocate fresh T values while decoding.
type RecordPtr[T any] interface {
	*T
	Record
}

// Model can be embedded in a row type to provide ID and SetID.
type Model struct {
	id string
}

func (m *Model) ID() string { return m.id }

func (m *Model) SetID(id string) { m.id = id }

// TagName is the struct tag read by MarshalFields and UnmarshalFields.
const TagName = "airtable"

// MarshalFields maps the tagged fields of a struct to a FieldSet.
//
//	type Word struct {
//		airtable.Model
//		Word   string `airtable:"Word"`
//		Google int64  `airtable:"Google"`
//		Next   bool   `airtable:"Next,omitempty"`
//	}
//
// Untagged fields are skipped; omitempty drops zero values, which keeps
// them out of partial updates.
func MarshalFields(v interface{}) (FieldSet, error) {
	out := map[string]interface{}{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:              TagName,
		IgnoreUntaggedFields: true,
		Result:               &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("airtable: marshal fields of %T: %w", v, err)
	}

	fs := make(FieldSet, len(out))
	for name, x := range out {
		val, err := ValueOf(x)
		if err != nil {
			return nil, fmt.Errorf("airtable: field %q: %w", name, err)
		}
		fs[name] = val
	}
	return fs, nil
}

// UnmarshalFields assigns the values of fs to the tagged fields of the
// struct v points to. Names in fs without a matching field are ignored;
// a value whose type does not fit its field is an error.
func UnmarshalFields(fs FieldSet, v interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    TagName,
		DecodeHook: rejectFractionalInts,
		Result:     v,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(fs.Native()); err != nil {
		return fmt.Errorf("airtable: unmarshal fields into %T: %w", v, err)
	}
	return nil
}

// rejectFractionalInts stops mapstructure from truncating a number with a
// fractional part into an integer field.
func rejectFractionalInts(from, to reflect.Type, data interface{}) (interface{}, error) {
	f, ok := data.(float64)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("number %v does not fit %s", f, to)
		}
	}
	return data, nil
}

// decodeRecord builds a fresh T from an id and its fields.
func decodeRecord[T any, P RecordPtr[T]](id string, fields FieldSet) (T, error) {
	var rec T
	p := P(&rec)
	if err := p.SetFields(fields); err != nil {
		var zero T
		return zero, malformed(fmt.Sprintf("record %s", id), err)
	}
	p.SetID(id)
	return rec, nil
}
