package airtable

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValue_UnmarshalJSON(t *testing.T) {
	assert := require.New(t)

	var fs FieldSet
	assert.NoError(json.Unmarshal([]byte(`{
		"Name": "lurid",
		"Count": 9007199254740993,
		"Ratio": 0.25,
		"Done": false,
		"Tags": ["a", "b"],
		"Empty": [],
		"Nothing": null,
		"Attachments": [{"id": "att1", "url": "https://example.com/a.png"}]
	}`), &fs))

	s, ok := fs.Get("Name").AsString()
	assert.True(ok)
	assert.Equal("lurid", s)

	i, ok := fs.Get("Count").AsInt()
	assert.True(ok)
	assert.Equal(int64(9007199254740993), i)

	_, ok = fs.Get("Ratio").AsInt()
	assert.False(ok)
	f, ok := fs.Get("Ratio").AsFloat()
	assert.True(ok)
	assert.Equal(0.25, f)

	b, ok := fs.Get("Done").AsBool()
	assert.True(ok)
	assert.False(b)

	tags, ok := fs.Get("Tags").AsStrings()
	assert.True(ok)
	assert.Equal([]string{"a", "b"}, tags)

	assert.Equal(KindStrings, fs.Get("Empty").Kind())
	assert.True(fs.Get("Nothing").IsAbsent())
	assert.True(fs.Get("Missing").IsAbsent())
	assert.Equal(KindRaw, fs.Get("Attachments").Kind())
}

func TestValue_MarshalJSON(t *testing.T) {
	assert := require.New(t)

	fs := FieldSet{
		"Name":  String("lurid"),
		"Count": Int(6870000),
		"Ratio": Float(1.5),
		"Next":  Bool(true),
		"Tags":  Strings("x"),
		"Clear": {},
		"Raw":   Raw(json.RawMessage(`{"a":1}`)),
	}

	data, err := json.Marshal(fs)
	assert.NoError(err)
	assert.JSONEq(`{"Name":"lurid","Count":6870000,"Ratio":1.5,"Next":true,"Tags":["x"],"Clear":null,"Raw":{"a":1}}`, string(data))

	var back FieldSet
	assert.NoError(json.Unmarshal(data, &back))
	delete(fs, "Clear")
	delete(back, "Clear")
	assert.True(fs.Equal(back))
}

func TestFields_RoundTrip(t *testing.T) {
	assert := require.New(t)

	in := &word{Word: "lurid", Google: 6870000, Next: true}
	in.SetID("recIgnored")

	fs, err := in.Fields()
	assert.NoError(err)
	assert.Len(fs, 3)
	assert.NotContains(fs, "id")

	out := &word{}
	assert.NoError(out.SetFields(fs))
	assert.Equal("", out.ID())
	out.SetID(in.ID())
	assert.Equal(in, out)
}

func TestFields_RoundTripZeroValues(t *testing.T) {
	assert := require.New(t)

	in := &word{}
	fs, err := in.Fields()
	assert.NoError(err)

	out := &word{Word: "overwritten", Google: 7, Next: true}
	assert.NoError(out.SetFields(fs))
	assert.Equal(in, out)
}

type tagged struct {
	Model
	Title  string   `airtable:"Title"`
	Score  float64  `airtable:"Score"`
	Count  int      `airtable:"Count"`
	Labels []string `airtable:"Labels"`
	Notes  string   `airtable:"Notes,omitempty"`
	local  string
}

func TestMarshalFields_Tags(t *testing.T) {
	assert := require.New(t)

	fs, err := MarshalFields(&tagged{Title: "t", Score: 2.5, Count: 3, Labels: []string{"a"}, local: "x"})
	assert.NoError(err)

	assert.True(FieldSet{
		"Title":  String("t"),
		"Score":  Float(2.5),
		"Count":  Int(3),
		"Labels": Strings("a"),
	}.Equal(fs))
}

func TestUnmarshalFields_SchemaDrift(t *testing.T) {
	assert := require.New(t)

	var out tagged
	err := UnmarshalFields(FieldSet{
		"Title":   String("t"),
		"Count":   Float(4),
		"Unknown": String("ignored"),
	}, &out)
	assert.NoError(err)
	assert.Equal("t", out.Title)
	assert.Equal(4, out.Count)
}

func TestUnmarshalFields_TypeMismatch(t *testing.T) {
	assert := require.New(t)

	var out tagged
	err := UnmarshalFields(FieldSet{"Count": String("four")}, &out)
	assert.Error(err)
}

func TestUnmarshalFields_FractionIntoInteger(t *testing.T) {
	assert := require.New(t)

	var out tagged
	assert.Error(UnmarshalFields(FieldSet{"Count": Float(2.7)}, &out))
	assert.Equal(0, out.Count)

	assert.NoError(UnmarshalFields(FieldSet{"Count": Float(3), "Score": Float(2.7)}, &out))
	assert.Equal(3, out.Count)
	assert.Equal(2.7, out.Score)
}

func TestValue_EqualLargeIntegers(t *testing.T) {
	assert := require.New(t)

	assert.False(Int(9007199254740993).Equal(Int(9007199254740992)))
	assert.True(Int(9007199254740993).Equal(Int(9007199254740993)))
	assert.True(Float(2.5).Equal(Float(2.5)))
	assert.False(Int(2).Equal(Float(2.5)))
}

func TestValue_UnmarshalArrayWithNull(t *testing.T) {
	assert := require.New(t)

	var v Value
	assert.NoError(json.Unmarshal([]byte(`["a", null]`), &v))
	assert.Equal(KindRaw, v.Kind())

	raw, ok := v.AsRaw()
	assert.True(ok)
	assert.JSONEq(`["a", null]`, string(raw))
}

func TestValueOf(t *testing.T) {
	assert := require.New(t)

	v, err := ValueOf(42)
	assert.NoError(err)
	assert.True(Int(42).Equal(v))

	v, err = ValueOf(map[string]int{"a": 1})
	assert.NoError(err)
	assert.Equal(KindRaw, v.Kind())

	v, err = ValueOf(nil)
	assert.NoError(err)
	assert.True(v.IsAbsent())
}
