package mockstore

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func rec(id string, fields string) *Record {
	r := &Record{ID: id}
	if err := json.Unmarshal([]byte(fields), &r.Fields); err != nil {
		panic(err)
	}
	return r
}

func TestParseFormula(t *testing.T) {
	assert := require.New(t)

	r := rec("rec1", `{"Word":"lurid","Google":6870000,"Next":true}`)

	cases := []struct {
		expr  string
		match bool
	}{
		{"", true},
		{"TRUE()", true},
		{"FALSE()", false},
		{"{Word} = 'lurid'", true},
		{`{Word} = "other"`, false},
		{"{Google} = 6870000", true},
		{"{Next} = TRUE()", true},
		{"{Next} = 1", true},
		{"{Missing} = ''", true},
		{"{Missing} = 'x'", false},
	}

	for _, c := range cases {
		f, err := parseFormula(c.expr)
		assert.NoError(err, c.expr)
		assert.Equal(c.match, f.match(r), c.expr)
	}

	for _, expr := range []string{"FIND(", "{Word} > 3", "AND({A} = 1, {B} = 2)", "{Word} = lurid"} {
		_, err := parseFormula(expr)
		var lerr *listError
		assert.ErrorAs(err, &lerr, expr)
		assert.Equal("INVALID_FILTER_BY_FORMULA", lerr.Type)
	}
}

func TestListQuery_Apply(t *testing.T) {
	assert := require.New(t)

	records := []*Record{
		rec("rec1", `{"Name":"b","Rank":2}`),
		rec("rec2", `{"Name":"a","Rank":2}`),
		rec("rec3", `{"Name":"c"}`),
	}

	q, err := parseListQuery(url.Values{
		"sort[0][field]":     {"Rank"},
		"sort[0][direction]": {"desc"},
		"sort[1][field]":     {"Name"},
		"fields[]":           {"Name"},
	}, 2)
	assert.NoError(err)

	page, next := q.apply(records)
	assert.Len(page, 2)
	assert.Equal("rec2", page[0].ID)
	assert.Equal("rec1", page[1].ID)
	assert.NotContains(page[0].Fields, "Rank")
	assert.NotEmpty(next)

	values := url.Values{
		"sort[0][field]":     {"Rank"},
		"sort[0][direction]": {"desc"},
		"sort[1][field]":     {"Name"},
		"fields[]":           {"Name"},
		"offset":             {next},
	}
	q, err = parseListQuery(values, 2)
	assert.NoError(err)

	page, next = q.apply(records)
	assert.Len(page, 1)
	assert.Equal("rec3", page[0].ID)
	assert.Empty(next)
}

func TestParseListQuery_Errors(t *testing.T) {
	assert := require.New(t)

	for _, values := range []url.Values{
		{"sort[0][field]": {"A"}, "sort[0][direction]": {"sideways"}},
		{"pageSize": {"0"}},
		{"maxRecords": {"x"}},
		{"offset": {"garbage"}},
	} {
		_, err := parseListQuery(values, 100)
		var lerr *listError
		assert.ErrorAs(err, &lerr, values.Encode())
	}
}
