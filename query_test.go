package airtable

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuery_Params_SortOrder(t *testing.T) {
	assert := require.New(t)

	q := newWordTable(&scriptedTransport{}).Query().
		Sort("Next", Descending).
		Sort("Google", Descending).
		Build()

	assert.Equal([]Param{
		{Key: "sort[0][field]", Value: "Next"},
		{Key: "sort[0][direction]", Value: "desc"},
		{Key: "sort[1][field]", Value: "Google"},
		{Key: "sort[1][direction]", Value: "desc"},
	}, q.Params(""))
}

func TestQuery_Params_AllOptions(t *testing.T) {
	assert := require.New(t)

	q := newWordTable(&scriptedTransport{}).Query().
		View("To Learn").
		Sort("Next", Descending).
		Sort("Created", Ascending).
		Formula(`FIND("Harry Potter", Source)`).
		PageSize(50).
		MaxRecords(200).
		Fields("Word", "Google").
		Build()

	assert.Equal([]Param{
		{Key: "view", Value: "To Learn"},
		{Key: "sort[0][field]", Value: "Next"},
		{Key: "sort[0][direction]", Value: "desc"},
		{Key: "sort[1][field]", Value: "Created"},
		{Key: "sort[1][direction]", Value: "asc"},
		{Key: "filterByFormula", Value: `FIND("Harry Potter", Source)`},
		{Key: "pageSize", Value: "50"},
		{Key: "maxRecords", Value: "200"},
		{Key: "fields[]", Value: "Word"},
		{Key: "fields[]", Value: "Google"},
		{Key: "offset", Value: "itr42"},
	}, q.Params("itr42"))
}

func TestQuery_NoOptions(t *testing.T) {
	assert := require.New(t)

	q := newWordTable(&scriptedTransport{}).Query().Build()
	assert.Empty(q.Params(""))
}

func TestQuery_SortAppendsDuplicates(t *testing.T) {
	assert := require.New(t)

	q := newWordTable(&scriptedTransport{}).Query().
		Sort("Word", Ascending).
		Sort("Word", Descending).
		Build()

	assert.Equal([]SortKey{
		{Field: "Word", Direction: Ascending},
		{Field: "Word", Direction: Descending},
	}, q.Sort)
}

func TestQuery_FormulaOverwrites(t *testing.T) {
	assert := require.New(t)

	q := newWordTable(&scriptedTransport{}).Query().
		Formula("{Next} = 1").
		Formula("{Google} > 10").
		Build()

	assert.Equal("{Google} > 10", q.Formula)
}

func TestQuery_IterSnapshotsBuilder(t *testing.T) {
	assert := require.New(t)

	tr := (&scriptedTransport{}).push(http.StatusOK, `{"records":[]}`)
	b := newWordTable(tr).Query().Sort("Word", Ascending)

	it := b.Iter()
	b.Sort("Google", Descending).Formula("FALSE()")

	_, err := it.Next(background)
	assert.Equal(Done, err)
	assert.Len(tr.requests, 1)
	assert.Equal([]Param{
		{Key: "sort[0][field]", Value: "Word"},
		{Key: "sort[0][direction]", Value: "asc"},
	}, tr.requests[0].Params)
}

func TestQuery_BuildDoesNotAlias(t *testing.T) {
	assert := require.New(t)

	b := newWordTable(&scriptedTransport{}).Query().Sort("Word", Ascending)
	q := b.Build()
	b.Sort("Google", Ascending)

	assert.Len(q.Sort, 1)
}

func TestQuery_RequestPath(t *testing.T) {
	assert := require.New(t)

	tr := (&scriptedTransport{}).push(http.StatusOK, `{"records":[]}`)
	table := NewTable[word](quietLogger(), tr, "appWords", "To Learn")

	_, err := table.Query().Iter().Next(background)
	assert.Equal(Done, err)
	assert.Equal(http.MethodGet, tr.requests[0].Method)
	assert.Equal("/appWords/To%20Learn", tr.requests[0].Path)
	assert.Nil(tr.requests[0].Body)
}
