package airtable

import (
	"fmt"
	"strconv"
)

// SortDirection orders a sort key.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

func (d SortDirection) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortKey is a field name with a direction. The first key of a query is
// the primary one.
type SortKey struct {
	Field     string
	Direction SortDirection
}

// Query describes a list request. It is immutable once built: the slices
// are never shared with a builder.
type Query struct {
	View       string
	Sort       []SortKey
	Formula    string
	PageSize   int
	MaxRecords int
	Fields     []string
}

// Params serializes the query for the store, followed by the cursor of a
// previous page when one is given. Sort keys keep their order.
func (q Query) Params(cursor string) []Param {
	var params []Param

	if q.View != "" {
		params = append(params, Param{Key: "view", Value: q.View})
	}

	for i, s := range q.Sort {
		params = append(params,
			Param{Key: fmt.Sprintf("sort[%d][field]", i), Value: s.Field},
			Param{Key: fmt.Sprintf("sort[%d][direction]", i), Value: s.Direction.String()},
		)
	}

	if q.Formula != "" {
		params = append(params, Param{Key: "filterByFormula", Value: q.Formula})
	}

	if q.PageSize > 0 {
		params = append(params, Param{Key: "pageSize", Value: strconv.Itoa(q.PageSize)})
	}

	if q.MaxRecords > 0 {
		params = append(params, Param{Key: "maxRecords", Value: strconv.Itoa(q.MaxRecords)})
	}

	for _, f := range q.Fields {
		params = append(params, Param{Key: "fields[]", Value: f})
	}

	if cursor != "" {
		params = append(params, Param{Key: "offset", Value: cursor})
	}

	return params
}

func (q Query) clone() Query {
	out := q
	out.Sort = append([]SortKey(nil), q.Sort...)
	out.Fields = append([]string(nil), q.Fields...)
	return out
}

// QueryBuilder accumulates query options. None of its methods perform I/O
// or validate anything; the store rejects bad options when the query runs.
type QueryBuilder[T any, P RecordPtr[T]] struct {
	table *Table[T, P]
	query Query
}

// View restricts the query to a named view of the table.
func (b *QueryBuilder[T, P]) View(name string) *QueryBuilder[T, P] {
	b.query.View = name
	return b
}

// Sort appends a sort key. Repeated fields are sent as given.
func (b *QueryBuilder[T, P]) Sort(field string, direction SortDirection) *QueryBuilder[T, P] {
	b.query.Sort = append(b.query.Sort, SortKey{Field: field, Direction: direction})
	return b
}

// Formula sets the filter formula, replacing any previous one. The
// expression is sent verbatim.
func (b *QueryBuilder[T, P]) Formula(expr string) *QueryBuilder[T, P] {
	b.query.Formula = expr
	return b
}

// PageSize caps the number of records per page. Zero leaves it to the store.
func (b *QueryBuilder[T, P]) PageSize(n int) *QueryBuilder[T, P] {
	b.query.PageSize = n
	return b
}

// MaxRecords caps the total number of records across all pages.
func (b *QueryBuilder[T, P]) MaxRecords(n int) *QueryBuilder[T, P] {
	b.query.MaxRecords = n
	return b
}

// Fields limits the returned fields to the given names.
func (b *QueryBuilder[T, P]) Fields(names ...string) *QueryBuilder[T, P] {
	b.query.Fields = append(b.query.Fields, names...)
	return b
}

// Build returns a snapshot of the accumulated options.
func (b *QueryBuilder[T, P]) Build() Query {
	return b.query.clone()
}

// Iter starts a new iteration over a snapshot of the query. No request is
// made until the first call to Next.
func (b *QueryBuilder[T, P]) Iter() *Iterator[T, P] {
	return b.table.Iter(b.Build())
}
