package mockstore

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// listError is a 422 reply for a list request the store cannot run.
type listError struct {
	Type    string
	Message string
}

func (e *listError) Error() string { return e.Type + ": " + e.Message }

type sortKey struct {
	field string
	desc  bool
}

// listQuery is a parsed list request.
type listQuery struct {
	view       string
	sort       []sortKey
	formula    *formula
	pageSize   int
	maxRecords int
	fields     []string
	offset     int
	tag        string
}

func parseListQuery(values url.Values, defaultPageSize int) (*listQuery, error) {
	q := &listQuery{
		view:     values.Get("view"),
		pageSize: defaultPageSize,
		fields:   values["fields[]"],
	}

	for i := 0; ; i++ {
		field := values.Get(fmt.Sprintf("sort[%d][field]", i))
		if field == "" {
			break
		}
		key := sortKey{field: field}
		switch dir := values.Get(fmt.Sprintf("sort[%d][direction]", i)); dir {
		case "", "asc":
		case "desc":
			key.desc = true
		default:
			return nil, &listError{Type: "INVALID_SORT_DIRECTION", Message: fmt.Sprintf("Invalid sort direction %q", dir)}
		}
		q.sort = append(q.sort, key)
	}

	f, err := parseFormula(values.Get("filterByFormula"))
	if err != nil {
		return nil, err
	}
	q.formula = f

	if raw := values.Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, &listError{Type: "INVALID_PAGE_SIZE", Message: fmt.Sprintf("Invalid page size %q", raw)}
		}
		if n < q.pageSize {
			q.pageSize = n
		}
	}

	if raw := values.Get("maxRecords"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, &listError{Type: "INVALID_MAX_RECORDS", Message: fmt.Sprintf("Invalid max records %q", raw)}
		}
		q.maxRecords = n
	}

	q.tag = queryTag(values)

	if raw := values.Get("offset"); raw != "" {
		offset, err := parseOffset(raw, q.tag)
		if err != nil {
			return nil, err
		}
		q.offset = offset
	}

	return q, nil
}

// queryTag fingerprints every parameter that shapes the result, so an
// offset only resumes the query that produced it.
func queryTag(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "offset" || k == "pageSize" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New32a()
	for _, k := range keys {
		for _, v := range values[k] {
			_, _ = fmt.Fprintf(h, "%s=%s;", k, v)
		}
	}
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}

func makeOffset(position int, tag string) string {
	return fmt.Sprintf("itr%d/%s", position, tag)
}

func parseOffset(raw, tag string) (int, error) {
	invalid := &listError{Type: "LIST_RECORDS_ITERATOR_NOT_AVAILABLE", Message: "Invalid offset"}

	rest := strings.TrimPrefix(raw, "itr")
	if rest == raw {
		return 0, invalid
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[1] != tag {
		return 0, invalid
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil || n < 0 {
		return 0, invalid
	}
	return n, nil
}

// apply filters, sorts, truncates and projects records. It returns one page
// and the offset of the next one, empty when the page is the last.
func (q *listQuery) apply(records []*Record) ([]*Record, string) {
	var matched []*Record
	for _, r := range records {
		if q.formula.match(r) {
			matched = append(matched, r)
		}
	}

	if len(q.sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, k := range q.sort {
				c := compareValues(matched[i].Fields[k.field], matched[j].Fields[k.field])
				if c == 0 {
					continue
				}
				if k.desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.maxRecords > 0 && len(matched) > q.maxRecords {
		matched = matched[:q.maxRecords]
	}

	if q.offset >= len(matched) {
		return nil, ""
	}

	end := q.offset + q.pageSize
	next := ""
	if end < len(matched) {
		next = makeOffset(end, q.tag)
	} else {
		end = len(matched)
	}

	page := make([]*Record, 0, end-q.offset)
	for _, r := range matched[q.offset:end] {
		page = append(page, q.project(r))
	}
	return page, next
}

func (q *listQuery) project(r *Record) *Record {
	if len(q.fields) == 0 {
		return r
	}
	out := &Record{ID: r.ID, CreatedTime: r.CreatedTime, Fields: map[string]json.RawMessage{}}
	for _, name := range q.fields {
		if v, ok := r.Fields[name]; ok {
			out.Fields[name] = v
		}
	}
	return out
}

// compareValues orders two raw field values. Missing values sort first.
func compareValues(a, b json.RawMessage) int {
	av, bv := decodeValue(a), decodeValue(b)

	switch {
	case av == nil && bv == nil:
		return 0
	case av == nil:
		return -1
	case bv == nil:
		return 1
	}

	switch x := av.(type) {
	case float64:
		if y, ok := bv.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case bool:
		if y, ok := bv.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	case string:
		if y, ok := bv.(string); ok {
			return strings.Compare(x, y)
		}
	}

	return strings.Compare(string(a), string(b))
}

func decodeValue(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

var (
	equalityFormula = regexp.MustCompile(`^\{([^}]+)\}\s*=\s*(.+)$`)
)

// formula is the small subset of the formula language the mock evaluates:
// TRUE(), FALSE() and {Field} = literal.
type formula struct {
	constant *bool
	field    string
	value    interface{}
}

func parseFormula(expr string) (*formula, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		t := true
		return &formula{constant: &t}, nil
	}

	if b, ok := parseBoolLiteral(expr); ok {
		return &formula{constant: &b}, nil
	}

	m := equalityFormula.FindStringSubmatch(expr)
	if m == nil {
		return nil, invalidFormula(expr)
	}

	value, ok := parseLiteral(strings.TrimSpace(m[2]))
	if !ok {
		return nil, invalidFormula(expr)
	}

	return &formula{field: m[1], value: value}, nil
}

func invalidFormula(expr string) error {
	return &listError{
		Type:    "INVALID_FILTER_BY_FORMULA",
		Message: fmt.Sprintf("The formula for filtering records is invalid: %s", expr),
	}
}

func parseBoolLiteral(s string) (bool, bool) {
	switch strings.ToUpper(s) {
	case "TRUE()", "1":
		return true, true
	case "FALSE()", "0":
		return false, true
	}
	return false, false
}

func parseLiteral(s string) (interface{}, bool) {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	switch strings.ToUpper(s) {
	case "TRUE()":
		return true, true
	case "FALSE()":
		return false, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

func (f *formula) match(r *Record) bool {
	if f.constant != nil {
		return *f.constant
	}

	got := decodeValue(r.Fields[f.field])
	if got == nil {
		// Blank fields compare equal to the empty value of each type.
		switch v := f.value.(type) {
		case string:
			return v == ""
		case float64:
			return v == 0
		case bool:
			return !v
		}
		return false
	}

	switch want := f.value.(type) {
	case bool:
		b, ok := got.(bool)
		if ok {
			return b == want
		}
		n, ok := got.(float64)
		return ok && (n != 0) == want
	case float64:
		if b, ok := got.(bool); ok {
			return b == (want != 0)
		}
		return got == want
	default:
		return got == want
	}
}
