package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// Table is a client for one table of one base. Records of type T are
// decoded from and encoded to the store through the Record interface.
//
// A Table is not safe for concurrent use; create one per goroutine.
type Table[T any, P RecordPtr[T]] struct {
	base      string
	name      string
	path      string
	transport Transport
	fetcher   *Fetcher
	log       logrus.FieldLogger
}

// NewTable binds a table of a base to a transport.
func NewTable[T any, P RecordPtr[T]](log logrus.FieldLogger, t Transport, base, table string) *Table[T, P] {
	log = log.WithFields(logrus.Fields{
		"base":  base,
		"table": table,
	})
	path := "/" + url.PathEscape(base) + "/" + url.PathEscape(table)

	return &Table[T, P]{
		base:      base,
		name:      table,
		path:      path,
		transport: t,
		fetcher:   NewFetcher(log, t, path),
		log:       log,
	}
}

func (t *Table[T, P]) Base() string { return t.base }

func (t *Table[T, P]) Name() string { return t.name }

// Query starts a query over every record in the store's default order.
func (t *Table[T, P]) Query() *QueryBuilder[T, P] {
	return &QueryBuilder[T, P]{table: t}
}

// Iter runs q. Each call starts over from the first page.
func (t *Table[T, P]) Iter(q Query) *Iterator[T, P] {
	return newIterator[T, P](t.fetcher, q.clone())
}

// Find fetches a single record. A missing record is reported with an error
// matching ErrNotFound.
func (t *Table[T, P]) Find(ctx context.Context, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, ErrMissingID
	}

	resp, err := send(ctx, t.transport, &Request{
		Method: http.MethodGet,
		Path:   t.recordPath(id),
	})
	if err != nil {
		return zero, err
	}

	return t.decodeResponse(resp)
}

// Create stores a new record and returns it with the id assigned by the
// store. An id already set on rec is ignored.
func (t *Table[T, P]) Create(ctx context.Context, rec P) (T, error) {
	var zero T

	body, err := encodeWrite(rec)
	if err != nil {
		return zero, err
	}

	resp, err := send(ctx, t.transport, &Request{
		Method: http.MethodPost,
		Path:   t.path,
		Body:   body,
	})
	if err != nil {
		return zero, err
	}

	created, err := t.decodeResponse(resp)
	if err != nil {
		return zero, err
	}

	t.log.WithField("id", P(&created).ID()).Debug("record created")
	return created, nil
}

// Update sends the mapped fields of rec, leaving other fields untouched,
// and returns the record as stored.
func (t *Table[T, P]) Update(ctx context.Context, rec P) (T, error) {
	var zero T

	id := rec.ID()
	if id == "" {
		return zero, ErrMissingID
	}

	body, err := encodeWrite(rec)
	if err != nil {
		return zero, err
	}

	resp, err := send(ctx, t.transport, &Request{
		Method: http.MethodPatch,
		Path:   t.recordPath(id),
		Body:   body,
	})
	if err != nil {
		return zero, err
	}

	updated, err := t.decodeResponse(resp)
	if err != nil {
		return zero, err
	}

	t.log.WithField("id", id).Debug("record updated")
	return updated, nil
}

// Delete removes a record. Deleting a record twice fails with the store's
// error for the second request.
func (t *Table[T, P]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}

	if _, err := send(ctx, t.transport, &Request{
		Method: http.MethodDelete,
		Path:   t.recordPath(id),
	}); err != nil {
		return err
	}

	t.log.WithField("id", id).Debug("record deleted")
	return nil
}

func (t *Table[T, P]) recordPath(id string) string {
	return t.path + "/" + url.PathEscape(id)
}

func (t *Table[T, P]) decodeResponse(resp *Response) (T, error) {
	var zero T

	rec := decodeRecordPayload(resp.Body)
	if rec.Err != nil {
		return zero, malformed("record response", rec.Err)
	}

	return decodeRecord[T, P](rec.ID, rec.Fields)
}

type writePayload struct {
	Fields FieldSet `json:"fields"`
}

func encodeWrite(rec Record) (json.RawMessage, error) {
	fields, err := rec.Fields()
	if err != nil {
		return nil, fmt.Errorf("airtable: map record fields: %w", err)
	}
	if fields == nil {
		fields = FieldSet{}
	}

	return json.Marshal(writePayload{Fields: fields})
}
