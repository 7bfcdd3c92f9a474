package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// PageRecord is one record of a page. Err is set when this record could
// not be decoded; the other records of the page are unaffected.
type PageRecord struct {
	ID          string
	Fields      FieldSet
	CreatedTime time.Time
	Err         error
}

// Page is the result of a single list request. Next is empty on the last
// page and is only valid together with the query that produced it.
type Page struct {
	Records []PageRecord
	Next    string
}

// Fetcher issues list requests for one table.
type Fetcher struct {
	transport Transport
	path      string
	log       logrus.FieldLogger
}

func NewFetcher(log logrus.FieldLogger, t Transport, path string) *Fetcher {
	return &Fetcher{
		transport: t,
		path:      path,
		log:       log,
	}
}

// Fetch requests one page of q, resuming at cursor when it is not empty.
// It makes exactly one attempt.
func (f *Fetcher) Fetch(ctx context.Context, q Query, cursor string) (*Page, error) {
	log := f.log.WithField("path", f.path)
	if cursor != "" {
		log = log.WithField("offset", cursor)
	}
	log.Debug("fetching page")

	resp, err := send(ctx, f.transport, &Request{
		Method: http.MethodGet,
		Path:   f.path,
		Params: q.Params(cursor),
	})
	if err != nil {
		log.WithError(err).Debug("fetch failed")
		return nil, err
	}

	page, err := decodePage(resp.Body)
	if err != nil {
		log.WithError(err).Debug("fetch returned malformed page")
		return nil, err
	}

	log.WithField("records", len(page.Records)).Debug("fetched page")
	return page, nil
}

func decodePage(body []byte) (*Page, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, malformed("page is not an object", err)
	}

	rawRecords, ok := top["records"]
	if !ok {
		return nil, malformed("page has no records", nil)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(rawRecords, &records); err != nil {
		return nil, malformed("records is not an array", err)
	}
	if records == nil {
		return nil, malformed("records is not an array", nil)
	}

	page := &Page{Records: make([]PageRecord, 0, len(records))}

	if rawOffset, ok := top["offset"]; ok && string(rawOffset) != "null" {
		if err := json.Unmarshal(rawOffset, &page.Next); err != nil {
			return nil, malformed("offset is not a string", err)
		}
	}

	for i, raw := range records {
		rec := decodeRecordPayload(raw)
		if rec.Err != nil {
			rec.Err = malformed(fmt.Sprintf("record %d", i), rec.Err)
		}
		page.Records = append(page.Records, rec)
	}

	return page, nil
}

// decodeRecordPayload decodes {"id": ..., "fields": {...}, "createdTime": ...}.
// Problems are reported in the returned record's Err.
func decodeRecordPayload(raw json.RawMessage) PageRecord {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return PageRecord{Err: fmt.Errorf("record is not an object: %w", err)}
	}

	var rec PageRecord

	rawID, ok := obj["id"]
	if !ok {
		return PageRecord{Err: fmt.Errorf("record has no id")}
	}
	if err := json.Unmarshal(rawID, &rec.ID); err != nil {
		return PageRecord{Err: fmt.Errorf("record id is not a string: %w", err)}
	}
	if rec.ID == "" {
		return PageRecord{Err: fmt.Errorf("record id is empty")}
	}

	rec.Fields = FieldSet{}
	if rawFields, ok := obj["fields"]; ok {
		if err := json.Unmarshal(rawFields, &rec.Fields); err != nil {
			return PageRecord{ID: rec.ID, Err: fmt.Errorf("fields of %s: %w", rec.ID, err)}
		}
		if rec.Fields == nil {
			rec.Fields = FieldSet{}
		}
	}

	if rawCreated, ok := obj["createdTime"]; ok {
		if err := json.Unmarshal(rawCreated, &rec.CreatedTime); err != nil {
			return PageRecord{ID: rec.ID, Err: fmt.Errorf("createdTime of %s: %w", rec.ID, err)}
		}
	}

	return rec
}
