package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// word mirrors a small vocabulary table.
type word struct {
	Model
	Word   string `airtable:"Word"`
	Google int64  `airtable:"Google"`
	Next   bool   `airtable:"Next"`
}

func (w *word) Fields() (FieldSet, error) { return MarshalFields(w) }

func (w *word) SetFields(fs FieldSet) error { return UnmarshalFields(fs, w) }

type reply struct {
	resp *Response
	err  error
}

// scriptedTransport answers requests from a fixed list of replies and
// records every request it receives.
type scriptedTransport struct {
	replies  []reply
	requests []*Request
}

func (s *scriptedTransport) Send(_ context.Context, req *Request) (*Response, error) {
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return nil, errors.New("unexpected request")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.resp, r.err
}

func (s *scriptedTransport) push(status int, body string) *scriptedTransport {
	s.replies = append(s.replies, reply{resp: &Response{Status: status, Body: []byte(body)}})
	return s
}

func (s *scriptedTransport) fail(err error) *scriptedTransport {
	s.replies = append(s.replies, reply{err: err})
	return s
}

func paramValue(params []Param, key string) (string, bool) {
	for _, p := range params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func recordJSON(id, name string, google int) string {
	return fmt.Sprintf(`{"id":%q,"createdTime":"2024-01-02T03:04:05.000Z","fields":{"Word":%q,"Google":%d}}`, id, name, google)
}

func pageJSON(offset string, records ...string) string {
	body := map[string]interface{}{}
	raw := make([]json.RawMessage, len(records))
	for i, r := range records {
		raw[i] = json.RawMessage(r)
	}
	body["records"] = raw
	if offset != "" {
		body["offset"] = offset
	}
	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newWordTable(t Transport) *Table[word, *word] {
	return NewTable[word](quietLogger(), t, "appWords", "Words")
}

var background = context.Background()
