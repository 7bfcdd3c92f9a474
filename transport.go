package airtable

import (
	"context"
	"encoding/json"
	"net/http"
)

// Param is a single query parameter. Params are kept in a slice because
// their order is significant for sort keys.
type Param struct {
	Key   string
	Value string
}

// Request is one round-trip to the store, relative to the API root.
type Request struct {
	Method string
	Path   string
	Params []Param
	Body   json.RawMessage
}

// Response is the raw reply of the store. Status is the HTTP status code.
type Response struct {
	Status int
	Body   []byte
}

// Transport sends requests to the store. It owns connection handling,
// authentication and any backoff; the client issues exactly one Send per
// fetch or write.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

type errorPayload struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// send performs a request and turns failures into the package error kinds.
func send(ctx context.Context, t Transport, req *Request) (*Response, error) {
	resp, err := t.Send(ctx, req)
	if err != nil {
		return nil, &TransportError{Method: req.Method, Path: req.Path, Err: err}
	}
	if resp == nil {
		return nil, &TransportError{Method: req.Method, Path: req.Path, Err: errNilResponse}
	}
	if resp.Status >= http.StatusBadRequest {
		return nil, remoteError(resp)
	}
	return resp, nil
}

// remoteError decodes both error shapes the store uses:
// {"error": {"type": "...", "message": "..."}} and {"error": "NOT_FOUND"}.
func remoteError(resp *Response) *RemoteError {
	rerr := &RemoteError{Status: resp.Status, Type: http.StatusText(resp.Status)}

	var payload errorPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil || len(payload.Error) == 0 {
		if len(resp.Body) > 0 {
			rerr.Message = string(resp.Body)
		}
		return rerr
	}

	var detail errorDetail
	if err := json.Unmarshal(payload.Error, &detail); err == nil {
		if detail.Type != "" {
			rerr.Type = detail.Type
		}
		rerr.Message = detail.Message
		return rerr
	}

	var typ string
	if err := json.Unmarshal(payload.Error, &typ); err == nil && typ != "" {
		rerr.Type = typ
	}
	return rerr
}
