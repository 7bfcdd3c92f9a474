package airtable

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Done is returned by Iterator.Next when no more records remain.
	Done = errors.New("airtable: no more records in iterator")

	// ErrMissingID is returned by writes that need a record id when the
	// record has none. No request is sent.
	ErrMissingID = errors.New("airtable: record has no id")

	// ErrNotFound matches a RemoteError for a record the store does not have.
	ErrNotFound = errors.New("airtable: record not found")

	// ErrRateLimited matches a RemoteError for a throttled request.
	ErrRateLimited = errors.New("airtable: rate limited")

	errNilResponse = errors.New("transport returned no response")
)

// RemoteError is returned when the store understood a request and declined
// it: a bad formula, a permission problem, a rate limit or a missing record.
type RemoteError struct {
	Status  int
	Type    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("airtable: remote rejected request (%d %s): %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable: remote rejected request (%d %s)", e.Status, e.Type)
}

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}

// MalformedError is returned when a payload does not have the expected
// page or record shape.
type MalformedError struct {
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("airtable: malformed payload: %s: %v", e.Reason, e.Err)
	}
	return "airtable: malformed payload: " + e.Reason
}

func (e *MalformedError) Unwrap() error { return e.Err }

func malformed(reason string, err error) *MalformedError {
	return &MalformedError{Reason: reason, Err: err}
}

// TransportError wraps a failure of the Transport itself.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("airtable: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
