package airtable

import (
	"context"
	"errors"
	"iter"
)

type iteratorState byte

const (
	stateIdle iteratorState = iota
	stateFetching
	stateDraining
	stateExhausted
	stateFailed
)

func (s iteratorState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateFetching:
		return "fetching"
	case stateDraining:
		return "draining"
	case stateExhausted:
		return "exhausted"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Iterator walks the records of a query across as many pages as the store
// returns. A page is requested only when the previous one has been fully
// consumed. An Iterator cannot be rewound; run the query again instead.
type Iterator[T any, P RecordPtr[T]] struct {
	fetcher *Fetcher
	query   Query

	state   iteratorState
	queue   []PageRecord
	cursor  string
	fetches int
}

func newIterator[T any, P RecordPtr[T]](f *Fetcher, q Query) *Iterator[T, P] {
	return &Iterator[T, P]{
		fetcher: f,
		query:   q,
		state:   stateIdle,
	}
}

// Next returns the next record. It returns Done once the records run out.
//
// A failed page request is returned once and ends the iteration. A record
// that cannot be decoded is returned as an error for that record only and
// the iteration may continue.
func (it *Iterator[T, P]) Next(ctx context.Context) (T, error) {
	var zero T

	for {
		switch it.state {
		case stateIdle, stateFetching:
			it.state = stateFetching
			it.fetches++
			page, err := it.fetcher.Fetch(ctx, it.query, it.cursor)
			if err != nil {
				it.state = stateFailed
				it.queue = nil
				return zero, err
			}
			it.queue = page.Records
			it.cursor = page.Next
			if len(it.queue) == 0 && it.cursor == "" {
				it.state = stateExhausted
			} else {
				it.state = stateDraining
			}

		case stateDraining:
			if len(it.queue) == 0 {
				if it.cursor != "" {
					it.state = stateFetching
				} else {
					it.state = stateExhausted
				}
				continue
			}

			rec := it.queue[0]
			it.queue = it.queue[1:]
			if rec.Err != nil {
				return zero, rec.Err
			}
			return decodeRecord[T, P](rec.ID, rec.Fields)

		default:
			return zero, Done
		}
	}
}

// Fetches reports how many page requests the iterator has made.
func (it *Iterator[T, P]) Fetches() int {
	return it.fetches
}

// All adapts the iterator to a range-over-func sequence. Iteration stops
// after the first failed page request; per-record errors are yielded and
// iteration continues unless the loop breaks.
func (it *Iterator[T, P]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			rec, err := it.Next(ctx)
			if errors.Is(err, Done) {
				return
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

// Collect drains the iterator. It stops at the first error.
func (it *Iterator[T, P]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for {
		rec, err := it.Next(ctx)
		if errors.Is(err, Done) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
