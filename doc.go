// Package airtable is a typed client for a bases/tables/records REST store.
//
// A row type implements Record, usually by embedding Model and delegating
// to MarshalFields and UnmarshalFields:
//
//	type Word struct {
//		airtable.Model
//		Word   string `airtable:"Word"`
//		Google int64  `airtable:"Google"`
//		Next   bool   `airtable:"Next"`
//	}
//
//	func (w *Word) Fields() (airtable.FieldSet, error) { return airtable.MarshalFields(w) }
//	func (w *Word) SetFields(fs airtable.FieldSet) error { return airtable.UnmarshalFields(fs, w) }
//
// Queries are built on a Table and read through an Iterator, which fetches
// pages lazily:
//
//	words := airtable.NewTable[Word](log, transport, "appXXXX", "Words")
//	it := words.Query().
//		View("To Learn").
//		Sort("Next", airtable.Descending).
//		Sort("Google", airtable.Descending).
//		Formula(`FIND("Harry Potter", Source)`).
//		Iter()
//	for w, err := range it.All(ctx) {
//		...
//	}
//
// The Transport does the HTTP work; see package httptransport.
package airtable
