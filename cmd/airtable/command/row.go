package command

import (
	"encoding/json"
	"fmt"

	"github.com/joeandaverde/airtable"
)

// Row is a schemaless record: whatever fields the table has.
type Row struct {
	airtable.Model
	fields airtable.FieldSet
}

func (r *Row) Fields() (airtable.FieldSet, error) {
	return r.fields.Clone(), nil
}

func (r *Row) SetFields(fields airtable.FieldSet) error {
	r.fields = fields
	return nil
}

// parseRow reads a JSON object of field values.
func parseRow(id, text string) (*Row, error) {
	var fields airtable.FieldSet
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("fields must be a JSON object: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("fields must be a JSON object")
	}
	r := &Row{fields: fields}
	r.SetID(id)
	return r, nil
}
