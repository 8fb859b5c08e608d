package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vietddude/merchantloader/internal/core/domain"
)

// FieldMap names the source columns a record is projected from.
type FieldMap struct {
	ID     string
	Name   string
	Status string
}

// DefaultFieldMap matches the registry CSV extract headers.
var DefaultFieldMap = FieldMap{
	ID:     "uen",
	Name:   "entity_name",
	Status: "entity_status_description",
}

// SchemaError reports a raw record that cannot be projected.
type SchemaError struct {
	Row    int // -1 when unknown
	Field  string
	Key    string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("row %d: field %s (column %q): %s", e.Row, e.Field, e.Key, e.Reason)
	}
	return fmt.Sprintf("field %s (column %q): %s", e.Field, e.Key, e.Reason)
}

// Project extracts id, name and status from an arbitrary keyed row.
func Project(raw map[string]string, fields FieldMap) (domain.Record, error) {
	id, ok := raw[fields.ID]
	if !ok {
		return domain.Record{}, &SchemaError{Row: -1, Field: "id", Key: fields.ID, Reason: "missing"}
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Record{}, &SchemaError{Row: -1, Field: "id", Key: fields.ID, Reason: "empty"}
	}

	name, ok := raw[fields.Name]
	if !ok {
		return domain.Record{}, &SchemaError{Row: -1, Field: "name", Key: fields.Name, Reason: "missing"}
	}

	status, ok := raw[fields.Status]
	if !ok {
		return domain.Record{}, &SchemaError{Row: -1, Field: "status", Key: fields.Status, Reason: "missing"}
	}

	return domain.Record{ID: id, Name: name}.WithStatus(status), nil
}

// ProjectAll projects every row, stopping at the first malformed one.
func ProjectAll(rows []map[string]string, fields FieldMap) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := Project(row, fields)
		if err != nil {
			var se *SchemaError
			if errors.As(err, &se) {
				se.Row = i
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
