package pipeline

import "github.com/vietddude/merchantloader/internal/core/domain"

// StripStatus returns a copy of records without the status field.
func StripStatus(records []domain.Record) []domain.Record {
	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = domain.Record{ID: r.ID, Name: r.Name}
	}
	return out
}
