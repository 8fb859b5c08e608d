package pipeline

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vietddude/merchantloader/internal/core/domain"
)

func TestProject(t *testing.T) {
	row := map[string]string{
		"uen":                       "201912345K",
		"entity_name":               "ACME PTE. LTD.",
		"entity_status_description": "Live Company",
		"issuance_agency_id":        "ACRA",
	}

	rec, err := Project(row, DefaultFieldMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.Record{ID: "201912345K", Name: "ACME PTE. LTD."}.WithStatus("Live Company")
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("Project() = %+v, want %+v", rec, want)
	}
}

func TestProject_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		row   map[string]string
		field string
	}{
		{"missing id", map[string]string{"entity_name": "A", "entity_status_description": "Live"}, "id"},
		{"empty id", map[string]string{"uen": "  ", "entity_name": "A", "entity_status_description": "Live"}, "id"},
		{"missing name", map[string]string{"uen": "1", "entity_status_description": "Live"}, "name"},
		{"missing status", map[string]string{"uen": "1", "entity_name": "A"}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Project(tt.row, DefaultFieldMap)
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if se.Field != tt.field {
				t.Errorf("field = %q, want %q", se.Field, tt.field)
			}
		})
	}
}

func TestProjectAll_ReportsRow(t *testing.T) {
	rows := []map[string]string{
		{"uen": "1", "entity_name": "A", "entity_status_description": "Live"},
		{"uen": "2", "entity_status_description": "Live"},
	}

	_, err := ProjectAll(rows, DefaultFieldMap)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Row != 1 {
		t.Errorf("row = %d, want 1", se.Row)
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("error %q does not mention the row", err)
	}
}

func ids(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestCombine_PreservesOrder(t *testing.T) {
	shards := [][]domain.Record{
		{{ID: "1"}},
		{{ID: "2"}, {ID: "3"}},
	}

	got := ids(Combine(shards))
	want := []string{"1", "2", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Combine() = %v, want %v", got, want)
	}
}

func TestCombine_ShardOrderAndDuplicates(t *testing.T) {
	shards := [][]domain.Record{
		{{ID: "z1"}, {ID: "z2"}},
		{},
		{{ID: "a1"}, {ID: "z1"}},
	}

	got := ids(Combine(shards))
	want := []string{"z1", "z2", "a1", "z1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Combine() = %v, want %v", got, want)
	}
	if dups := Duplicates(Combine(shards)); !reflect.DeepEqual(dups, []string{"z1"}) {
		t.Errorf("Duplicates() = %v, want [z1]", dups)
	}
}

func TestCombine_Empty(t *testing.T) {
	if got := Combine(nil); len(got) != 0 {
		t.Errorf("Combine(nil) = %v, want empty", got)
	}
}

func TestShardNames(t *testing.T) {
	names := ShardNames()
	if len(names) != 27 {
		t.Fatalf("len = %d, want 27", len(names))
	}
	if names[0] != "A" || names[25] != "Z" || names[26] != "others" {
		t.Errorf("unexpected shard order: %v", names)
	}
}

func TestStripStatus(t *testing.T) {
	in := []domain.Record{
		domain.Record{ID: "1", Name: "ACME"}.WithStatus("Live"),
		domain.Record{ID: "2", Name: "BETA"}.WithStatus("Struck Off"),
		{ID: "3", Name: "GAMMA"},
	}

	once := StripStatus(in)
	twice := StripStatus(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("StripStatus is not idempotent: %v vs %v", once, twice)
	}
	for i, r := range once {
		if r.ID != in[i].ID || r.Name != in[i].Name {
			t.Errorf("record %d changed: %+v -> %+v", i, in[i], r)
		}
		if r.HasStatus() {
			t.Errorf("record %d still has status", i)
		}
	}
	if in[0].StatusText() != "Live" {
		t.Error("StripStatus mutated its input")
	}

	data, err := json.Marshal(once)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "entity_status") {
		t.Errorf("stripped JSON still has a status key: %s", data)
	}
}

func TestProject_EmptyStatusKeepsField(t *testing.T) {
	row := map[string]string{
		"uen":                       "53312345A",
		"entity_name":               "SOLE TRADER",
		"entity_status_description": "",
	}

	rec, err := Project(row, DefaultFieldMap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.HasStatus() || rec.StatusText() != "" {
		t.Errorf("expected an empty status to be kept, got %+v", rec)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"entity_status":""`) {
		t.Errorf("raw record must carry its status key: %s", data)
	}
}
