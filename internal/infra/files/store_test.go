package files

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"gocloud.dev/blob/memblob"

	"github.com/vietddude/merchantloader/internal/core/config"
	"github.com/vietddude/merchantloader/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestParseCSV(t *testing.T) {
	input := "\ufeffuen,entity_name,entity_status_description\n" +
		"201912345K,\"ACME, PTE. LTD.\",Live Company\n" +
		"T08LL1234A,BETA LLP,Struck Off\n"

	rows, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["uen"] != "201912345K" || rows[0]["entity_name"] != "ACME, PTE. LTD." {
		t.Errorf("unexpected first row %v", rows[0])
	}
	if rows[1]["entity_status_description"] != "Struck Off" {
		t.Errorf("unexpected second row %v", rows[1])
	}
}

func TestParseCSV_Empty(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader(""))
	if err != nil || rows != nil {
		t.Errorf("expected no rows and no error, got %v, %v", rows, err)
	}
}

func TestStore_RecordsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	records := []domain.Record{
		domain.Record{ID: "A1", Name: "Alpha"}.WithStatus("Live"),
		domain.Record{ID: "A2", Name: "Beta"}.WithStatus(""),
		{ID: "A3", Name: "Gamma"},
	}
	if err := s.WriteRecords(ctx, "json/A.json", records); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}

	raw, err := s.bucket.ReadAll(ctx, "json/A.json")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := `[
  {
    "uen": "A1",
    "entity_name": "Alpha",
    "entity_status": "Live"
  },
  {
    "uen": "A2",
    "entity_name": "Beta",
    "entity_status": ""
  },
  {
    "uen": "A3",
    "entity_name": "Gamma"
  }
]`
	if string(raw) != want {
		t.Errorf("unexpected JSON layout:\n%s", raw)
	}

	got, err := s.ReadRecords(ctx, "json/A.json")
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestStore_WriteEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.WriteRecords(ctx, "empty.json", nil); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}
	raw, _ := s.bucket.ReadAll(ctx, "empty.json")
	if string(raw) != "[]" {
		t.Errorf("expected [], got %s", raw)
	}
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.ReadRecords(ctx, "json/Q.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.ReadCSV(ctx, "csv/Q.csv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	ok, err := s.Exists(ctx, "json/Q.json")
	if err != nil || ok {
		t.Errorf("expected missing key, got %v, %v", ok, err)
	}
}

func TestLayout(t *testing.T) {
	l := NewLayout(config.DataConfig{
		CSVPrefix: "csv/ACRAInformationonCorporateEntities",
		JSONDir:   "json/",
	})

	if got := l.CSVKey("B"); got != "csv/ACRAInformationonCorporateEntitiesB.csv" {
		t.Errorf("CSVKey(B) = %s", got)
	}
	if got := l.CSVKey("others"); got != "csv/ACRAInformationonCorporateEntitiesOthers.csv" {
		t.Errorf("CSVKey(others) = %s", got)
	}
	if got := l.ShardKey("others"); got != "json/others.json" {
		t.Errorf("ShardKey(others) = %s", got)
	}
}
