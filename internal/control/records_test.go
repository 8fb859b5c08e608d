package control

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"gocloud.dev/blob/memblob"

	"github.com/vietddude/merchantloader/internal/core/config"
	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/infra/files"
	"github.com/vietddude/merchantloader/internal/pipeline"
)

func testDataConfig() config.DataConfig {
	return config.DataConfig{
		CSVPrefix: "csv/ACRA",
		JSONDir:   "json/",
		Combined:  "json/combined_uen.json",
		Stripped:  "json/combined_uen_no_status.json",
		Fields: config.FieldConfig{
			ID:     "uen",
			Name:   "entity_name",
			Status: "entity_status_description",
		},
	}
}

func newTestRecords(t *testing.T) (*Records, *files.Store) {
	t.Helper()
	store := files.NewStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { _ = store.Close() })
	return NewRecords(store, testDataConfig()), store
}

const header = "uen,entity_name,entity_status_description,issuance_agency_id\n"

func TestRecords_FullPipeline(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRecords(t)

	csvs := map[string]string{
		"csv/ACRAB.csv":      header + "B1,Bravo One,Live,ACRA\nB2,Bravo Two,Struck Off,ACRA\n",
		"csv/ACRAA.csv":      header + "A1,Alpha One,Live,ACRA\n",
		"csv/ACRAOthers.csv": header + "X1,Other One,Live,ACRA\n",
	}
	for key, body := range csvs {
		if err := store.Write(ctx, key, []byte(body)); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	results, err := r.Extract(ctx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(results) != len(pipeline.ShardNames()) {
		t.Fatalf("expected a result per shard, got %d", len(results))
	}
	if results[0].Shard != "A" || results[0].Records != 1 || results[0].Missing {
		t.Errorf("unexpected shard A result %+v", results[0])
	}
	if results[2].Shard != "C" || !results[2].Missing {
		t.Errorf("expected shard C missing, got %+v", results[2])
	}
	if last := results[len(results)-1]; last.Shard != "others" || last.Records != 1 {
		t.Errorf("unexpected others result %+v", last)
	}

	shardB, err := store.ReadRecords(ctx, "json/B.json")
	if err != nil {
		t.Fatalf("read shard B: %v", err)
	}
	if len(shardB) != 2 || !reflect.DeepEqual(shardB[1], domain.Record{ID: "B2", Name: "Bravo Two"}.WithStatus("Struck Off")) {
		t.Errorf("unexpected shard B %+v", shardB)
	}

	combined, _, err := r.Combine(ctx)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	wantIDs := []string{"A1", "B1", "B2", "X1"}
	if len(combined) != len(wantIDs) {
		t.Fatalf("expected %d combined records, got %d", len(wantIDs), len(combined))
	}
	for i, id := range wantIDs {
		if combined[i].ID != id {
			t.Errorf("combined[%d] = %s, want %s", i, combined[i].ID, id)
		}
	}

	stripped, err := r.Strip(ctx)
	if err != nil {
		t.Fatalf("Strip: %v", err)
	}
	loaded, err := r.Load(ctx, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != len(stripped) {
		t.Fatalf("loaded %d, stripped %d", len(loaded), len(stripped))
	}
	for i, rec := range loaded {
		if rec.HasStatus() {
			t.Errorf("record %s still has status", rec.ID)
		}
		if rec.ID != combined[i].ID || rec.Name != combined[i].Name {
			t.Errorf("record %d changed: %+v vs %+v", i, rec, combined[i])
		}
	}
}

func TestRecords_ExtractSchemaError(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRecords(t)

	if err := store.Write(ctx, "csv/ACRAA.csv", []byte("id,name\nA1,Alpha\n")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := r.Extract(ctx)
	var schemaErr *pipeline.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestRecords_CombineNoShards(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecords(t)

	combined, results, err := r.Combine(ctx)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(combined) != 0 {
		t.Errorf("expected empty output, got %d", len(combined))
	}
	for _, res := range results {
		if !res.Missing {
			t.Errorf("shard %s should be missing", res.Shard)
		}
	}
}

func TestRecords_StripWithoutCombined(t *testing.T) {
	r, _ := newTestRecords(t)
	if _, err := r.Strip(context.Background()); !errors.Is(err, files.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
