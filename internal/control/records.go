package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/merchantloader/internal/core/config"
	"github.com/vietddude/merchantloader/internal/core/domain"
	"github.com/vietddude/merchantloader/internal/infra/files"
	"github.com/vietddude/merchantloader/internal/metrics"
	"github.com/vietddude/merchantloader/internal/pipeline"
)

const extractConcurrency = 4

// ShardResult summarizes one shard of an extract or combine.
type ShardResult struct {
	Shard   string
	Records int
	Missing bool
}

// Records runs the file stages of the pipeline against a bucket.
type Records struct {
	store  *files.Store
	layout files.Layout
	fields pipeline.FieldMap
	log    *slog.Logger
}

// NewRecords creates the record file stages.
func NewRecords(store *files.Store, cfg config.DataConfig) *Records {
	return &Records{
		store:  store,
		layout: files.NewLayout(cfg),
		fields: pipeline.FieldMap{
			ID:     cfg.Fields.ID,
			Name:   cfg.Fields.Name,
			Status: cfg.Fields.Status,
		},
		log: slog.Default().With("component", "records"),
	}
}

// Extract projects every CSV shard into its JSON shard. Shards are converted
// in parallel; a missing CSV is skipped with a warning. Results are in shard
// order.
func (r *Records) Extract(ctx context.Context) ([]ShardResult, error) {
	shards := pipeline.ShardNames()
	results := make([]ShardResult, len(shards))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(extractConcurrency)

	for i, shard := range shards {
		g.Go(func() error {
			res, err := r.extractShard(ctx, shard)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Records) extractShard(ctx context.Context, shard string) (ShardResult, error) {
	key := r.layout.CSVKey(shard)
	rows, err := r.store.ReadCSV(ctx, key)
	if errors.Is(err, files.ErrNotFound) {
		r.log.Warn("File not found", "file", key)
		return ShardResult{Shard: shard, Missing: true}, nil
	}
	if err != nil {
		return ShardResult{}, err
	}

	records, err := pipeline.ProjectAll(rows, r.fields)
	if err != nil {
		return ShardResult{}, fmt.Errorf("shard %s: %w", shard, err)
	}

	out := r.layout.ShardKey(shard)
	if err := r.store.WriteRecords(ctx, out, records); err != nil {
		return ShardResult{}, err
	}
	r.log.Info("Data has been extracted", "file", out, "records", len(records))
	return ShardResult{Shard: shard, Records: len(records)}, nil
}

// Combine concatenates the JSON shards A..Z then others into the combined
// file. Missing shards are skipped; duplicate IDs are reported, not removed.
func (r *Records) Combine(ctx context.Context) ([]domain.Record, []ShardResult, error) {
	shards := pipeline.ShardNames()
	parts := make([][]domain.Record, 0, len(shards))
	results := make([]ShardResult, 0, len(shards))

	for _, shard := range shards {
		key := r.layout.ShardKey(shard)
		records, err := r.store.ReadRecords(ctx, key)
		if errors.Is(err, files.ErrNotFound) {
			r.log.Warn("File not found", "file", key)
			results = append(results, ShardResult{Shard: shard, Missing: true})
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		r.log.Debug("Processed shard", "file", key, "records", len(records))
		parts = append(parts, records)
		results = append(results, ShardResult{Shard: shard, Records: len(records)})
	}

	combined := pipeline.Combine(parts)
	if dups := pipeline.Duplicates(combined); len(dups) > 0 {
		r.log.Warn("Duplicate record IDs in combined data", "count", len(dups), "first", dups[0])
	}

	if err := r.store.WriteRecords(ctx, r.layout.Combined, combined); err != nil {
		return nil, nil, err
	}
	metrics.BatchRecords.WithLabelValues("combined").Set(float64(len(combined)))
	r.log.Info("Combined data written", "file", r.layout.Combined, "total", len(combined))
	return combined, results, nil
}

// Strip removes the status field from the combined file and writes the
// upload input.
func (r *Records) Strip(ctx context.Context) ([]domain.Record, error) {
	combined, err := r.store.ReadRecords(ctx, r.layout.Combined)
	if err != nil {
		return nil, err
	}

	stripped := pipeline.StripStatus(combined)
	if err := r.store.WriteRecords(ctx, r.layout.Stripped, stripped); err != nil {
		return nil, err
	}
	r.log.Info("Status removed from all records", "file", r.layout.Stripped, "total", len(stripped))
	return stripped, nil
}

// Load reads the upload input, the stripped file unless key overrides it.
func (r *Records) Load(ctx context.Context, key string) ([]domain.Record, error) {
	if key == "" {
		key = r.layout.Stripped
	}
	return r.store.ReadRecords(ctx, key)
}
