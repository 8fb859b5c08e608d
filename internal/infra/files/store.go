// Package files reads and writes record files in a gocloud.dev blob bucket
// (local directory, S3, GCS or in-memory).
package files

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/memblob"  // mem:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
	"gocloud.dev/gcerrors"

	"github.com/vietddude/merchantloader/internal/core/domain"
)

// ErrNotFound is returned when a key does not exist in the bucket.
var ErrNotFound = errors.New("file not found")

// Store wraps a blob bucket holding record files.
type Store struct {
	bucket *blob.Bucket
}

// Open opens the bucket at url, e.g. file:///srv/data or s3://bucket?region=ap-southeast-1.
// Local file:// directories are created on first write.
func Open(ctx context.Context, url string) (*Store, error) {
	if strings.HasPrefix(url, "file://") && !strings.Contains(url, "?") {
		url += "?create_dir=true"
	}
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", url, err)
	}
	return &Store{bucket: bucket}, nil
}

// NewStore wraps an already opened bucket.
func NewStore(bucket *blob.Bucket) *Store {
	return &Store{bucket: bucket}
}

// Close closes the underlying bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return ok, nil
}

// ReadCSV reads a CSV file with a header row and returns one map per data
// row, keyed by column name.
func (s *Store) ReadCSV(ctx context.Context, key string) ([]map[string]string, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, wrapNotFound(key, err)
	}
	defer r.Close()

	return ParseCSV(r)
}

// ParseCSV decodes CSV with a header row.
func ParseCSV(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows []map[string]string
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadRecords reads a JSON array of records.
func (s *Store) ReadRecords(ctx context.Context, key string) ([]domain.Record, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, wrapNotFound(key, err)
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return records, nil
}

// WriteRecords writes records as a JSON array with 2-space indentation.
// An empty slice is written as [].
func (s *Store) WriteRecords(ctx context.Context, key string, records []domain.Record) error {
	if records == nil {
		records = []domain.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Write(ctx, key, data)
}

// Write stores data under key.
func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("write data to %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", key, err)
	}
	return nil
}

func wrapNotFound(key string, err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("read %s: %w", key, err)
}
