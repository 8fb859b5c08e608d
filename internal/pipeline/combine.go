package pipeline

import "github.com/vietddude/merchantloader/internal/core/domain"

// othersShard holds entities whose name does not start with A-Z.
const othersShard = "others"

// ShardNames returns the shard order used when combining: A..Z, then others.
func ShardNames() []string {
	names := make([]string, 0, 27)
	for c := 'A'; c <= 'Z'; c++ {
		names = append(names, string(c))
	}
	return append(names, othersShard)
}

// Combine concatenates shards in the given order, keeping each shard's
// internal order. Duplicate ids are passed through.
func Combine(shards [][]domain.Record) []domain.Record {
	total := 0
	for _, s := range shards {
		total += len(s)
	}

	combined := make([]domain.Record, 0, total)
	for _, s := range shards {
		combined = append(combined, s...)
	}
	return combined
}

// Duplicates lists ids that occur more than once, in first-repeat order.
func Duplicates(records []domain.Record) []string {
	seen := make(map[string]int, len(records))
	var dups []string
	for _, r := range records {
		seen[r.ID]++
		if seen[r.ID] == 2 {
			dups = append(dups, r.ID)
		}
	}
	return dups
}
