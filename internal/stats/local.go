package stats

import (
	"context"
	"sync"
)

// LocalRecorder counts lookups in process memory
type LocalRecorder struct {
	mu     sync.Mutex
	counts map[string]map[string]int64 // mode -> bucket -> hits
}

func NewLocalRecorder() *LocalRecorder {
	return &LocalRecorder{counts: make(map[string]map[string]int64)}
}

func (r *LocalRecorder) Record(ctx context.Context, lookup Lookup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	buckets, ok := r.counts[lookup.Mode]
	if !ok {
		buckets = make(map[string]int64)
		r.counts[lookup.Mode] = buckets
	}
	buckets[lookup.Bucket()]++
	return nil
}

func (r *LocalRecorder) Snapshot(ctx context.Context) ([]Count, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var counts []Count
	for mode, buckets := range r.counts {
		for bucket, hits := range buckets {
			counts = append(counts, Count{Mode: mode, Bucket: bucket, Outcome: outcomeOf(bucket), Hits: hits})
		}
	}
	sortCounts(counts)
	return counts, nil
}
