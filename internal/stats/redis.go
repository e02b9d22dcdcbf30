package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder keeps lookup counters in Redis hashes, one per table
// version and mode, so several service instances share the numbers
type RedisRecorder struct {
	client  *redis.Client
	version string        // knowledge table version
	ttl     time.Duration // counter lifetime, refreshed on every hit
}

// NewRedisRecorder creates a Redis-backed recorder
func NewRedisRecorder(redisURL, version string, ttl time.Duration) (*RedisRecorder, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRecorder{
		client:  client,
		version: version,
		ttl:     ttl,
	}, nil
}

// statsKey generates the Redis key for a mode's counters
func (r *RedisRecorder) statsKey(mode string) string {
	return statsKey(r.version, mode)
}

func statsKey(version, mode string) string {
	return fmt.Sprintf("chat:stats:%s:%s", version, mode)
}

// Record increments the lookup's bucket
func (r *RedisRecorder) Record(ctx context.Context, lookup Lookup) error {
	key := r.statsKey(lookup.Mode)

	pipe := r.client.TxPipeline()
	pipe.HIncrBy(ctx, key, lookup.Bucket(), 1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record lookup: %w", err)
	}

	return nil
}

// Snapshot reads all counters for the current table version
func (r *RedisRecorder) Snapshot(ctx context.Context) ([]Count, error) {
	var counts []Count

	for _, mode := range []string{"keyword", "menu"} {
		fields, err := r.client.HGetAll(ctx, r.statsKey(mode)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read stats: %w", err)
		}

		parsed, err := parseCounts(mode, fields)
		if err != nil {
			return nil, err
		}
		counts = append(counts, parsed...)
	}

	sortCounts(counts)
	return counts, nil
}

// Close closes the Redis connection
func (r *RedisRecorder) Close() error {
	return r.client.Close()
}

// Ping verifies the Redis connection is alive
func (r *RedisRecorder) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func parseCounts(mode string, fields map[string]string) ([]Count, error) {
	counts := make([]Count, 0, len(fields))
	for bucket, raw := range fields {
		hits, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad counter %s=%q: %w", bucket, raw, err)
		}
		counts = append(counts, Count{Mode: mode, Bucket: bucket, Outcome: outcomeOf(bucket), Hits: hits})
	}
	return counts, nil
}
