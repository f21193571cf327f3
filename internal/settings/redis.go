// Package settings provides the Redis-backed runtime settings store.
// Operators tune these values without a redeploy; readers fall back to a
// safe default when a key has never been set.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	keySimilarityThreshold = "bulkmail:settings:company_similarity_threshold"

	// DefaultSimilarityThreshold is the trigram similarity above which two
	// company names are considered the same company for blocking purposes.
	DefaultSimilarityThreshold = 0.45
)

// Store reads and writes runtime settings in Redis.
type Store struct {
	rdb *redis.Client
}

// NewStore creates a settings store backed by the given Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// SimilarityThreshold returns the configured company-name similarity
// threshold, or the default when unset. A Redis failure is returned to the
// caller: blocking policy must not silently degrade.
func (s *Store) SimilarityThreshold(ctx context.Context) (float64, error) {
	val, err := s.rdb.Get(ctx, keySimilarityThreshold).Result()
	if errors.Is(err, redis.Nil) {
		return DefaultSimilarityThreshold, nil
	}
	if err != nil {
		return 0, fmt.Errorf("settings: similarity threshold: %w", err)
	}

	threshold, err := strconv.ParseFloat(val, 64)
	if err != nil || threshold <= 0 || threshold > 1 {
		return DefaultSimilarityThreshold, nil
	}
	return threshold, nil
}

// SetSimilarityThreshold stores a new threshold. Values outside (0, 1]
// are rejected.
func (s *Store) SetSimilarityThreshold(ctx context.Context, threshold float64) error {
	if threshold <= 0 || threshold > 1 {
		return fmt.Errorf("settings: threshold %v out of range (0, 1]", threshold)
	}
	if err := s.rdb.Set(ctx, keySimilarityThreshold, strconv.FormatFloat(threshold, 'f', -1, 64), 0).Err(); err != nil {
		return fmt.Errorf("settings: set similarity threshold: %w", err)
	}
	return nil
}
