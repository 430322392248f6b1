package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
)

// DefaultCatalogTTL is how long a cached platform catalog stays usable (7 days)
const DefaultCatalogTTL = 7 * 24 * time.Hour

// SavePlatforms caches the last good platform catalog
func (s *Store) SavePlatforms(ctx context.Context, platforms []domain.Platform) error {
	data, err := json.Marshal(platforms)
	if err != nil {
		return fmt.Errorf("failed to marshal platforms: %w", err)
	}
	if err := s.client.Set(ctx, KeyPlatforms, data, DefaultCatalogTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache platforms: %w", err)
	}
	return nil
}

// FetchPlatforms reads the cached catalog. A cache miss is an empty list.
func (s *Store) FetchPlatforms(ctx context.Context) ([]domain.Platform, error) {
	data, err := s.client.Get(ctx, KeyPlatforms).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached platforms: %w", err)
	}

	var platforms []domain.Platform
	if err := json.Unmarshal(data, &platforms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached platforms: %w", err)
	}
	return platforms, nil
}
