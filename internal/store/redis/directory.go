package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LoadDirectory returns the owner's stored document, or nil if none
func (s *Store) LoadDirectory(ctx context.Context, owner string) ([]byte, error) {
	data, err := s.client.Get(ctx, DirectoryKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get directory: %w", err)
	}
	return data, nil
}

// SaveDirectory replaces the owner's document as a whole
func (s *Store) SaveDirectory(ctx context.Context, owner string, data []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, DirectoryKey(owner), data, 0)
	pipe.SAdd(ctx, KeyAllOwners, owner)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save directory: %w", err)
	}
	return nil
}

// ListOwners returns owners with a saved directory
func (s *Store) ListOwners(ctx context.Context) ([]string, error) {
	owners, err := s.client.SMembers(ctx, KeyAllOwners).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get owners: %w", err)
	}
	return owners, nil
}
