package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Store is the Redis storage collaborator: codes, directories, scan events,
// pending action slots and the platform catalog cache.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the connection for readiness probes
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
