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

// PutPending fills the session's slot with a TTL, replacing any previous action
func (s *Store) PutPending(ctx context.Context, session string, action domain.PendingAction, ttl time.Duration) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal pending action: %w", err)
	}
	if err := s.client.Set(ctx, PendingKey(session), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save pending action: %w", err)
	}
	return nil
}

// TakePending reads and clears the slot in one GETDEL
func (s *Store) TakePending(ctx context.Context, session string) (domain.PendingAction, bool, error) {
	data, err := s.client.GetDel(ctx, PendingKey(session)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PendingAction{}, false, nil
		}
		return domain.PendingAction{}, false, fmt.Errorf("failed to take pending action: %w", err)
	}

	var action domain.PendingAction
	if err := json.Unmarshal(data, &action); err != nil {
		return domain.PendingAction{}, false, fmt.Errorf("failed to unmarshal pending action: %w", err)
	}
	return action, true, nil
}
