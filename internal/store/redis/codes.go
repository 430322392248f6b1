package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
)

// maxUpdateRetries bounds optimistic retries when a watched code changes
// underneath a transition.
const maxUpdateRetries = 5

// InsertCode stores a new code only if its key is free. Tombstones keep the
// key, so deleted codes cannot be recreated. The key is removed again when
// the code cannot be added to the index set.
func (s *Store) InsertCode(ctx context.Context, code domain.ScannableCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal code: %w", err)
	}

	created, err := s.client.SetNX(ctx, CodeKey(code.Code), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, code.Code)
	}

	if err := s.client.SAdd(ctx, KeyAllCodes, code.Code).Err(); err != nil {
		// unindexed codes would be invisible to listings, so free the key again
		if delErr := s.client.Del(context.WithoutCancel(ctx), CodeKey(code.Code)).Err(); delErr != nil {
			return fmt.Errorf("failed to add code to set: %w (rollback: %v)", err, delErr)
		}
		return fmt.Errorf("failed to add code to set: %w", err)
	}
	return nil
}

// GetCode retrieves a code, tombstones included
func (s *Store) GetCode(ctx context.Context, code string) (domain.ScannableCode, error) {
	return getCode(ctx, s.client, code)
}

// getter is satisfied by both the client and a WATCH transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getCode(ctx context.Context, c getter, code string) (domain.ScannableCode, error) {
	data, err := c.Get(ctx, CodeKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ScannableCode{}, fmt.Errorf("%w: %s", domain.ErrNotFound, code)
		}
		return domain.ScannableCode{}, fmt.Errorf("failed to get code: %w", err)
	}

	var sc domain.ScannableCode
	if err := json.Unmarshal(data, &sc); err != nil {
		return domain.ScannableCode{}, fmt.Errorf("failed to unmarshal code: %w", err)
	}
	return sc, nil
}

// UpdateCode runs fn against the current code inside WATCH/MULTI. If the key
// changes before EXEC the transition is re-evaluated against the new state,
// so of two racing binds the loser sees the code bound and fails.
func (s *Store) UpdateCode(ctx context.Context, code string, fn func(*domain.ScannableCode) error) (domain.ScannableCode, error) {
	key := CodeKey(code)
	var result domain.ScannableCode

	txf := func(tx *redis.Tx) error {
		sc, err := getCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if err := fn(&sc); err != nil {
			return err
		}
		data, err := json.Marshal(sc)
		if err != nil {
			return fmt.Errorf("failed to marshal code: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			result = sc
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.ScannableCode{}, err
	}

	return domain.ScannableCode{}, fmt.Errorf("%w: %s", domain.ErrConflict, code)
}

// ListCodes retrieves every code, tombstones included
func (s *Store) ListCodes(ctx context.Context) ([]domain.ScannableCode, error) {
	ids, err := s.client.SMembers(ctx, KeyAllCodes).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get code ids: %w", err)
	}
	if len(ids) == 0 {
		return []domain.ScannableCode{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = CodeKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get codes: %w", err)
	}

	codes := make([]domain.ScannableCode, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Skip codes whose document vanished
			continue
		}
		var sc domain.ScannableCode
		if err := json.Unmarshal([]byte(raw), &sc); err != nil {
			continue
		}
		codes = append(codes, sc)
	}
	return codes, nil
}
