package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
)

// AppendScan pushes an event onto the global and the per-code list
func (s *Store) AppendScan(ctx context.Context, event domain.ScanEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal scan event: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, KeyAllScans, data)
	pipe.LPush(ctx, ScansKey(event.Code), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append scan event: %w", err)
	}
	return nil
}

// ListScans returns up to limit events, newest first. An empty code reads
// the global list.
func (s *Store) ListScans(ctx context.Context, code string, limit int) ([]domain.ScanEvent, error) {
	key := KeyAllScans
	if code != "" {
		key = ScansKey(code)
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	values, err := s.client.LRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list scan events: %w", err)
	}

	events := make([]domain.ScanEvent, 0, len(values))
	for _, v := range values {
		var e domain.ScanEvent
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// CountScans returns the length of the global list
func (s *Store) CountScans(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, KeyAllScans).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count scan events: %w", err)
	}
	return n, nil
}
