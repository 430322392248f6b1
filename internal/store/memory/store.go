package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
)

// Store keeps everything in process memory. It backs QRCARD_STORE=memory and
// the service tests. A single mutex arbitrates code transitions, which gives
// per-code mutual exclusion trivially.
type Store struct {
	mu          sync.RWMutex
	codes       map[string]domain.ScannableCode
	directories map[string][]byte
	scans       []domain.ScanEvent
	pending     map[string]pendingSlot
	platforms   []domain.Platform

	now func() time.Time
}

type pendingSlot struct {
	action    domain.PendingAction
	expiresAt time.Time
}

// NewStore creates an empty memory store.
func NewStore() *Store {
	return &Store{
		codes:       make(map[string]domain.ScannableCode),
		directories: make(map[string][]byte),
		pending:     make(map[string]pendingSlot),
		now:         time.Now,
	}
}

// InsertCode stores a new code. Tombstoned codes count as existing.
func (s *Store) InsertCode(_ context.Context, code domain.ScannableCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[code.Code]; exists {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, code.Code)
	}
	s.codes[code.Code] = code
	return nil
}

// GetCode loads a code, tombstones included.
func (s *Store) GetCode(_ context.Context, code string) (domain.ScannableCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.codes[code]
	if !ok {
		return domain.ScannableCode{}, fmt.Errorf("%w: %s", domain.ErrNotFound, code)
	}
	return c, nil
}

// UpdateCode applies fn to a copy of the code under the write lock and
// stores the result only if fn succeeds.
func (s *Store) UpdateCode(_ context.Context, code string, fn func(*domain.ScannableCode) error) (domain.ScannableCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return domain.ScannableCode{}, fmt.Errorf("%w: %s", domain.ErrNotFound, code)
	}
	if err := fn(&c); err != nil {
		return domain.ScannableCode{}, err
	}
	s.codes[code] = c
	return c, nil
}

// ListCodes returns every stored code, tombstones included.
func (s *Store) ListCodes(_ context.Context) ([]domain.ScannableCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]domain.ScannableCode, 0, len(s.codes))
	for _, c := range s.codes {
		codes = append(codes, c)
	}
	return codes, nil
}

// LoadDirectory returns the stored document or nil.
func (s *Store) LoadDirectory(_ context.Context, owner string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.directories[owner]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// SaveDirectory replaces the owner's document.
func (s *Store) SaveDirectory(_ context.Context, owner string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.directories[owner] = append([]byte(nil), data...)
	return nil
}

// ListOwners returns owners with a saved directory, sorted.
func (s *Store) ListOwners(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]string, 0, len(s.directories))
	for o := range s.directories {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	return owners, nil
}

// AppendScan appends an event.
func (s *Store) AppendScan(_ context.Context, event domain.ScanEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scans = append(s.scans, event)
	return nil
}

// ListScans walks the log backwards so the newest events come first.
func (s *Store) ListScans(_ context.Context, code string, limit int) ([]domain.ScanEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ScanEvent
	for i := len(s.scans) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if code != "" && s.scans[i].Code != code {
			continue
		}
		out = append(out, s.scans[i])
	}
	return out, nil
}

// CountScans returns the number of recorded events.
func (s *Store) CountScans(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.scans)), nil
}

// PutPending fills the session's slot, replacing any previous action.
func (s *Store) PutPending(_ context.Context, session string, action domain.PendingAction, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[session] = pendingSlot{action: action, expiresAt: s.now().Add(ttl)}
	return nil
}

// TakePending empties the slot and returns what it held, unless expired.
func (s *Store) TakePending(_ context.Context, session string) (domain.PendingAction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.pending[session]
	if !ok {
		return domain.PendingAction{}, false, nil
	}
	delete(s.pending, session)
	if !s.now().Before(slot.expiresAt) {
		return domain.PendingAction{}, false, nil
	}
	return slot.action, true, nil
}

// SavePlatforms caches the last good catalog.
func (s *Store) SavePlatforms(_ context.Context, platforms []domain.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.platforms = append([]domain.Platform(nil), platforms...)
	return nil
}

// FetchPlatforms returns the cached catalog.
func (s *Store) FetchPlatforms(_ context.Context) ([]domain.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Platform(nil), s.platforms...), nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// PurgeExpiredPending drops slots whose TTL elapsed before now.
func (s *Store) PurgeExpiredPending(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for session, slot := range s.pending {
		if !now.Before(slot.expiresAt) {
			delete(s.pending, session)
			purged++
		}
	}
	return purged, nil
}

// PendingCount returns the number of occupied slots, expired or not.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.pending)
}
