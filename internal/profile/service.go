package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
)

// Store persists directories as whole documents. LoadDirectory returns nil
// data when the owner has never saved one.
type Store interface {
	LoadDirectory(ctx context.Context, owner string) ([]byte, error)
	SaveDirectory(ctx context.Context, owner string, data []byte) error
}

// Service loads, edits and commits owners' directories. Saves replace the
// stored document; the last commit wins.
type Service struct {
	store     Store
	platforms domain.PlatformFinder
	logger    logger.Logger
}

// NewService creates a profile service.
func NewService(store Store, platforms domain.PlatformFinder, log logger.Logger) *Service {
	return &Service{store: store, platforms: platforms, logger: log}
}

// Open loads owner's directory for editing. Leaves that cannot be read are
// dropped and logged.
func (s *Service) Open(ctx context.Context, owner string) (*domain.Directory, error) {
	if owner == "" {
		return nil, &domain.ValidationError{Reason: "owner required"}
	}
	raw, err := s.store.LoadDirectory(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load directory for %s: %w", owner, err)
	}

	dir, dropped := domain.LoadDirectory(raw, s.platforms)
	for _, d := range dropped {
		s.logger.Debug("dropped directory leaf",
			logger.String("owner", owner),
			logger.Error(d))
	}
	return dir, nil
}

// Snapshot returns the committed, render-ready form of owner's directory.
func (s *Service) Snapshot(ctx context.Context, owner string) (domain.Snapshot, error) {
	dir, err := s.Open(ctx, owner)
	if err != nil {
		return nil, err
	}
	return dir.Commit(), nil
}

// Save commits dir and replaces owner's stored directory with it.
func (s *Service) Save(ctx context.Context, owner string, dir *domain.Directory) (domain.Snapshot, error) {
	if owner == "" {
		return nil, &domain.ValidationError{Reason: "owner required"}
	}
	snap := dir.Commit()
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal directory: %w", err)
	}
	if err := s.store.SaveDirectory(ctx, owner, data); err != nil {
		return nil, fmt.Errorf("failed to save directory for %s: %w", owner, err)
	}

	s.logger.Info("directory saved",
		logger.String("owner", owner),
		logger.Int("links", snap.Len()))
	return snap, nil
}

// Apply opens owner's directory, runs the edits in order and saves. A failing
// edit aborts the batch and nothing is stored.
func (s *Service) Apply(ctx context.Context, owner string, edits []Edit) (domain.Snapshot, error) {
	dir, err := s.Open(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i, e := range edits {
		if err := e.apply(dir); err != nil {
			return nil, &EditError{Index: i, Op: e.Op, Err: err}
		}
	}
	return s.Save(ctx, owner, dir)
}
