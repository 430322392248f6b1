package binding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
)

// Store is the storage collaborator for scannable codes. UpdateCode must run
// fn under per-code mutual exclusion (or optimistic retry) so that two
// concurrent transitions of the same code cannot both commit.
type Store interface {
	InsertCode(ctx context.Context, code domain.ScannableCode) error
	GetCode(ctx context.Context, code string) (domain.ScannableCode, error)
	UpdateCode(ctx context.Context, code string, fn func(*domain.ScannableCode) error) (domain.ScannableCode, error)
	ListCodes(ctx context.Context) ([]domain.ScannableCode, error)
}

const maxGenerateAttempts = 3

// Service drives the Unbound/Bound lifecycle of scannable codes.
type Service struct {
	store      Store
	logger     logger.Logger
	codeLength int
	now        func() time.Time
}

// NewService creates a binding service. codeLength is used for generated
// codes and is clamped to the valid range.
func NewService(store Store, log logger.Logger, codeLength int) *Service {
	if codeLength < domain.MinCodeLength {
		codeLength = domain.MinCodeLength
	}
	if codeLength > domain.MaxCodeLength {
		codeLength = domain.MaxCodeLength
	}
	return &Service{
		store:      store,
		logger:     log,
		codeLength: codeLength,
		now:        time.Now,
	}
}

// Create registers a new unbound code. An empty code asks for a random one.
func (s *Service) Create(ctx context.Context, code string) (domain.ScannableCode, error) {
	return s.create(ctx, code, "")
}

// CreateForOwner registers a code already bound to owner in a single write.
func (s *Service) CreateForOwner(ctx context.Context, code, owner string) (domain.ScannableCode, error) {
	if owner == "" {
		return domain.ScannableCode{}, &domain.ValidationError{Reason: "owner required"}
	}
	return s.create(ctx, code, owner)
}

func (s *Service) create(ctx context.Context, code, owner string) (domain.ScannableCode, error) {
	if code != "" {
		return s.insert(ctx, code, owner, false)
	}
	// a random code may collide with an existing one
	var err error
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		var sc domain.ScannableCode
		sc, err = s.insert(ctx, "", owner, true)
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return sc, err
		}
	}
	return domain.ScannableCode{}, err
}

func (s *Service) insert(ctx context.Context, code, owner string, generated bool) (domain.ScannableCode, error) {
	if generated {
		var err error
		if code, err = domain.GenerateCode(s.codeLength); err != nil {
			return domain.ScannableCode{}, err
		}
	} else if err := domain.ValidateCode(code); err != nil {
		return domain.ScannableCode{}, err
	}

	now := s.now()
	sc := domain.ScannableCode{Code: code, CreatedAt: now}
	if owner != "" {
		sc.OwnerID = owner
		sc.BoundAt = now
	}

	if err := s.store.InsertCode(ctx, sc); err != nil {
		return domain.ScannableCode{}, fmt.Errorf("failed to create code %s: %w", code, err)
	}

	s.logger.Info("code created",
		logger.String("code", code),
		logger.Bool("generated", generated),
		logger.Bool("bound", owner != ""))

	return sc, nil
}

// Bind attaches an unbound code to owner. A bound code is rejected with
// ErrAlreadyBound whoever owns it.
func (s *Service) Bind(ctx context.Context, code, owner string) (domain.ScannableCode, error) {
	if err := domain.ValidateCode(code); err != nil {
		return domain.ScannableCode{}, err
	}
	now := s.now()
	sc, err := s.store.UpdateCode(ctx, code, func(c *domain.ScannableCode) error {
		return c.Bind(owner, now)
	})
	if err != nil {
		s.logFailure("bind", code, err)
		return domain.ScannableCode{}, err
	}

	s.logger.Info("code bound",
		logger.String("code", code),
		logger.String("owner", owner))

	return sc, nil
}

// Unlink returns a bound code to the unbound state.
func (s *Service) Unlink(ctx context.Context, code string) (domain.ScannableCode, error) {
	if err := domain.ValidateCode(code); err != nil {
		return domain.ScannableCode{}, err
	}
	sc, err := s.store.UpdateCode(ctx, code, func(c *domain.ScannableCode) error {
		return c.Unlink()
	})
	if err != nil {
		s.logFailure("unlink", code, err)
		return domain.ScannableCode{}, err
	}

	s.logger.Info("code unlinked", logger.String("code", code))
	return sc, nil
}

// Resolve reports whether code is bound and to whom.
func (s *Service) Resolve(ctx context.Context, code string) (domain.Resolution, error) {
	if err := domain.ValidateCode(code); err != nil {
		return domain.Resolution{}, err
	}
	sc, err := s.store.GetCode(ctx, code)
	if err != nil {
		return domain.Resolution{}, err
	}
	return sc.Resolve()
}

// Delete tombstones a code. Deleting an already deleted code is not found.
func (s *Service) Delete(ctx context.Context, code string) error {
	if err := domain.ValidateCode(code); err != nil {
		return err
	}
	_, err := s.store.UpdateCode(ctx, code, func(c *domain.ScannableCode) error {
		if c.Deleted {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, c.Code)
		}
		c.Deleted = true
		c.OwnerID = ""
		c.BoundAt = time.Time{}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("code deleted", logger.String("code", code))
	return nil
}

// List returns every live code, newest first.
func (s *Service) List(ctx context.Context) ([]domain.ScannableCode, error) {
	codes, err := s.store.ListCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list codes: %w", err)
	}
	live := codes[:0]
	for _, c := range codes {
		if !c.Deleted {
			live = append(live, c)
		}
	}
	sortNewestFirst(live)
	return live, nil
}

// ListByOwner returns the codes bound to owner, newest binding first.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]domain.ScannableCode, error) {
	if owner == "" {
		return nil, nil
	}
	codes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var owned []domain.ScannableCode
	for _, c := range codes {
		if c.OwnerID == owner {
			owned = append(owned, c)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].BoundAt.After(owned[j].BoundAt)
	})
	return owned, nil
}

// IsRejection reports whether err is a lifecycle rejection rather than a
// storage failure.
func IsRejection(err error) bool {
	return errors.Is(err, domain.ErrAlreadyBound) ||
		errors.Is(err, domain.ErrNotBound) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrAlreadyExists) ||
		errors.Is(err, domain.ErrInvalidCode) ||
		errors.Is(err, domain.ErrValidation)
}

func (s *Service) logFailure(op, code string, err error) {
	if IsRejection(err) {
		s.logger.Debug("code transition rejected",
			logger.String("op", op),
			logger.String("code", code),
			logger.Error(err))
		return
	}
	s.logger.Error("code transition failed",
		logger.String("op", op),
		logger.String("code", code),
		logger.Error(err))
}

func sortNewestFirst(codes []domain.ScannableCode) {
	sort.SliceStable(codes, func(i, j int) bool {
		if codes[i].CreatedAt.Equal(codes[j].CreatedAt) {
			return codes[i].Code < codes[j].Code
		}
		return codes[i].CreatedAt.After(codes[j].CreatedAt)
	})
}
