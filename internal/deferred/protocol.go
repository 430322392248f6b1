package deferred

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
)

// DefaultTTL bounds how long an unconsumed intent survives.
const DefaultTTL = 30 * time.Minute

// HomePath is the generic landing when an owner has no bound code.
const HomePath = "/"

// SlotStore holds at most one pending action per session. Take must read and
// clear the slot atomically.
type SlotStore interface {
	PutPending(ctx context.Context, session string, action domain.PendingAction, ttl time.Duration) error
	TakePending(ctx context.Context, session string) (domain.PendingAction, bool, error)
}

// Binder is the slice of the binding service the protocol drives.
type Binder interface {
	Bind(ctx context.Context, code, owner string) (domain.ScannableCode, error)
	ListByOwner(ctx context.Context, owner string) ([]domain.ScannableCode, error)
}

// OutcomeKind says which branch of the completion priority was taken.
type OutcomeKind string

const (
	OutcomeResume  OutcomeKind = "resume"
	OutcomeLinked  OutcomeKind = "linked"
	OutcomeLanding OutcomeKind = "landing"
)

// Outcome tells the authentication collaborator where to send the user.
type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	Location string      `json:"location"`
	Code     string      `json:"code,omitempty"`
}

// ConflictError is returned by Complete when the stashed code was bound by
// someone else before the intent could be honoured. It matches
// domain.ErrAlreadyBound.
type ConflictError struct {
	Code string
	Err  error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("code %s was bound before it could be linked: %v", e.Code, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Protocol carries an intent across an interrupted authentication step.
type Protocol struct {
	slots  SlotStore
	codes  Binder
	logger logger.Logger
	ttl    time.Duration
}

// New creates a protocol. A non-positive ttl falls back to DefaultTTL.
func New(slots SlotStore, codes Binder, log logger.Logger, ttl time.Duration) *Protocol {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Protocol{slots: slots, codes: codes, logger: log, ttl: ttl}
}

// NewSession returns a fresh opaque session id for the slot.
func NewSession() string {
	return uuid.NewString()
}

// ValidSession reports whether s looks like an id produced by NewSession.
func ValidSession(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Stash stores action for session, replacing whatever was there.
func (p *Protocol) Stash(ctx context.Context, session string, action domain.PendingAction) error {
	if !ValidSession(session) {
		return &domain.ValidationError{Reason: "invalid session"}
	}
	if err := action.Validate(); err != nil {
		return err
	}
	if err := p.slots.PutPending(ctx, session, action, p.ttl); err != nil {
		return fmt.Errorf("failed to stash pending action: %w", err)
	}

	p.logger.Debug("pending action stashed",
		logger.String("session", session),
		logger.String("kind", string(action.Kind)))
	return nil
}

// Consume returns the stashed action and clears it. A second call before the
// next Stash reports ok=false.
func (p *Protocol) Consume(ctx context.Context, session string) (domain.PendingAction, bool, error) {
	if !ValidSession(session) {
		return domain.PendingAction{}, false, nil
	}
	action, ok, err := p.slots.TakePending(ctx, session)
	if err != nil {
		return domain.PendingAction{}, false, fmt.Errorf("failed to consume pending action: %w", err)
	}
	return action, ok, nil
}

// Complete consumes the session's intent on behalf of a freshly
// authenticated owner and resolves it: resume path first, then link code,
// then the default landing.
func (p *Protocol) Complete(ctx context.Context, session, owner string) (Outcome, error) {
	if owner == "" {
		return Outcome{}, &domain.ValidationError{Reason: "owner required"}
	}

	action, ok, err := p.Consume(ctx, session)
	if err != nil {
		return Outcome{}, err
	}

	if ok {
		switch action.Kind {
		case domain.ActionResume:
			return Outcome{Kind: OutcomeResume, Location: action.Path}, nil
		case domain.ActionLink:
			return p.link(ctx, action.Code, owner)
		}
	}

	return p.landing(ctx, owner)
}

func (p *Protocol) link(ctx context.Context, code, owner string) (Outcome, error) {
	if _, err := p.codes.Bind(ctx, code, owner); err != nil {
		if errors.Is(err, domain.ErrAlreadyBound) {
			p.logger.Info("deferred link lost the race",
				logger.String("code", code),
				logger.String("owner", owner))
			return Outcome{}, &ConflictError{Code: code, Err: err}
		}
		return Outcome{}, err
	}
	return Outcome{Kind: OutcomeLinked, Location: CodePath(code), Code: code}, nil
}

func (p *Protocol) landing(ctx context.Context, owner string) (Outcome, error) {
	owned, err := p.codes.ListByOwner(ctx, owner)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to find landing code: %w", err)
	}
	if len(owned) == 0 {
		return Outcome{Kind: OutcomeLanding, Location: HomePath}, nil
	}
	return Outcome{Kind: OutcomeLanding, Location: CodePath(owned[0].Code), Code: owned[0].Code}, nil
}

// CodePath is the public page of a code.
func CodePath(code string) string {
	return "/c/" + code
}
