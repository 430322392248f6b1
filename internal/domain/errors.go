package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the core services and the storage collaborators.
// Stores return them (optionally wrapped) and handlers translate them into
// HTTP statuses.
var (
	ErrValidation      = errors.New("validation failed")
	ErrAlreadyBound    = errors.New("code already bound")
	ErrNotBound        = errors.New("code not bound")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidCode     = errors.New("invalid code")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrUnknownSection  = errors.New("unknown section")
	ErrLoadShape       = errors.New("unrecognized directory shape")
	ErrConflict        = errors.New("concurrent modification")
)

// ValidationError carries the normalizer's human readable reason.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	PlatformID string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.PlatformID == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.PlatformID, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation reasons surfaced to the editing UI.
const (
	ReasonInvalidPhone  = "invalid phone"
	ReasonInvalidURL    = "invalid url"
	ReasonValueRequired = "value required"
)

// LoadShapeError describes one leaf dropped during tolerant directory ingestion.
type LoadShapeError struct {
	Section string
	Key     string
	Got     string
}

func (e *LoadShapeError) Error() string {
	return fmt.Sprintf("%s.%s: dropped %s leaf", e.Section, e.Key, e.Got)
}

func (e *LoadShapeError) Unwrap() error { return ErrLoadShape }
