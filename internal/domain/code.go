package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	MinCodeLength = 6
	MaxCodeLength = 12

	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// ScannableCode is the opaque identifier printed on a tag. It is unbound while
// OwnerID is empty.
type ScannableCode struct {
	Code      string    `json:"code"`
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	BoundAt   time.Time `json:"bound_at,omitempty"`

	// Deleted tombstones the code: it never resolves again and cannot be
	// recreated.
	Deleted bool `json:"deleted,omitempty"`
}

// Bound reports whether the code currently has an owner.
func (c *ScannableCode) Bound() bool {
	return c.OwnerID != ""
}

// Bind transitions Unbound -> Bound. Binding is not idempotent: a code bound
// to anyone, the same owner included, is rejected.
func (c *ScannableCode) Bind(ownerID string, now time.Time) error {
	if c.Deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, c.Code)
	}
	if ownerID == "" {
		return &ValidationError{Reason: "owner required"}
	}
	if c.Bound() {
		return fmt.Errorf("%w: %s", ErrAlreadyBound, c.Code)
	}
	c.OwnerID = ownerID
	c.BoundAt = now
	return nil
}

// Unlink transitions Bound -> Unbound. The code itself persists.
func (c *ScannableCode) Unlink() error {
	if c.Deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, c.Code)
	}
	if !c.Bound() {
		return fmt.Errorf("%w: %s", ErrNotBound, c.Code)
	}
	c.OwnerID = ""
	c.BoundAt = time.Time{}
	return nil
}

// Resolution is the outcome of resolving a code.
type Resolution struct {
	Code    string `json:"code"`
	Bound   bool   `json:"bound"`
	OwnerID string `json:"owner_id,omitempty"`
}

// Resolve reports the code's binding. Deleted codes are not found.
func (c *ScannableCode) Resolve() (Resolution, error) {
	if c.Deleted {
		return Resolution{}, fmt.Errorf("%w: %s", ErrNotFound, c.Code)
	}
	return Resolution{Code: c.Code, Bound: c.Bound(), OwnerID: c.OwnerID}, nil
}

// ValidateCode checks the 6-12 ASCII alphanumeric format. Codes are case
// sensitive.
func ValidateCode(code string) error {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return fmt.Errorf("%w: length must be %d-%d", ErrInvalidCode, MinCodeLength, MaxCodeLength)
	}
	for i := 0; i < len(code); i++ {
		ch := code[i]
		isAlnum := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
		if !isAlnum {
			return fmt.Errorf("%w: %q is not alphanumeric", ErrInvalidCode, ch)
		}
	}
	return nil
}

// GenerateCode returns a random code of the given length. Visually ambiguous
// characters (0/O, 1/l/I) are excluded from the alphabet.
func GenerateCode(length int) (string, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return "", fmt.Errorf("%w: length must be %d-%d", ErrInvalidCode, MinCodeLength, MaxCodeLength)
	}
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}
