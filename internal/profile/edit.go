package profile

import (
	"fmt"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
)

// Op names one directory edit.
type Op string

const (
	OpAdd    Op = "add"
	OpDelete Op = "delete"
	OpUndo   Op = "undo"
	OpMove   Op = "move"
)

// Edit is one step of an editing session as sent by the editor.
type Edit struct {
	Op       Op     `json:"op"`
	Section  string `json:"section,omitempty"`
	Platform string `json:"platform"`
	Value    string `json:"value,omitempty"`
	To       string `json:"to,omitempty"`
	Before   string `json:"before,omitempty"`
}

// EditError locates the edit that aborted a batch.
type EditError struct {
	Index int
	Op    Op
	Err   error
}

func (e *EditError) Error() string {
	return fmt.Sprintf("edit %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *EditError) Unwrap() error { return e.Err }

func (e Edit) apply(d *domain.Directory) error {
	section, err := parseSection(e.Section, e.Op == OpAdd)
	if err != nil {
		return err
	}

	switch e.Op {
	case OpAdd:
		_, err := d.AddOrReplace(section, e.Platform, e.Value)
		return err
	case OpDelete:
		return d.MarkPendingDelete(section, e.Platform)
	case OpUndo:
		return d.Undo(section, e.Platform)
	case OpMove:
		to := section
		if e.To != "" {
			if to, err = parseSection(e.To, false); err != nil {
				return err
			}
		}
		return d.Move(section, e.Platform, to, e.Before)
	default:
		return &domain.ValidationError{Reason: fmt.Sprintf("unknown edit op %q", e.Op)}
	}
}

// parseSection maps a section name to its category. Only adds may leave it
// empty, in which case the platform's own category applies.
func parseSection(name string, optional bool) (domain.Category, error) {
	if name == "" && optional {
		return "", nil
	}
	c, ok := domain.ParseCategory(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownSection, name)
	}
	return c, nil
}
