package domain

import (
	"fmt"
	"strings"
)

// ActionKind discriminates deferred intents.
type ActionKind string

const (
	ActionLink   ActionKind = "link"
	ActionResume ActionKind = "resume"
)

// PendingAction is an intent carried across an interrupted authentication.
// Exactly one of Code (link) or Path (resume) is set.
type PendingAction struct {
	Kind ActionKind `json:"kind"`
	Code string     `json:"code,omitempty"`
	Path string     `json:"path,omitempty"`
}

// LinkAction builds a "link this code" intent.
func LinkAction(code string) PendingAction {
	return PendingAction{Kind: ActionLink, Code: code}
}

// ResumeAction builds a "return to this page" intent.
func ResumeAction(path string) PendingAction {
	return PendingAction{Kind: ActionResume, Path: path}
}

// Validate rejects malformed intents. Resume paths must be site-relative so
// they cannot be abused as open redirects.
func (a PendingAction) Validate() error {
	switch a.Kind {
	case ActionLink:
		return ValidateCode(a.Code)
	case ActionResume:
		if !strings.HasPrefix(a.Path, "/") || strings.HasPrefix(a.Path, "//") || strings.Contains(a.Path, `\`) {
			return &ValidationError{Reason: "resume path must be site-relative"}
		}
		return nil
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown action kind %q", a.Kind)}
	}
}
