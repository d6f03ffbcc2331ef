package services

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound means the id is unknown or the session expired
	ErrSessionNotFound = errors.New("session not found or has expired")
	// ErrPageUnavailable means the page or its context closed mid-operation
	ErrPageUnavailable = errors.New("page already closed")
	// ErrNavigationTimeout means the form did not load or never settled
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrInvalidRequest marks caller mistakes such as a malformed form URL
	ErrInvalidRequest = errors.New("invalid request")
)

// Unmatched reasons reported in diagnostics
const (
	ReasonNoMapping      = "no-mapping"
	ReasonNoUserData     = "no-user-data"
	ReasonNoInputMatched = "no-input-matched"
	ReasonFillError      = "fill-error"
)

// FillError wraps a widget failure for a single question
type FillError struct {
	Label  string
	Widget string
	Err    error
}

func (e *FillError) Error() string {
	return fmt.Sprintf("failed to fill %s field %q: %v", e.Widget, e.Label, e.Err)
}

func (e *FillError) Unwrap() error {
	return e.Err
}

// SessionError is returned when a session dies; the session has already been
// closed and removed from the registry.
type SessionError struct {
	SessionID     string
	Op            string
	ScreenshotKey string
	Err           error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %s failed: %v", e.SessionID, e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func isPageClosed(err error) bool {
	return err != nil && errors.Is(err, ErrPageUnavailable)
}
