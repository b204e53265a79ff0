package core

import (
	"errors"
	"fmt"
)

var (
	// ErrIssueNotFound is returned when an operator action references an
	// issue that is not in the current issue list, typically because a
	// delete shifted row indices since the list was displayed.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrNotConfirmable is returned when Confirm targets a hard rule.
	ErrNotConfirmable = errors.New("issue not confirmable")

	// ErrSessionBusy is returned when another mutating operation holds the
	// session for longer than the configured wait.
	ErrSessionBusy = errors.New("session busy: another operation is in progress")

	// ErrNoDataset is returned by operations that need a loaded dataset.
	ErrNoDataset = errors.New("no dataset loaded")
)

// ParseError reports malformed or empty CSV input. The prior dataset is
// left untouched.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid csv: %s", e.Reason)
}

// FileConstraintError reports an upload rejected before parsing.
type FileConstraintError struct {
	FileName string
	Reason   string
}

func (e *FileConstraintError) Error() string {
	if e.FileName == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.FileName, e.Reason)
}

// EditRejectedError reports a replacement value that does not coerce to
// the target column's type. No mutation is performed.
type EditRejectedError struct {
	Column string
	Value  string
	Reason string
}

func (e *EditRejectedError) Error() string {
	return fmt.Sprintf("edit rejected: %s for %q: %q", e.Reason, e.Column, e.Value)
}
