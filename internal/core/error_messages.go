package core

// error_messages.go maps technical errors to operator-facing messages with a
// support code.
//
//	FILE001 file too large          FILE002 not a valid CSV
//	FILE004 no file selected        FILE005 empty file
//	FILE006 wrong file type         VAL002  replacement is not a number
//	RES001  issue no longer listed  RES002  issue cannot be confirmed
//	RES003  session busy            RES004  no dataset loaded
//	DB004   storage unreachable     DB005   storage connection reset
//	DB006   storage timeout         DB007   storage deadlock
//	UPL004  request cancelled       UPL005  request timed out
//	RATE001 too many requests       ERR000  anything else
//
// Errors from this package are matched by type first. Errors that only exist
// as text (driver and transport failures) fall through to a case-insensitive
// substring table where the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// catalog holds every message by code.
var catalog = map[string]UserMessage{
	"FILE001": {"File exceeds maximum size limit", "Split the file or remove unused rows", "FILE001"},
	"FILE002": {"File is not a valid CSV", "Ensure the file has a header line and at least one data row", "FILE002"},
	"FILE004": {"No file was selected", "Please select a CSV file to upload", "FILE004"},
	"FILE005": {"The uploaded file is empty", "Please upload a CSV file with data rows", "FILE005"},
	"FILE006": {"Only CSV files are accepted", "Export the data as .csv and try again", "FILE006"},
	"VAL002":  {"The replacement value is not a number", "Enter a plain number without currency symbols", "VAL002"},
	"RES001":  {"The issue is no longer in the current list", "Refresh the issue list and try again", "RES001"},
	"RES002":  {"This issue must be fixed, not confirmed", "Edit the value or delete the row", "RES002"},
	"RES003":  {"Another change is still being applied", "Please wait a moment and try again", "RES003"},
	"RES004":  {"No data has been uploaded yet", "Upload a CSV file first", "RES004"},
	"DB004":   {"Unable to connect to storage", "Please try again in a few moments", "DB004"},
	"DB005":   {"Storage connection was interrupted", "Please try again", "DB005"},
	"DB006":   {"Operation timed out", "Please try again later", "DB006"},
	"DB007":   {"Storage was busy with conflicting operations", "Please try again", "DB007"},
	"UPL004":  {"Request was cancelled", "Please try again", "UPL004"},
	"UPL005":  {"Request timed out", "Try a smaller file or check your connection", "UPL005"},
	"RATE001": {"Too many requests", "Please wait a moment before trying again", "RATE001"},
}

// defaultMessage is returned when nothing matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// sentinelCodes are matched with errors.Is, in order.
var sentinelCodes = []struct {
	err  error
	code string
}{
	{ErrIssueNotFound, "RES001"},
	{ErrNotConfirmable, "RES002"},
	{ErrSessionBusy, "RES003"},
	{ErrNoDataset, "RES004"},
	{context.Canceled, "UPL004"},
	{context.DeadlineExceeded, "UPL005"},
}

// textPatterns catch errors that carry no type, lower-case.
var textPatterns = []struct {
	pattern string
	code    string
}{
	{"file too large", "FILE001"},
	{"invalid csv", "FILE002"},
	{"no file provided", "FILE004"},
	{"empty file", "FILE005"},
	{"invalid file type", "FILE006"},
	{"invalid number", "VAL002"},
	{"connection refused", "DB004"},
	{"connection reset", "DB005"},
	{"context deadline exceeded", "UPL005"},
	{"timeout", "DB006"},
	{"deadlock", "DB007"},
	{"context canceled", "UPL004"},
	{"rate limit", "RATE001"},
}

// MapError converts a technical error to a user-friendly message.
// If nothing matches, the ERR000 fallback is returned.
//
// Example:
//
//	msg := MapError(&ParseError{Reason: "no data rows"})
//	// msg.Code == "FILE002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	if code := typedCode(err); code != "" {
		return catalog[code]
	}

	text := strings.ToLower(err.Error())
	for _, p := range textPatterns {
		if strings.Contains(text, p.pattern) {
			return catalog[p.code]
		}
	}
	return defaultMessage
}

// typedCode returns the code for errors this package defines, or "".
func typedCode(err error) string {
	var (
		fc *FileConstraintError
		pe *ParseError
		er *EditRejectedError
	)
	switch {
	case errors.As(err, &fc):
		switch {
		case strings.HasPrefix(fc.Reason, "file too large"):
			return "FILE001"
		case strings.HasPrefix(fc.Reason, "empty file"):
			return "FILE005"
		default:
			return "FILE006"
		}
	case errors.As(err, &pe):
		return "FILE002"
	case errors.As(err, &er):
		return "VAL002"
	}
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return ""
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
