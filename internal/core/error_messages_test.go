package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "parse error maps to invalid csv",
			err:         &ParseError{Reason: "no data rows"},
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "oversized upload",
			err:         &FileConstraintError{FileName: "big.csv", Reason: "file too large: 6000000 bytes exceeds limit of 5242880"},
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "wrong extension",
			err:         &FileConstraintError{FileName: "data.xlsx", Reason: `invalid file type ".xlsx": allowed .csv`},
			wantCode:    "FILE006",
			wantMessage: "Only CSV files are accepted",
		},
		{
			name:        "empty upload",
			err:         &FileConstraintError{FileName: "data.csv", Reason: "empty file"},
			wantCode:    "FILE005",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "edit rejected",
			err:         &EditRejectedError{Column: "cost", Value: "abc", Reason: "invalid number"},
			wantCode:    "VAL002",
			wantMessage: "The replacement value is not a number",
		},
		{
			name:        "wrapped stale reference",
			err:         fmt.Errorf("%w: row 3 column %q", ErrIssueNotFound, "cost"),
			wantCode:    "RES001",
			wantMessage: "The issue is no longer in the current list",
		},
		{
			name:        "hard rule confirm",
			err:         ErrNotConfirmable,
			wantCode:    "RES002",
			wantMessage: "This issue must be fixed, not confirmed",
		},
		{
			name:        "session busy",
			err:         ErrSessionBusy,
			wantCode:    "RES003",
			wantMessage: "Another change is still being applied",
		},
		{
			name:        "no dataset",
			err:         ErrNoDataset,
			wantCode:    "RES004",
			wantMessage: "No data has been uploaded yet",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to storage",
		},
		{
			name:        "context cancelled",
			err:         fmt.Errorf("load dataset: %w", context.Canceled),
			wantCode:    "UPL004",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("INVALID CSV: missing header line"),
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrSessionBusy)

	expected := "Another change is still being applied (Code: RES003). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ErrNotConfirmable, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &ParseError{Reason: "empty header line"}
		userErr := NewUserError(techErr)

		if userErr.Error() != "File is not a valid CSV" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		var pe *ParseError
		if !errors.As(userErr, &pe) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}

func TestCatalogConsistent(t *testing.T) {
	for code, msg := range catalog {
		if msg.Code != code {
			t.Errorf("catalog[%q].Code = %q", code, msg.Code)
		}
		if msg.Message == "" || msg.Action == "" {
			t.Errorf("catalog[%q] has empty text", code)
		}
	}
	for _, p := range textPatterns {
		if _, ok := catalog[p.code]; !ok {
			t.Errorf("pattern %q maps to unknown code %q", p.pattern, p.code)
		}
	}
	for _, s := range sentinelCodes {
		if _, ok := catalog[s.code]; !ok {
			t.Errorf("sentinel %v maps to unknown code %q", s.err, s.code)
		}
	}
}

func TestMapError_TypeBeatsText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"parse error mentioning timeout", &ParseError{Reason: "timeout column missing"}, "FILE002"},
		{"wrapped busy", fmt.Errorf("edit: %w", ErrSessionBusy), "RES003"},
		{"deadline wrapped by storage", fmt.Errorf("save dataset: %w", context.DeadlineExceeded), "UPL005"},
		{"driver timeout text", errors.New("read tcp 10.0.0.1:5432: i/o timeout"), "DB006"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err).Code; got != tt.want {
				t.Errorf("MapError() code = %q, want %q", got, tt.want)
			}
		})
	}
}
