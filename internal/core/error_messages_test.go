package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Krish120003/databind/internal/merge"
	"github.com/Krish120003/databind/internal/sheet"
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
			name:        "wrapped key configuration error",
			err:         fmt.Errorf("join: %w", merge.ErrInvalidKeyConfiguration),
			wantCode:    "JOIN001",
			wantMessage: "The selected key columns do not line up",
		},
		{
			name:        "unparsable file",
			err:         fmt.Errorf("report.xls: %w", sheet.ErrUnparsableFile),
			wantCode:    "FILE002",
			wantMessage: "The file could not be read as a table",
		},
		{
			name:        "empty file",
			err:         fmt.Errorf("a.csv: %w", sheet.ErrEmptyFile),
			wantCode:    "FILE005",
			wantMessage: "The uploaded file has no data rows",
		},
		{
			name:        "export failure",
			err:         fmt.Errorf("%w: disk full", sheet.ErrExportFailure),
			wantCode:    "EXP001",
			wantMessage: "The spreadsheet could not be created",
		},
		{
			name:        "unresolved conflicts",
			err:         fmt.Errorf("%w: 2 of 3", ErrUnresolvedConflicts),
			wantCode:    "JOIN003",
			wantMessage: "Some conflicts are still unresolved",
		},
		{
			name:        "session not found",
			err:         fmt.Errorf("%w: abc", ErrSessionNotFound),
			wantCode:    "SES001",
			wantMessage: "This join session has expired",
		},
		{
			name:        "invalid source shares the side code",
			err:         fmt.Errorf("%w: %q", merge.ErrInvalidSource, "left"),
			wantCode:    "VAL007",
			wantMessage: "Unknown resolution source",
		},
		{
			name:        "upload slots exhausted",
			err:         ErrTooManyUploads,
			wantCode:    "UPL002",
			wantMessage: "System is busy processing other uploads",
		},
		{
			name:        "deadline exceeded",
			err:         fmt.Errorf("parse: %w", context.DeadlineExceeded),
			wantCode:    "UPL005",
			wantMessage: "Request timed out",
		},
		{
			name:        "request body too large pattern",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("RATE LIMIT exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
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
	result := FormatUserError(ErrNotJoined)

	expected := "The files have not been joined yet (Code: JOIN004). Select key columns and run the join"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "sentinel is user facing",
			err:  fmt.Errorf("x: %w", ErrUnknownColumn),
			want: true,
		},
		{
			name: "known pattern is user facing",
			err:  errors.New("connection reset by peer"),
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
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
		techErr := fmt.Errorf("b.csv: %w", sheet.ErrEmptyFile)
		userErr := NewUserError(techErr)

		if userErr.Error() != "The uploaded file has no data rows" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, sheet.ErrEmptyFile) {
			t.Error("Unwrap() should return original error")
		}
	})

	t.Run("explicit user error wins over sentinels", func(t *testing.T) {
		ue := &UserError{
			Technical: ErrNotJoined,
			User:      UserMessage{Message: "custom", Code: "X001"},
		}
		if got := MapError(fmt.Errorf("wrapped: %w", ue)); got.Code != "X001" {
			t.Errorf("MapError() code = %q, want X001", got.Code)
		}
	})
}
