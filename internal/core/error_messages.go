package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users quote the code; support looks it up here.
//
// Known sentinel errors are matched first with errors.Is. Anything else is
// matched against a table of case-insensitive message patterns, first match
// wins, so more specific patterns come before general ones.
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found: the session expired or never existed
//	SES002 - File not loaded: an operation needs a file that is missing
//	SES003 - Too many sessions: the server is at its session cap
//
// # Join Errors (JOIN001-JOIN099)
//
//	JOIN001 - Invalid key configuration: empty or unequal key selections
//	JOIN002 - Conflict not found: the row has no conflict to resolve
//	JOIN003 - Unresolved conflicts: export refused until all are decided
//	JOIN004 - Not joined: preview or export requested before a join
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL005 - Column not found: selected column is not in the file
//	VAL007 - Invalid choice: unknown side, source, view or format
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large      Patterns: "file too large", "request body too large"
//	FILE002 - Unreadable file     sheet.ErrUnparsableFile
//	FILE004 - No file             Patterns: "no file provided"
//	FILE005 - Empty file          sheet.ErrEmptyFile
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export failed: sheet.ErrExportFailure
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy          ErrTooManyUploads
//	UPL004 - Request cancelled    context.Canceled
//	UPL005 - Request timeout      context.DeadlineExceeded
//
// # Database Errors (DB001-DB099)
//
// Only the audit log touches the database.
//
//	DB004 - Connection refused    Patterns: "connection refused"
//	DB005 - Connection reset      Patterns: "connection reset"
//	DB008 - Audit unavailable     ErrAuditUnavailable
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests   Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application log for the
// technical error, correlated by request_id.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Krish120003/databind/internal/merge"
	"github.com/Krish120003/databind/internal/sheet"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorSentinel maps an error value, matched with errors.Is, to a message.
type errorSentinel struct {
	err error
	msg UserMessage
}

var errorSentinels = []errorSentinel{
	// Session
	{ErrSessionNotFound, UserMessage{
		Message: "This join session has expired",
		Action:  "Start over by uploading your files again",
		Code:    "SES001",
	}},
	{ErrFileNotLoaded, UserMessage{
		Message: "Both files need to be uploaded first",
		Action:  "Upload a primary and a secondary file",
		Code:    "SES002",
	}},
	{ErrTooManySessions, UserMessage{
		Message: "The server is handling too many joins right now",
		Action:  "Please try again in a few minutes",
		Code:    "SES003",
	}},

	// Join
	{merge.ErrInvalidKeyConfiguration, UserMessage{
		Message: "The selected key columns do not line up",
		Action:  "Select the same number of columns (at least one) in each file",
		Code:    "JOIN001",
	}},
	{ErrConflictNotFound, UserMessage{
		Message: "That row has no conflict to resolve",
		Action:  "Refresh the preview and try again",
		Code:    "JOIN002",
	}},
	{ErrUnresolvedConflicts, UserMessage{
		Message: "Some conflicts are still unresolved",
		Action:  "Choose a source for every conflicting row before downloading",
		Code:    "JOIN003",
	}},
	{ErrNotJoined, UserMessage{
		Message: "The files have not been joined yet",
		Action:  "Select key columns and run the join",
		Code:    "JOIN004",
	}},

	// Validation
	{ErrUnknownColumn, UserMessage{
		Message: "That column is not in the file",
		Action:  "Pick one of the file's column headers",
		Code:    "VAL005",
	}},
	{ErrInvalidSide, UserMessage{
		Message: "Unknown file side",
		Action:  "Use primary or secondary",
		Code:    "VAL007",
	}},
	{merge.ErrInvalidSource, UserMessage{
		Message: "Unknown resolution source",
		Action:  "Use primary or secondary",
		Code:    "VAL007",
	}},
	{ErrInvalidView, UserMessage{
		Message: "Unknown preview view",
		Action:  "Use merged or resolved",
		Code:    "VAL007",
	}},

	// Files
	{sheet.ErrUnparsableFile, UserMessage{
		Message: "The file could not be read as a table",
		Action:  "Upload a CSV, TSV or .xlsx file",
		Code:    "FILE002",
	}},
	{sheet.ErrEmptyFile, UserMessage{
		Message: "The uploaded file has no data rows",
		Action:  "Upload a file with a header row and at least one data row",
		Code:    "FILE005",
	}},
	{sheet.ErrExportFailure, UserMessage{
		Message: "The spreadsheet could not be created",
		Action:  "Please try the download again",
		Code:    "EXP001",
	}},

	// Uploads and requests
	{ErrTooManyUploads, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}},

	// Audit
	{ErrAuditUnavailable, UserMessage{
		Message: "The audit log is not available",
		Action:  "Configure DATABASE_URL to keep a persistent audit log",
		Code:    "DB008",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user
// messages for errors that have no sentinel.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused columns or rows and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused columns or rows and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Sentinels are checked first, then message patterns. If nothing matches,
// a generic fallback message with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	for _, es := range errorSentinels {
		if errors.Is(err, es.err) {
			return es.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
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

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with the message
// shown to users.
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

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
