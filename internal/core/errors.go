package core

import "errors"

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySessions is returned when the live session cap is reached.
	ErrTooManySessions = errors.New("too many active sessions")

	// ErrFileNotLoaded is returned when an operation needs a file that the
	// session does not have yet.
	ErrFileNotLoaded = errors.New("file not loaded")

	// ErrUnknownColumn is returned when a selected column is not in the file.
	ErrUnknownColumn = errors.New("column not found")

	// ErrInvalidSide is returned for a side other than primary or secondary.
	ErrInvalidSide = errors.New("invalid side")

	// ErrInvalidView is returned for a preview view other than merged or
	// resolved.
	ErrInvalidView = errors.New("invalid view")

	// ErrNotJoined is returned when an operation needs a join result.
	ErrNotJoined = errors.New("no join result")

	// ErrConflictNotFound is returned when resolving a row without a
	// conflict.
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrUnresolvedConflicts is returned by Export while conflicts remain.
	ErrUnresolvedConflicts = errors.New("unresolved conflicts")

	// ErrAuditUnavailable is returned when the audit store cannot be read.
	ErrAuditUnavailable = errors.New("audit log unavailable")
)
