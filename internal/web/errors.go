package web

// errors.go turns handler errors into responses.
//
// The technical error is logged with the request ID. The client gets the
// user-facing message from core.MapError, as JSON for API calls, as an
// alert fragment for HTMX requests, or as plain text otherwise.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Krish120003/databind/internal/core"
	"github.com/Krish120003/databind/internal/logging"
	"github.com/Krish120003/databind/internal/merge"
	"github.com/Krish120003/databind/internal/sheet"
	"github.com/Krish120003/databind/internal/web/templates"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errInvalidInput marks malformed request parameters.
var errInvalidInput = errors.New("invalid input")

// invalidInput returns a user-facing error wrapping errInvalidInput.
func invalidInput(format string, args ...any) error {
	return &core.UserError{
		Technical: fmt.Errorf("%w: %s", errInvalidInput, fmt.Sprintf(format, args...)),
		User: core.UserMessage{
			Message: "The request has a missing or invalid value",
			Action:  "Check the request and try again",
			Code:    "VAL001",
		},
	}
}

// errorStatuses maps sentinel errors to HTTP status codes, checked in
// order with errors.Is.
var errorStatuses = []struct {
	err    error
	status int
}{
	{errInvalidInput, http.StatusBadRequest},
	{errNoFile, http.StatusBadRequest},
	{errFileTooLarge, http.StatusRequestEntityTooLarge},
	{core.ErrSessionNotFound, http.StatusNotFound},
	{core.ErrConflictNotFound, http.StatusNotFound},
	{core.ErrTooManySessions, http.StatusServiceUnavailable},
	{core.ErrTooManyUploads, http.StatusServiceUnavailable},
	{core.ErrAuditUnavailable, http.StatusNotImplemented},
	{core.ErrUnresolvedConflicts, http.StatusConflict},
	{core.ErrNotJoined, http.StatusConflict},
	{core.ErrFileNotLoaded, http.StatusConflict},
	{merge.ErrInvalidKeyConfiguration, http.StatusUnprocessableEntity},
	{sheet.ErrUnparsableFile, http.StatusUnprocessableEntity},
	{sheet.ErrEmptyFile, http.StatusUnprocessableEntity},
	{core.ErrUnknownColumn, http.StatusBadRequest},
	{core.ErrInvalidSide, http.StatusBadRequest},
	{core.ErrInvalidView, http.StatusBadRequest},
	{merge.ErrInvalidSource, http.StatusBadRequest},
	{sheet.ErrExportFailure, http.StatusInternalServerError},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// statusFor returns the HTTP status for err, 500 when nothing matches.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			return es.status
		}
	}
	return http.StatusInternalServerError
}

// fail responds with the status derived from err.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.respondError(w, r, err, statusFor(err))
}

// respondError logs err and writes the user-facing message in the format
// the client expects.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, statusCode)
	default:
		respondErrorHTML(w, userMsg, statusCode)
	}
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client asked for JSON, sent JSON, or hit
// an /api route.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
