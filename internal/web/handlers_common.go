package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Krish120003/databind/internal/core"
)

// The messages match core's "no file provided" and "file too large"
// patterns.
var (
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large")
)

// maxFieldBody bounds JSON bodies of non-upload requests.
const maxFieldBody = 64 << 10

// parseIntParam parses an integer query parameter with a default value.
// Values below 1 fall back to the default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// readField returns a request value from a JSON object body, or from the
// form when the body is not JSON. HTMX sends forms.
func readField(r *http.Request, name string) (string, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return strings.TrimSpace(r.FormValue(name)), nil
	}

	var body map[string]any
	dec := json.NewDecoder(io.LimitReader(r.Body, maxFieldBody))
	if err := dec.Decode(&body); err != nil {
		return "", invalidInput("malformed JSON body: %v", err)
	}
	switch v := body[name].(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", invalidInput("%s must be a string", name)
	}
}

// respondSnapshot answers a session mutation. HTMX requests get a page
// refresh, API clients the new session state.
func (s *Server) respondSnapshot(w http.ResponseWriter, r *http.Request, snap core.Snapshot, status int) {
	if isHTMX(r) {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, status, snap)
}

// handleUploadQueueStatus reports session and upload slot usage.
func (s *Server) handleUploadQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Status())
}

// handleAuditLog lists recent audit entries, newest first.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.AuditLog(r.Context(), parseIntParam(r, "limit", 100))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}
