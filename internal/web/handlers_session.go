package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Krish120003/databind/internal/core"
)

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.CreateSession(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/sessions/"+snap.ID)
		w.WriteHeader(http.StatusCreated)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+snap.ID)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Session(sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSession(r.Context(), sessionID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Reset(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, snap, http.StatusOK)
}

// handleUploadFile loads the multipart "file" field as one side of the
// session. The body is capped at the configured upload size.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	side, err := core.ParseSide(chi.URLParam(r, "side"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	// Parts beyond 32MB spill to temporary files.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			s.fail(w, r, fmt.Errorf("%w: limit is %d bytes", errFileTooLarge, maxSize))
			return
		}
		s.fail(w, r, invalidInput("invalid upload form: %v", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, errNoFile)
		return
	}
	defer file.Close()

	snap, err := s.service.LoadFile(r.Context(), sessionID(r), side, header.Filename, file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, snap, http.StatusOK)
}

func (s *Server) handleClearFile(w http.ResponseWriter, r *http.Request) {
	side, err := core.ParseSide(chi.URLParam(r, "side"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap, err := s.service.ClearFile(r.Context(), sessionID(r), side)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, snap, http.StatusOK)
}

// handleToggleColumn adds or removes {"column": name} from the side's key.
func (s *Server) handleToggleColumn(w http.ResponseWriter, r *http.Request) {
	side, err := core.ParseSide(chi.URLParam(r, "side"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	column, err := readField(r, "column")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if column == "" {
		s.fail(w, r, invalidInput("column is required"))
		return
	}

	snap, err := s.service.ToggleColumn(sessionID(r), side, column)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, snap, http.StatusOK)
}

func (s *Server) handleResetSelections(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.ResetSelections(sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, snap, http.StatusOK)
}
