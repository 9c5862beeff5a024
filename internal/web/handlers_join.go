package web

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Krish120003/databind/internal/core"
	"github.com/Krish120003/databind/internal/merge"
	"github.com/Krish120003/databind/internal/sheet"
)

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Join(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, snap, http.StatusOK)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Back(r.Context(), sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, snap, http.StatusOK)
}

// handleRows serves ?page=&page_size=&view= of the join preview.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	view, err := core.ParseView(r.URL.Query().Get("view"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.service.Rows(sessionID(r),
		parseIntParam(r, "page", 1),
		parseIntParam(r, "page_size", s.service.PageSize()),
		view,
	)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.Conflicts(sessionID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func readSource(r *http.Request) (merge.Source, error) {
	raw, err := readField(r, "source")
	if err != nil {
		return "", err
	}
	return merge.ParseSource(raw)
}

// handleResolve records {"source": ...} for the conflict at rowIndex.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	rowIndex, err := strconv.Atoi(chi.URLParam(r, "rowIndex"))
	if err != nil || rowIndex < 0 {
		s.fail(w, r, invalidInput("row index %q", chi.URLParam(r, "rowIndex")))
		return
	}
	source, err := readSource(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	snap, err := s.service.Resolve(r.Context(), sessionID(r), rowIndex, source)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondSnapshot(w, r, snap, http.StatusOK)
}

// handleResolveAll applies {"source": ...} to every unresolved conflict.
func (s *Server) handleResolveAll(w http.ResponseWriter, r *http.Request) {
	source, err := readSource(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	n, snap, err := s.service.ResolveAll(r.Context(), sessionID(r), source)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if isHTMX(r) {
		s.respondSnapshot(w, r, snap, http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resolved": n,
		"session":  snap,
	})
}

// handleExport downloads the resolved join as ?format=xlsx (default) or csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("format")
	format, err := sheet.ParseFormat(q)
	if err != nil {
		s.fail(w, r, invalidInput("unknown export format %q", q))
		return
	}

	file, err := s.service.Export(r.Context(), sessionID(r), format)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
