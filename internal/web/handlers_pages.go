package web

import (
	"errors"
	"net/http"

	"github.com/Krish120003/databind/internal/core"
	"github.com/Krish120003/databind/internal/web/templates"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = templates.HomePage(s.service.Status()).Render(r.Context(), w)
}

// handleSessionPage renders the workflow for one session. Expired sessions
// go back to the home page.
func (s *Server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	snap, err := s.service.Session(id)
	if errors.Is(err, core.ErrSessionNotFound) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data := templates.SessionPageData{Session: snap}
	if snap.Join != nil {
		view, err := core.ParseView(r.URL.Query().Get("view"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		rows, err := s.service.Rows(id, parseIntParam(r, "page", 1), s.service.PageSize(), view)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		data.Rows = &rows
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = templates.SessionPage(data).Render(r.Context(), w)
}
