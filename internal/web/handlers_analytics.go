package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/denemetakip/backend/internal/model"
	"github.com/denemetakip/backend/internal/store"
)

// handleAnalytics returns aggregate averages for an institution. The viewer
// is identified by the teacherId query parameter; plain teachers with no
// explicit subjects filter are narrowed to their assigned subjects.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	subjects := splitSubjects(r.URL.Query().Get("subjects"))

	var viewer *model.Teacher
	if teacherID := r.URL.Query().Get("teacherId"); teacherID != "" {
		teacher, err := s.store.Teachers.Get(r.Context(), institutionID, teacherID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, r, http.StatusNotFound, "teacher not found")
				return
			}
			respondStoreError(w, r, err)
			return
		}
		viewer = teacher
	}

	report, err := s.analytics.Report(r.Context(), institutionID, viewer, subjects)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, report)
}
