package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Students are created by ingestion; the API exposes only the read side.

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	students, err := s.store.Students.GetAll(r.Context(), institutionID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, students)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	id := chi.URLParam(r, "id")

	student, err := s.store.Students.Get(r.Context(), institutionID, id)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, student)
}
