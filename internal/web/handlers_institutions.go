package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/denemetakip/backend/internal/model"
)

type createInstitutionRequest struct {
	Name    string `json:"name"`
	AdminID string `json:"adminId"`
}

// handleCreateInstitution registers a new tenant.
func (s *Server) handleCreateInstitution(w http.ResponseWriter, r *http.Request) {
	var req createInstitutionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	institution, err := s.store.Institutions.Create(r.Context(), req.Name, req.AdminID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, institution)
}

func (s *Server) handleGetInstitution(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	institution, err := s.store.Institutions.Get(r.Context(), institutionID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, institution)
}

type teacherRequest struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Role             string   `json:"role"`
	AssignedSubjects []string `json:"assignedSubjects"`
}

func (t *teacherRequest) validate() string {
	if strings.TrimSpace(t.Name) == "" {
		return "name is required"
	}
	switch model.TeacherRole(t.Role) {
	case model.RoleAdmin, model.RoleGuidance, model.RoleTeacher:
		return ""
	default:
		return "role must be admin, guidance, or teacher"
	}
}

func (t *teacherRequest) toModel() model.Teacher {
	return model.Teacher{
		Name:             t.Name,
		Email:            t.Email,
		Role:             model.TeacherRole(t.Role),
		AssignedSubjects: t.AssignedSubjects,
	}
}

func (s *Server) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	teachers, err := s.store.Teachers.GetAll(r.Context(), institutionID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, teachers)
}

func (s *Server) handleGetTeacher(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	id := chi.URLParam(r, "id")

	teacher, err := s.store.Teachers.Get(r.Context(), institutionID, id)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, teacher)
}

func (s *Server) handleCreateTeacher(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	var req teacherRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	teacher, err := s.store.Teachers.Create(r.Context(), institutionID, req.toModel())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, teacher)
}

func (s *Server) handleUpdateTeacher(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	id := chi.URLParam(r, "id")

	var req teacherRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	teacher, err := s.store.Teachers.Update(r.Context(), institutionID, id, req.toModel())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, teacher)
}

func (s *Server) handleDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	id := chi.URLParam(r, "id")

	if err := s.store.Teachers.Delete(r.Context(), institutionID, id); err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"id": id})
}
