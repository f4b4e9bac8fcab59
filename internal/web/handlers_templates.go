package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/denemetakip/backend/internal/model"
)

type templateRequest struct {
	Name     string                `json:"name"`
	Mappings []model.ColumnMapping `json:"mappings"`
}

// validate checks structural constraints on the mapping list: every entry
// needs a well-formed column letter and a known field, subject scores need a
// subject, topic scores a subject and topic.
func (req *templateRequest) validate() string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	for _, m := range req.Mappings {
		if !validColumn(m.Column) {
			return "invalid column reference " + m.Column
		}
		switch m.Field {
		case model.FieldStudentName, model.FieldStudentNumber, model.FieldExamDate, model.FieldExamName:
		case model.FieldSubjectScore:
			if m.Subject == "" {
				return "subjectScore mapping needs a subject"
			}
		case model.FieldTopicScore:
			if m.Subject == "" || m.Topic == "" {
				return "topicScore mapping needs a subject and a topic"
			}
		default:
			return "unknown mapping field " + string(m.Field)
		}
	}
	return ""
}

// validColumn reports whether column is a well-formed letter reference
// ("A".."Z", "AA", ...).
func validColumn(column string) bool {
	if column == "" {
		return false
	}
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return false
		}
	}
	return true
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	templates, err := s.store.Templates.GetAll(r.Context(), institutionID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	id := chi.URLParam(r, "id")

	template, err := s.store.Templates.Get(r.Context(), institutionID, id)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, template)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	var req templateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	template, err := s.store.Templates.Create(r.Context(), institutionID, req.Name, req.Mappings)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, template)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	id := chi.URLParam(r, "id")

	var req templateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	template, err := s.store.Templates.Update(r.Context(), institutionID, id, req.Name, req.Mappings)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, template)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	id := chi.URLParam(r, "id")

	if err := s.store.Templates.Delete(r.Context(), institutionID, id); err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"id": id})
}
