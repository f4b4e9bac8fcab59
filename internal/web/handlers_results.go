package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/denemetakip/backend/internal/model"
)

// handleListResults returns an institution's exam results, optionally
// filtered by studentId and a comma-separated subjects list.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	filter := model.ResultFilter{
		StudentID: r.URL.Query().Get("studentId"),
		Subjects:  splitSubjects(r.URL.Query().Get("subjects")),
	}

	results, err := s.store.Results.GetAll(r.Context(), institutionID, filter)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, results)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")
	id := chi.URLParam(r, "id")

	result, err := s.store.Results.Get(r.Context(), institutionID, id)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

type resultRequest struct {
	StudentID string               `json:"studentId"`
	ExamDate  time.Time            `json:"examDate"`
	ExamName  string               `json:"examName"`
	Scores    []model.SubjectScore `json:"scores"`
}

func (req *resultRequest) validate() string {
	if req.StudentID == "" {
		return "studentId is required"
	}
	for _, score := range req.Scores {
		if strings.TrimSpace(score.Subject) == "" {
			return "every score needs a subject"
		}
	}
	return ""
}

func (req *resultRequest) toModel() model.ExamResult {
	examDate := req.ExamDate
	if examDate.IsZero() {
		examDate = time.Now()
	}
	return model.ExamResult{
		StudentID: req.StudentID,
		ExamDate:  examDate,
		ExamName:  req.ExamName,
		Scores:    req.Scores,
	}
}

func (s *Server) handleCreateResult(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	var req resultRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	result, err := s.store.Results.Create(r.Context(), institutionID, req.toModel())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, result)
}

func (s *Server) handleCreateResultBatch(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	var reqs []resultRequest
	if err := decodeBody(r, &reqs); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(reqs) == 0 {
		writeError(w, r, http.StatusBadRequest, "batch is empty")
		return
	}

	results := make([]model.ExamResult, 0, len(reqs))
	for _, req := range reqs {
		if msg := req.validate(); msg != "" {
			writeError(w, r, http.StatusBadRequest, msg)
			return
		}
		results = append(results, req.toModel())
	}

	created, err := s.store.Results.CreateBatch(r.Context(), institutionID, results)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, created)
}

// splitSubjects parses a comma-separated subjects query parameter.
func splitSubjects(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	subjects := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			subjects = append(subjects, part)
		}
	}
	if len(subjects) == 0 {
		return nil
	}
	return subjects
}
