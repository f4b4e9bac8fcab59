package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/denemetakip/backend/internal/ingest"
)

// handleBulkUpload ingests a spreadsheet of exam results. The request is a
// multipart form with a "file" part and an optional "templateId" value; the
// response reports per-row errors without failing the batch.
func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	institutionID := chi.URLParam(r, "institutionID")

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	templateID := r.FormValue("templateId")

	result, err := s.ingest.ProcessReader(r.Context(), institutionID, file, templateID)
	if err != nil {
		if errors.Is(err, ingest.ErrTooManyUploads) {
			w.Header().Set("Retry-After", "30")
			writeError(w, r, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}
