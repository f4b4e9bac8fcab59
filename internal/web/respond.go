package web

// respond.go provides the JSON response envelope shared by all handlers.
// Successful responses are {"success":true,"data":...}; errors are
// {"success":false,"error":"..."} with the technical error logged
// server-side under the request id.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/denemetakip/backend/internal/logging"
	"github.com/denemetakip/backend/internal/store"
)

type successEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON writes a success envelope around data.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successEnvelope{Success: true, Data: data}); err != nil {
		logging.FromContext(r.Context()).Error("encode response", "error", err)
	}
}

// writeError writes an error envelope with a client-safe message.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logging.FromContext(r.Context()).Error("request error",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", message,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorEnvelope{Success: false, Error: message}); err != nil {
		logging.FromContext(r.Context()).Error("encode error response", "error", err)
	}
}

// respondStoreError maps store failures to HTTP statuses: a miss is 404,
// anything else is a 500 with a generic message.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	logging.FromContext(r.Context()).Error("store failure", "error", err)
	writeError(w, r, http.StatusInternalServerError, "internal error")
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
