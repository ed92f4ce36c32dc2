package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/store"
)

// writeJSON is the one place every handler serializes a response, mirroring
// the teacher's healthHandler/servicesHandler inline-encode style but
// centralized so status codes and the Content-Type header never drift.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps a component error to the status codes spec §7 names:
// ValidationError/PathSafetyError get their own codes, store "not found"
// is a 404, everything else a query against a dependency that blew up is
// a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrPathSafety):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrFileNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apperrors.Wrap(apperrors.ErrValidation, "empty request body")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, "decoding request body: %v", err)
	}
	return nil
}
