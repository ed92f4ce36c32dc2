package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sublarr/sublarr/internal/apperrors"
)

// handlers holds Dependencies plus the small amount of derived state (e.g.
// the config-hash function) every handler method needs. One struct per
// category file keeps each handler file focused, mirroring the way the
// teacher splits internal/api/services into one file per concern.
type handlers struct {
	Dependencies
}

func newHandlers(deps Dependencies) *handlers {
	return &handlers{Dependencies: deps}
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.Health == nil {
		writeJSON(w, http.StatusOK, HealthReport{Healthy: true, Integrations: map[string]bool{}})
		return
	}
	report := h.Health(r.Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// pathInt64 extracts and parses a chi URL param, returning a validation
// error (mapped to 400) rather than panicking on malformed ids.
func pathInt64(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrValidation, "invalid %s %q", key, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
