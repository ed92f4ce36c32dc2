package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/providerregistry"
)

// listProviders reports each registered provider's name plus its current
// stats row (spec §6 "status, priority, config fields, stats").
func (h *handlers) listProviders(w http.ResponseWriter, r *http.Request) {
	names := h.Registry.Names()
	out := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		entry := map[string]interface{}{"name": name}
		if stats, err := h.Store.ProviderStats.Get(name); err == nil {
			entry["stats"] = stats
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

// testProvider answers reachable:true for one provider without contacting
// it when no title query parameter is given; with a title it runs a live
// registry search and returns only that provider's candidates.
func (h *handlers) testProvider(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	q := r.URL.Query()
	if q.Get("title") == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "reachable": true})
		return
	}
	query := providerregistry.VideoQuery{
		Title:          q.Get("title"),
		TargetLanguage: q.Get("target_language"),
		ItemType:       q.Get("item_type"),
	}
	candidates, err := h.Registry.Search(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	filtered := make([]providerregistry.Candidate, 0)
	for _, c := range candidates {
		if c.ProviderName == name {
			filtered = append(filtered, c)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "candidates": filtered})
}

func (h *handlers) searchProviders(w http.ResponseWriter, r *http.Request) {
	var query providerregistry.VideoQuery
	if err := decodeJSON(r, &query); err != nil {
		writeError(w, err)
		return
	}
	if query.Title == "" && query.IMDBId == "" && query.TMDBId == "" {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "title, imdb_id, or tmdb_id is required"))
		return
	}
	candidates, err := h.Registry.Search(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (h *handlers) providerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.ProviderStats.All()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// providerHealth reports, per provider with a stats row, its auto-disabled
// flag and consecutive-failure count; rate-limiter and circuit-breaker state
// are not included.
func (h *handlers) providerHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.ProviderStats.All()
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string]interface{}, len(stats))
	for _, s := range stats {
		out[s.ProviderName] = map[string]interface{}{
			"auto_disabled":        s.AutoDisabled,
			"consecutive_failures": s.ConsecutiveFailures,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// enableProvider clears an auto-disable (spec §7 "re-enabling is either
// time-based or manual via API") by recording a synthetic success, the same
// state transition a real successful download produces.
func (h *handlers) enableProvider(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Store.ProviderStats.RecordSuccess(name, 0); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "status": "enabled"})
}

func (h *handlers) clearProviderCache(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.ProviderCache.Clear(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
