package api

import (
	"net/http"

	"github.com/sublarr/sublarr/internal/store"
)

type mappingEntry struct {
	EntityID string `json:"entity_id"`
	ItemType string `json:"item_type"`
	Title    string `json:"title"`
	HasFile  bool   `json:"has_file"`
	Wanted   bool   `json:"has_wanted_entries"`
}

// buildMapping cross-references every registered LibraryManager's items
// against the Wanted table, listing every library entity with a flag for
// whether it has any tracked Wanted rows -- entities without any are the
// gap a mis-set language profile or a scan that never ran would leave behind.
func (h *handlers) buildMapping(r *http.Request) ([]mappingEntry, error) {
	var out []mappingEntry
	for _, mgr := range h.Managers {
		items, err := mgr.ListItems(r.Context())
		if err != nil {
			h.Log.Warn().Str("manager", mgr.Name()).Err(err).Msg("listing items for mapping report failed")
			continue
		}
		for _, item := range items {
			wanted, err := h.Store.Wanted.List(store.ListFilter{SeriesID: item.EntityID, Limit: 1})
			out = append(out, mappingEntry{
				EntityID: item.EntityID,
				ItemType: item.ItemType,
				Title:    item.Title,
				HasFile:  item.HasFile,
				Wanted:   err == nil && len(wanted) > 0,
			})
		}
	}
	return out, nil
}

func (h *handlers) mappingReport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.buildMapping(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type compatibilityEntry struct {
	Manager   string `json:"manager"`
	Reachable bool   `json:"reachable"`
	Detail    string `json:"detail"`
}

// compatibilityCheck runs each configured LibraryManager's HealthCheck so an
// operator can confirm Sonarr/Radarr URLs and API keys before relying on
// rescans to fire after a download.
func (h *handlers) compatibilityCheck(w http.ResponseWriter, r *http.Request) {
	out := make([]compatibilityEntry, 0, len(h.Managers))
	for _, mgr := range h.Managers {
		ok, detail := mgr.HealthCheck(r.Context())
		out = append(out, compatibilityEntry{Manager: mgr.Name(), Reachable: ok, Detail: detail})
	}
	writeJSON(w, http.StatusOK, out)
}

// extendedHealth is compatibilityCheck reshaped into the same
// name->bool map the top-level GET /health report uses, so a dashboard can
// render both with one code path.
func (h *handlers) extendedHealth(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]bool, len(h.Managers))
	for _, mgr := range h.Managers {
		ok, _ := mgr.HealthCheck(r.Context())
		out[mgr.Name()] = ok
	}
	writeJSON(w, http.StatusOK, out)
}

// exportLibrary dumps the full mapping report as a downloadable file,
// for an operator moving entity-id assignments to a new install.
func (h *handlers) exportLibrary(w http.ResponseWriter, r *http.Request) {
	entries, err := h.buildMapping(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="sublarr-integrations-export.json"`)
	writeJSON(w, http.StatusOK, entries)
}
