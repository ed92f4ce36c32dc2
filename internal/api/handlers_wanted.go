package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/store"
)

// listWanted serves the paginated/filtered CRUD read named by spec §6:
// item_type, status, series_id, subtitle_type query filters plus
// limit/offset pagination.
func (h *handlers) listWanted(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Store.Wanted.List(store.ListFilter{
		ItemType:     q.Get("item_type"),
		Status:       store.WantedStatus(q.Get("status")),
		SeriesID:     q.Get("series_id"),
		SubtitleType: store.SubtitleType(q.Get("subtitle_type")),
		Limit:        queryInt(r, "limit", 0),
		Offset:       queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handlers) getWanted(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	item, err := h.Store.Wanted.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *handlers) deleteWanted(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Store.Wanted.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// refreshWanted triggers an immediate out-of-band scan pass, the same
// operation the scheduled ticker runs (spec §6 "POST /wanted/refresh").
func (h *handlers) refreshWanted(w http.ResponseWriter, r *http.Request) {
	if h.Scanner == nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "scanner not configured"))
		return
	}
	summary := h.Scanner.Run(r.Context())
	if h.Broadcaster != nil {
		h.Broadcaster.Publish("wanted_scan_completed", summary)
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *handlers) wantedSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Store.Wanted.Summary()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// searchWantedOne runs one pipeline attempt for a single item synchronously,
// returning once the attempt resolves to found/failed/retry (spec §6
// "POST /wanted/<id>/search").
func (h *handlers) searchWantedOne(w http.ResponseWriter, r *http.Request) {
	h.processWantedOne(w, r)
}

func (h *handlers) processWantedOne(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	item, err := h.Store.Wanted.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.SearchLoop == nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "search loop not configured"))
		return
	}
	if err := h.SearchLoop.Processor().Process(r.Context(), item); err != nil {
		writeError(w, err)
		return
	}
	item, err = h.Store.Wanted.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type idsRequestBody struct {
	IDs []int64 `json:"ids"`
}

// batchSearchWanted processes a caller-chosen subset; one item's failure
// never aborts the rest (spec §7).
func (h *handlers) batchSearchWanted(w http.ResponseWriter, r *http.Request) {
	var body idsRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if h.SearchLoop == nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "search loop not configured"))
		return
	}
	processed := 0
	for i, id := range body.IDs {
		item, err := h.Store.Wanted.Get(id)
		if err != nil {
			continue
		}
		if err := h.SearchLoop.Processor().Process(r.Context(), item); err == nil {
			processed++
		}
		if h.Broadcaster != nil {
			h.Broadcaster.Publish("wanted_batch_progress", map[string]interface{}{"index": i, "total": len(body.IDs)})
		}
	}
	if h.Broadcaster != nil {
		h.Broadcaster.Publish("wanted_batch_completed", map[string]interface{}{"processed": processed})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"processed": processed})
}

// searchAllWanted runs one full search-loop pass over every eligible item
// (spec §6 "POST /wanted/search-all"), identical to the scheduled tick.
func (h *handlers) searchAllWanted(w http.ResponseWriter, r *http.Request) {
	if h.SearchLoop == nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "search loop not configured"))
		return
	}
	processed, skipped := h.SearchLoop.Run(r.Context())
	if h.Broadcaster != nil {
		h.Broadcaster.Publish("wanted_batch_completed", map[string]interface{}{"processed": processed, "skipped": skipped})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"processed": processed, "skipped": skipped})
}
