package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/integrations"
	"github.com/sublarr/sublarr/internal/pathsafety"
	"github.com/sublarr/sublarr/internal/store"
)

// listLibrary aggregates every registered LibraryManager's items with a
// subtitle-presence summary (spec §6 "GET /library").
func (h *handlers) listLibrary(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		integrations.LibraryItem
		HasSubtitle bool `json:"has_subtitle"`
	}
	var out []entry
	for _, mgr := range h.Managers {
		items, err := mgr.ListItems(r.Context())
		if err != nil {
			h.Log.Warn().Str("manager", mgr.Name()).Err(err).Msg("listing library items failed")
			continue
		}
		for _, item := range items {
			out = append(out, entry{LibraryItem: item, HasSubtitle: item.HasFile})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) episodeSubtitles(w http.ResponseWriter, r *http.Request) {
	h.entitySubtitles(w, r)
}

func (h *handlers) seriesSubtitles(w http.ResponseWriter, r *http.Request) {
	h.entitySubtitles(w, r)
}

func (h *handlers) entitySubtitles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	items, err := h.Store.Wanted.List(store.ListFilter{SeriesID: id})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// historyDownloads lists recent subtitle downloads (spec §4.3 Provenance).
func (h *handlers) historyDownloads(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	downloads, err := h.Store.History.RecentDownloads(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, downloads)
}

// historyUpgrades lists recent SRT-to-ASS (or score) upgrade decisions
// (spec §4.7 Provenance).
func (h *handlers) historyUpgrades(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	upgrades, err := h.Store.History.RecentUpgrades(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, upgrades)
}

type deleteSubtitleBody struct {
	Path string `json:"path"`
}

// deleteSubtitle soft-deletes one subtitle file into the trash root, never
// touching anything outside MediaRoot (spec §8 invariant 6).
func (h *handlers) deleteSubtitle(w http.ResponseWriter, r *http.Request) {
	var body deleteSubtitleBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Path == "" {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "path is required"))
		return
	}
	batchID, err := h.trashFiles([]string{body.Path})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"batch_id": batchID})
}

type batchDeleteBody struct {
	Paths []string `json:"paths"`
}

func (h *handlers) batchDeleteSeriesSubtitles(w http.ResponseWriter, r *http.Request) {
	var body batchDeleteBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	batchID, err := h.trashFiles(body.Paths)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"batch_id": batchID})
}

func (h *handlers) listTrash(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Store.Trash.OlderThan(0) // age=0: every batch, regardless of created_at
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		manifest, err := h.Store.Trash.Get(id)
		if err != nil {
			continue
		}
		out = append(out, map[string]interface{}{"batch_id": manifest.BatchID, "created_at": manifest.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

type trashManifestEntry struct {
	Original string `json:"original"`
	Trashed  string `json:"trashed"`
}

// restoreTrash moves every file in the batch's manifest back to its
// original path and drops the manifest row.
func (h *handlers) restoreTrash(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	manifest, err := h.Store.Trash.Get(batchID)
	if err != nil {
		writeError(w, err)
		return
	}
	var entries []trashManifestEntry
	if err := json.Unmarshal([]byte(manifest.ManifestJSON), &entries); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "corrupt trash manifest: %v", err))
		return
	}
	for _, e := range entries {
		if err := os.MkdirAll(filepath.Dir(e.Original), 0o755); err != nil {
			writeError(w, err)
			return
		}
		if err := os.Rename(e.Trashed, e.Original); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := h.Store.Trash.Delete(batchID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// purgeTrash permanently deletes a batch's files and its manifest row.
func (h *handlers) purgeTrash(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	manifest, err := h.Store.Trash.Get(batchID)
	if err != nil {
		writeError(w, err)
		return
	}
	var entries []trashManifestEntry
	if err := json.Unmarshal([]byte(manifest.ManifestJSON), &entries); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "corrupt trash manifest: %v", err))
		return
	}
	for _, e := range entries {
		_ = os.Remove(e.Trashed)
	}
	if err := h.Store.Trash.Delete(batchID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// trashFiles moves each path into <media_root>/.sublarr_trash/<batch_id>/,
// refusing any path outside MediaRoot (spec §6 Filesystem conventions,
// §8 invariant 6), and records the original/trashed pairing as the batch's
// manifest so restoreTrash/purgeTrash can act on it later.
func (h *handlers) trashFiles(paths []string) (string, error) {
	if h.MediaRoot == "" {
		return "", apperrors.Wrap(apperrors.ErrValidation, "media root not configured")
	}
	batchID := uuid.NewString()
	trashDir := filepath.Join(h.MediaRoot, ".sublarr_trash", batchID)
	if err := os.MkdirAll(trashDir, 0o755); err != nil {
		return "", err
	}

	entries := make([]trashManifestEntry, 0, len(paths))
	for _, p := range paths {
		if err := pathsafety.EnsureWithin(p, h.MediaRoot); err != nil {
			return "", apperrors.Wrap(apperrors.ErrPathSafety, "%s escapes media root", p)
		}
		dest := filepath.Join(trashDir, filepath.Base(p))
		if err := os.Rename(p, dest); err != nil {
			return "", err
		}
		entries = append(entries, trashManifestEntry{Original: p, Trashed: dest})
	}

	manifestJSON, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	if err := h.Store.Trash.Create(batchID, string(manifestJSON)); err != nil {
		return "", err
	}
	return batchID, nil
}
