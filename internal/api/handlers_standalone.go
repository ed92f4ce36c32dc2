package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/scanner"
)

type folderEntry struct {
	Name string `json:"name"`
	Root string `json:"root"`
}

// listWatchedFolders reports the watched folders currently registered with the
// scanner, for standalone mode's "no Sonarr/Radarr" library configuration.
func (h *handlers) listWatchedFolders(w http.ResponseWriter, r *http.Request) {
	if h.Scanner == nil {
		writeJSON(w, http.StatusOK, []folderEntry{})
		return
	}
	out := make([]folderEntry, 0)
	for _, src := range h.Scanner.Sources() {
		if wf, ok := src.(*scanner.WatchedFolderSource); ok {
			out = append(out, folderEntry{Name: wf.Name(), Root: wf.Root()})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type addFolderBody struct {
	Name string `json:"name"`
	Root string `json:"root"`
}

func (h *handlers) addWatchedFolder(w http.ResponseWriter, r *http.Request) {
	var body addFolderBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Name == "" || body.Root == "" {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "name and root are required"))
		return
	}
	if h.Scanner == nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "standalone scanning is not enabled"))
		return
	}
	src := scanner.NewWatchedFolderSource(body.Name, body.Root, h.Log)
	h.Scanner.AddSource(src)
	writeJSON(w, http.StatusCreated, folderEntry{Name: body.Name, Root: body.Root})
}

func (h *handlers) removeWatchedFolder(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.Scanner == nil || !h.Scanner.RemoveSource(name) {
		writeError(w, apperrors.Wrap(apperrors.ErrFileNotFound, "no such watched folder %q", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// triggerScan triggers an immediate scan pass across every registered
// source, as the on-demand counterpart to the scanner's scheduled ticker.
func (h *handlers) triggerScan(w http.ResponseWriter, r *http.Request) {
	if h.Scanner == nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "standalone scanning is not enabled"))
		return
	}
	summary := h.Scanner.Run(r.Context())
	if h.Broadcaster != nil {
		h.Broadcaster.Publish("scan_complete", summary)
	}
	writeJSON(w, http.StatusOK, summary)
}
