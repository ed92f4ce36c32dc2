package api

import (
	"net/http"
	"os"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/pathsafety"
	"github.com/sublarr/sublarr/internal/tools"
)

// validateToolPath enforces the same file_path rules every tools.py route
// enforced: must resolve under MediaRoot, must exist, must be a subtitle.
func (h *handlers) validateToolPath(path string) error {
	if path == "" {
		return apperrors.Wrap(apperrors.ErrValidation, "file_path is required")
	}
	if h.MediaRoot == "" {
		return apperrors.Wrap(apperrors.ErrValidation, "media root not configured")
	}
	if err := pathsafety.EnsureWithin(path, h.MediaRoot); err != nil {
		return apperrors.Wrap(apperrors.ErrPathSafety, "file_path must be under the configured media root")
	}
	if _, err := os.Stat(path); err != nil {
		return apperrors.Wrap(apperrors.ErrFileNotFound, "%s", path)
	}
	return tools.ValidateExt(path)
}

type toolPathBody struct {
	FilePath string `json:"file_path"`
}

func (h *handlers) toolRemoveHI(w http.ResponseWriter, r *http.Request) {
	var body toolPathBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validateToolPath(body.FilePath); err != nil {
		writeError(w, err)
		return
	}
	result, err := tools.RemoveHI(body.FilePath)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "cleaned",
		"original_lines":  result.CuesBefore,
		"cleaned_lines":   result.CuesAfter,
		"removed":         result.Removed,
	})
}

type adjustTimingBody struct {
	FilePath string `json:"file_path"`
	OffsetMs int    `json:"offset_ms"`
}

func (h *handlers) toolAdjustTiming(w http.ResponseWriter, r *http.Request) {
	var body adjustTimingBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validateToolPath(body.FilePath); err != nil {
		writeError(w, err)
		return
	}
	modified, err := tools.AdjustTiming(body.FilePath, body.OffsetMs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "adjusted",
		"lines_modified":  modified,
		"offset_ms":       body.OffsetMs,
	})
}

type commonFixesBody struct {
	FilePath string   `json:"file_path"`
	Fixes    []string `json:"fixes"`
}

func (h *handlers) toolCommonFixes(w http.ResponseWriter, r *http.Request) {
	var body commonFixesBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if len(body.Fixes) == 0 {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "fixes must be a non-empty array of fix names"))
		return
	}
	if err := h.validateToolPath(body.FilePath); err != nil {
		writeError(w, err)
		return
	}
	result, err := tools.CommonFixes(body.FilePath, body.Fixes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "fixed",
		"fixes_applied": result.Applied,
		"lines_before":  result.LinesBefore,
		"lines_after":   result.LinesAfter,
	})
}

func (h *handlers) toolPreview(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("file_path")
	if err := h.validateToolPath(path); err != nil {
		writeError(w, err)
		return
	}
	result, err := tools.Preview(path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"format":      result.Format,
		"lines":       result.Lines,
		"total_lines": result.TotalLines,
	})
}
