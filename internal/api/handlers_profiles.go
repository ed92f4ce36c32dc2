package api

import (
	"net/http"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/store"
)

func (h *handlers) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Store.Profiles.All()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *handlers) createProfile(w http.ResponseWriter, r *http.Request) {
	var profile store.LanguageProfile
	if err := decodeJSON(r, &profile); err != nil {
		writeError(w, err)
		return
	}
	if profile.Name == "" || profile.SourceLang == "" || len(profile.TargetLangs) == 0 {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "name, source_lang, and target_langs are required"))
		return
	}
	id, err := h.Store.Profiles.Create(profile)
	if err != nil {
		writeError(w, err)
		return
	}
	profile.ID = id
	writeJSON(w, http.StatusCreated, profile)
}

func (h *handlers) deleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Store.Profiles.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignProfileBody struct {
	EntityID string `json:"entity_id"`
}

func (h *handlers) assignProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var body assignProfileBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.EntityID == "" {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "entity_id is required"))
		return
	}
	if err := h.Store.Profiles.AssignEntity(body.EntityID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
