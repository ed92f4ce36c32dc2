package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/bazarrimport"
	"github.com/sublarr/sublarr/internal/config"
)

func (h *handlers) getConfig(w http.ResponseWriter, r *http.Request) {
	settings, err := config.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redactSecrets(settings))
}

func (h *handlers) putConfig(w http.ResponseWriter, r *http.Request) {
	var settings config.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, err)
		return
	}
	if err := config.Save(settings); err != nil {
		writeError(w, err)
		return
	}
	if h.Broadcaster != nil {
		h.Broadcaster.Publish("config_updated", redactSecrets(settings))
	}
	writeJSON(w, http.StatusOK, redactSecrets(settings))
}

// redactSecrets blanks API keys/passwords before a config is ever sent back
// to a caller, matching spec §6's API-key management being distinct from
// a plain config dump.
func redactSecrets(s config.Settings) config.Settings {
	for name, p := range s.Providers {
		if p.APIKey != "" {
			p.APIKey = "********"
		}
		if p.Password != "" {
			p.Password = "********"
		}
		s.Providers[name] = p
	}
	for name, b := range s.Backends {
		if b.APIKey != "" {
			b.APIKey = "********"
		}
		s.Backends[name] = b
	}
	if s.Integrations.Sonarr.APIKey != "" {
		s.Integrations.Sonarr.APIKey = "********"
	}
	if s.Integrations.Radarr.APIKey != "" {
		s.Integrations.Radarr.APIKey = "********"
	}
	if s.Integrations.Plex.Token != "" {
		s.Integrations.Plex.Token = "********"
	}
	if s.Integrations.Kodi.Token != "" {
		s.Integrations.Kodi.Token = "********"
	}
	return s
}

func (h *handlers) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	settings, err := config.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redactSecrets(settings))
}

type apiKeysBody struct {
	Providers map[string]config.ProviderSettings `json:"providers"`
	Backends  map[string]config.BackendSettings  `json:"backends"`
}

// updateAPIKeys merges credential updates into the persisted config rather
// than requiring the caller to resend every setting (spec §6 "API-key
// management: listing, update").
func (h *handlers) updateAPIKeys(w http.ResponseWriter, r *http.Request) {
	var body apiKeysBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	settings, err := config.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	if settings.Providers == nil {
		settings.Providers = map[string]config.ProviderSettings{}
	}
	if settings.Backends == nil {
		settings.Backends = map[string]config.BackendSettings{}
	}
	for name, p := range body.Providers {
		settings.Providers[name] = p
	}
	for name, b := range body.Backends {
		settings.Backends[name] = b
	}
	if err := config.Save(settings); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redactSecrets(settings))
}

// testAPIKey returns the stored stats row for name, looked up as a provider
// first and then as a translation backend; it does not contact either.
func (h *handlers) testAPIKey(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	stats, err := h.Store.ProviderStats.Get(name)
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "kind": "provider", "stats": stats})
		return
	}
	bstats, err := h.Store.BackendStats.Get(name)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "unknown provider or backend %q", name))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"name": name, "kind": "backend", "stats": bstats})
}

func (h *handlers) exportConfig(w http.ResponseWriter, r *http.Request) {
	settings, err := config.Load()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *handlers) importConfig(w http.ResponseWriter, r *http.Request) {
	var settings config.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, err)
		return
	}
	if err := config.Save(settings); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redactSecrets(settings))
}

// importBazarr translates a Bazarr config.yaml/config.ini export into
// sublarr's own Settings shape (spec §6 "Bazarr import").
func (h *handlers) importBazarr(w http.ResponseWriter, r *http.Request) {
	if r.Body == nil {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "request body is required"))
		return
	}
	settings, report, err := bazarrimport.Import(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := config.Save(settings); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"settings": redactSecrets(settings), "report": report})
}
