package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sublarr/sublarr/internal/apperrors"
	"github.com/sublarr/sublarr/internal/scanner"
)

// sonarrWebhookBody and radarrWebhookBody mirror the two services' native
// "on download"/"on import" webhook payloads. Both carry an eventType field;
// "Test" is the connectivity check the Sonarr/Radarr UI sends when an
// operator clicks "Test" on the webhook connection and must be
// acknowledged without driving any pipeline work.
type sonarrWebhookBody struct {
	EventType string `json:"eventType"`
	Series    struct {
		ID int64 `json:"id"`
	} `json:"series"`
	Episodes []struct {
		ID int64 `json:"id"`
	} `json:"episodes"`
}

type radarrWebhookBody struct {
	EventType string `json:"eventType"`
	Movie     struct {
		ID int64 `json:"id"`
	} `json:"movie"`
}

// webhookSonarr accepts Sonarr's "on import"/"on upgrade" webhook and drives
// the webhook pipeline for the affected series (spec §4.8, §6 "Webhooks").
func (h *handlers) webhookSonarr(w http.ResponseWriter, r *http.Request) {
	var body sonarrWebhookBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.EventType == "Test" || body.EventType == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
		return
	}
	if body.EventType != "Download" && body.EventType != "Upgrade" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "event_type": body.EventType})
		return
	}
	if body.Series.ID == 0 {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "webhook payload missing series.id"))
		return
	}
	h.dispatchWebhook(scanner.WebhookEvent{
		EntityID: strconv.FormatInt(body.Series.ID, 10),
		ItemType: "episode",
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// webhookRadarr is webhookSonarr's movie-side counterpart.
func (h *handlers) webhookRadarr(w http.ResponseWriter, r *http.Request) {
	var body radarrWebhookBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.EventType == "Test" || body.EventType == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
		return
	}
	if body.EventType != "Download" && body.EventType != "Upgrade" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "event_type": body.EventType})
		return
	}
	if body.Movie.ID == 0 {
		writeError(w, apperrors.Wrap(apperrors.ErrValidation, "webhook payload missing movie.id"))
		return
	}
	h.dispatchWebhook(scanner.WebhookEvent{
		EntityID: strconv.FormatInt(body.Movie.ID, 10),
		ItemType: "movie",
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// dispatchWebhook runs the pipeline in the background: Sonarr/Radarr expect
// a fast webhook ack, and WebhookPipeline.Handle can block for its configured
// delay plus a full scan/search pass.
func (h *handlers) dispatchWebhook(event scanner.WebhookEvent) {
	if h.Webhook == nil {
		return
	}
	if h.Broadcaster != nil {
		h.Broadcaster.Publish("webhook_received", event)
	}
	go func() {
		h.Webhook.Handle(context.Background(), event)
		if h.Broadcaster != nil {
			h.Broadcaster.Publish("webhook_completed", event)
		}
	}()
}
