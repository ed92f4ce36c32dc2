package scanner

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// WebhookEvent is the "download complete" notification spec §4.8 describes,
// arriving from a library manager (Sonarr/Radarr "on download" webhook).
type WebhookEvent struct {
	EntityID string // series_id or movie_id
	ItemType string // episode | movie
}

// WebhookPipeline runs a four-phase sequence: optional delay, optional
// scan, optional Wanted pipeline for any new items, final notification —
// each phase independently toggleable. The scan phase is a full Scanner.Run
// pass over every source; it is not narrowed to the event's entity.
// Grounded on original_source/backend/wanted_scanner.py's scan_series/
// scan_movie single-entity scan methods, composed into a sequence the way
// the teacher composes pipeline stages in internal/core.
type WebhookPipeline struct {
	scanner   *Scanner
	searcher  *SearchLoop
	notifier  func(ctx context.Context) error // best-effort; nil disables
	cfg       WebhookConfig
	log       zerolog.Logger
}

func NewWebhookPipeline(scanner *Scanner, searcher *SearchLoop, notifier func(ctx context.Context) error, cfg WebhookConfig, log zerolog.Logger) *WebhookPipeline {
	return &WebhookPipeline{
		scanner:  scanner,
		searcher: searcher,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With().Str("component", "webhook_pipeline").Logger(),
	}
}

// Handle runs the four phases in order. Each phase's failure is logged and
// does not abort the remaining phases — a webhook handler must never
// propagate a downstream fault back to the caller (spec §4.7's "failures in
// notification must never propagate" extended to the whole pipeline here).
func (p *WebhookPipeline) Handle(ctx context.Context, event WebhookEvent) {
	if p.cfg.Delay > 0 {
		select {
		case <-time.After(p.cfg.Delay):
		case <-ctx.Done():
			return
		}
	}

	if p.cfg.ScanEnabled && p.scanner != nil {
		p.scanner.Run(ctx)
	}

	if p.cfg.WantedEnabled && p.searcher != nil {
		p.searcher.Run(ctx)
	}

	if p.cfg.NotifyEnabled && p.notifier != nil {
		if err := p.notifier(ctx); err != nil {
			p.log.Warn().Str("entity_id", event.EntityID).Err(err).Msg("webhook final notification failed")
		}
	}
}
