package integrations

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/store"
)

// RescanNotifier adapts a set of registered LibraryManagers (keyed by the
// WantedItem's owning entity) plus any MediaServerNotifiers into
// wantedpipeline.LibraryNotifier, implementing spec §4.7's "Integration
// callbacks" paragraph: rescan the owning library entity, then refresh the
// matching media-server item. Failures here are logged, never returned —
// the pipeline's own success must not be undone by a notification fault.
type RescanNotifier struct {
	managers     map[string]LibraryManager // keyed by LibraryManager.Name()
	mediaServers []MediaServerNotifier
	log          zerolog.Logger
}

func NewRescanNotifier(managers []LibraryManager, mediaServers []MediaServerNotifier, log zerolog.Logger) *RescanNotifier {
	byName := make(map[string]LibraryManager, len(managers))
	for _, m := range managers {
		byName[m.Name()] = m
	}
	return &RescanNotifier{
		managers:     byName,
		mediaServers: mediaServers,
		log:          log.With().Str("component", "rescan_notifier").Logger(),
	}
}

// NotifyRescan picks the manager matching the item's item_type (episode →
// sonarr, movie → radarr) and asks it to rescan the owning entity, then
// refreshes every configured media server for the written file.
func (n *RescanNotifier) NotifyRescan(ctx context.Context, item store.WantedItem) error {
	managerName := "radarr"
	if item.ItemType == "episode" {
		managerName = "sonarr"
	}

	entityID := item.SeriesID
	if entityID == "" {
		entityID = item.MovieID
	}

	if entityID != "" {
		if m, ok := n.managers[managerName]; ok {
			if err := m.RescanEntity(ctx, entityID); err != nil {
				n.log.Warn().Str("manager", managerName).Str("entity_id", entityID).Err(err).Msg("rescan failed")
			}
		}
	}

	for _, ms := range n.mediaServers {
		if err := ms.RefreshItem(ctx, item.FilePath); err != nil {
			n.log.Warn().Str("media_server", ms.Name()).Err(err).Msg("media server refresh failed")
		}
	}

	return nil
}

// RefreshAll asks every registered library manager to rescan its whole
// library, for the webhook pipeline's final best-effort notification phase
// (spec §4.8), which has no single owning entity to target.
func (n *RescanNotifier) RefreshAll(ctx context.Context) error {
	for name, m := range n.managers {
		if err := m.RescanEntity(ctx, ""); err != nil {
			n.log.Warn().Str("manager", name).Err(err).Msg("library-wide rescan failed")
		}
	}
	return nil
}
