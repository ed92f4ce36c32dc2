// Package integrations is the read-only adapter boundary to external
// library managers (Sonarr/Radarr) and media servers (Plex/Kodi), per spec
// §4's component table and §6's Integrations endpoints. Grounded on
// original_source/backend/sonarr_client.py's SonarrClient — its REST
// surface (series/episode enumeration, file paths, RescanSeries command)
// is generalized into a narrow Go interface the Scanner and WantedPipeline
// depend on, keeping transport details (retry, rate limiting) local to
// each concrete client.
package integrations

import (
	"context"
	"time"
)

// LibraryItem is one enumerable unit from an external library manager: a
// single episode or movie, with HasFile reporting whether its video file is
// on disk.
type LibraryItem struct {
	EntityID   string // series id or movie id, as the owning manager names it
	ItemType   string // episode | movie
	Title      string
	Season     int
	Episode    int
	Year       int
	IMDBId     string
	TMDBId     string
	FilePath   string
	HasFile    bool
	UpdatedAt  time.Time
}

// LibraryManager is the read side of spec §4.10's Integrations facade:
// enumerate what the manager knows about, and ask it to rescan/refresh one
// entity after sublarr writes a new subtitle file.
type LibraryManager interface {
	Name() string
	HealthCheck(ctx context.Context) (bool, string)
	ListItems(ctx context.Context) ([]LibraryItem, error)
	RescanEntity(ctx context.Context, entityID string) error
}

// MediaServerNotifier refreshes a media server's metadata/subtitle cache
// for one item after a subtitle file changes (spec §6 "on media-server
// completion, refresh the matching item").
type MediaServerNotifier interface {
	Name() string
	RefreshItem(ctx context.Context, filePath string) error
}
