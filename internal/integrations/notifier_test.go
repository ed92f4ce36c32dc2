package integrations

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sublarr/sublarr/internal/store"
)

type fakeManager struct {
	name        string
	rescannedID string
}

func (f *fakeManager) Name() string                                        { return f.name }
func (f *fakeManager) HealthCheck(ctx context.Context) (bool, string)       { return true, "OK" }
func (f *fakeManager) ListItems(ctx context.Context) ([]LibraryItem, error) { return nil, nil }
func (f *fakeManager) RescanEntity(ctx context.Context, entityID string) error {
	f.rescannedID = entityID
	return nil
}

type fakeMediaServer struct {
	name      string
	refreshed string
}

func (f *fakeMediaServer) Name() string { return f.name }
func (f *fakeMediaServer) RefreshItem(ctx context.Context, filePath string) error {
	f.refreshed = filePath
	return nil
}

func TestRescanNotifierRoutesEpisodeToSonarr(t *testing.T) {
	sonarr := &fakeManager{name: "sonarr"}
	radarr := &fakeManager{name: "radarr"}
	plex := &fakeMediaServer{name: "plex"}

	n := NewRescanNotifier([]LibraryManager{sonarr, radarr}, []MediaServerNotifier{plex}, zerolog.Nop())

	item := store.WantedItem{ItemType: "episode", SeriesID: "42", FilePath: "/media/show/S01E01.fr.ass"}
	require.NoError(t, n.NotifyRescan(context.Background(), item))

	require.Equal(t, "42", sonarr.rescannedID)
	require.Empty(t, radarr.rescannedID)
	require.Equal(t, "/media/show/S01E01.fr.ass", plex.refreshed)
}

func TestRescanNotifierRoutesMovieToRadarr(t *testing.T) {
	sonarr := &fakeManager{name: "sonarr"}
	radarr := &fakeManager{name: "radarr"}

	n := NewRescanNotifier([]LibraryManager{sonarr, radarr}, nil, zerolog.Nop())

	item := store.WantedItem{ItemType: "movie", MovieID: "7", FilePath: "/media/film.fr.ass"}
	require.NoError(t, n.NotifyRescan(context.Background(), item))

	require.Equal(t, "7", radarr.rescannedID)
	require.Empty(t, sonarr.rescannedID)
}
