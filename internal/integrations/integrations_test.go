package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSonarrListItemsReturnsOnlyEpisodesWithFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/series":
			json.NewEncoder(w).Encode([]sonarrSeries{{ID: 1, Title: "Show", Year: 2020}})
		case "/api/v3/episode":
			json.NewEncoder(w).Encode([]sonarrEpisode{
				{ID: 10, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 1, HasFile: true, EpisodeFileID: 100},
				{ID: 11, SeriesID: 1, SeasonNumber: 1, EpisodeNumber: 2, HasFile: false},
			})
		case "/api/v3/episodefile":
			json.NewEncoder(w).Encode([]sonarrEpisodeFile{{ID: 100, Path: "/media/show/S01E01.mkv", SeriesID: 1}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewSonarrClient(srv.URL, "key", zerolog.Nop())
	items, err := c.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "/media/show/S01E01.mkv", items[0].FilePath)
}

func TestSonarrHealthCheckReportsFailureOnUnreachable(t *testing.T) {
	c := NewSonarrClient("http://127.0.0.1:1", "key", zerolog.Nop())
	ok, msg := c.HealthCheck(context.Background())
	require.False(t, ok)
	require.NotEmpty(t, msg)
}

func TestRadarrListItemsFiltersMoviesWithoutFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/movie" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		movies := []radarrMovie{
			{ID: 1, Title: "Film", Year: 2021, HasFile: true},
			{ID: 2, Title: "No File", HasFile: false},
		}
		movies[0].MovieFile.Path = "/media/film.mkv"
		json.NewEncoder(w).Encode(movies)
	}))
	defer srv.Close()

	c := NewRadarrClient(srv.URL, "key", zerolog.Nop())
	items, err := c.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "/media/film.mkv", items[0].FilePath)
}

func TestPlexRefreshItemSendsPathQueryParam(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Query().Get("path")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPlexNotifier(srv.URL, "token", "1", zerolog.Nop())
	err := p.RefreshItem(context.Background(), "/media/film.mkv")
	require.NoError(t, err)
	require.Equal(t, "/media/film.mkv", gotPath)
}
