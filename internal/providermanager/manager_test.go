package providermanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sublarr/sublarr/internal/circuitbreaker"
	"github.com/sublarr/sublarr/internal/providerregistry"
	"github.com/sublarr/sublarr/internal/scorer"
	"github.com/sublarr/sublarr/internal/store"
)

type fakeProvider struct {
	name    string
	results []providerregistry.Candidate
	body    []byte
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Search(ctx context.Context, q providerregistry.VideoQuery) ([]providerregistry.Candidate, error) {
	return f.results, nil
}
func (f *fakeProvider) Download(ctx context.Context, c providerregistry.Candidate) ([]byte, error) {
	return f.body, nil
}

func newTestManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	breakers := circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig())
	registry := providerregistry.New(s.ProviderStats, breakers, zerolog.Nop())

	weak := &fakeProvider{name: "subdl", results: []providerregistry.Candidate{
		{ProviderName: "subdl", SubtitleID: "1", Format: "srt", ReleaseName: "Show"},
	}, body: []byte("weak body")}
	strong := &fakeProvider{name: "opensubtitles", results: []providerregistry.Candidate{
		{ProviderName: "opensubtitles", SubtitleID: "2", Format: "srt", ReleaseName: "Show.Name.S01E02"},
	}, body: []byte("strong body")}

	registry.Register(weak, providerregistry.Limits{MaxRequests: 30, Window: 10 * time.Second, Timeout: 2 * time.Second, MaxRetries: 1})
	registry.Register(strong, providerregistry.Limits{MaxRequests: 40, Window: 10 * time.Second, Timeout: 2 * time.Second, MaxRetries: 1})

	return New(registry, s, scorer.DefaultWeights(), time.Minute, true, zerolog.Nop()), s
}

func TestSearchDedupesAndSortsByScore(t *testing.T) {
	m, _ := newTestManager(t)
	results, err := m.Search(context.Background(), providerregistry.VideoQuery{Title: "Show Name", Season: 1, Episode: 2}, "", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearchPopulatesCacheOnFirstCall(t *testing.T) {
	m, s := newTestManager(t)
	query := providerregistry.VideoQuery{Title: "Show Name"}
	_, err := m.Search(context.Background(), query, "", 0)
	require.NoError(t, err)

	key := m.cacheKey(query, "")
	_, ok, err := s.ProviderCache.Get("*", key)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSaveSubtitleWritesFileAndRecordsHistory(t *testing.T) {
	m, s := newTestManager(t)
	dir := t.TempDir()
	basePath := filepath.Join(dir, "show.s01e02.mkv")

	result := Scored{Candidate: providerregistry.Candidate{ProviderName: "opensubtitles", SubtitleID: "2", Format: "srt"}, Score: 500}
	path, err := m.SaveSubtitle(result, []byte("hello"), basePath, "fr", false)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, filepath.Join(dir, "show.s01e02.fr.srt"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))

	downloads, err := s.History.RecentDownloads(10)
	require.NoError(t, err)
	require.Len(t, downloads, 1)
}
