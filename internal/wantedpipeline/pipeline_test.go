package wantedpipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sublarr/sublarr/internal/circuitbreaker"
	"github.com/sublarr/sublarr/internal/providermanager"
	"github.com/sublarr/sublarr/internal/providerregistry"
	"github.com/sublarr/sublarr/internal/store"
	"github.com/sublarr/sublarr/internal/translationmanager"
	"github.com/sublarr/sublarr/internal/translator"
	"github.com/sublarr/sublarr/pkg/subsutil"
)

// fakeProviders implements translator.ProviderSearch for tests: it only
// finds a candidate for formats preloaded into the candidates map.
type fakeProviders struct {
	candidates map[string][]providermanager.Scored // keyed by format
	saveErr    error
}

func (f *fakeProviders) Search(ctx context.Context, query providerregistry.VideoQuery, formatFilter string, minScore int) ([]providermanager.Scored, error) {
	return f.candidates[formatFilter], nil
}

func (f *fakeProviders) SearchAndDownloadBest(ctx context.Context, query providerregistry.VideoQuery, formatFilter string, minScore int) (*providermanager.Scored, []byte, error) {
	cs := f.candidates[formatFilter]
	if len(cs) == 0 {
		return nil, nil, nil
	}
	best := cs[0]
	return &best, []byte("subtitle content"), nil
}

func (f *fakeProviders) SaveSubtitle(result providermanager.Scored, data []byte, basePath, language string, forced bool) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	return basePath + "." + language + "." + result.Candidate.Format, nil
}

func candidate(provider, format string) providermanager.Scored {
	return providermanager.Scored{
		Candidate: providerregistry.Candidate{ProviderName: provider, Format: format},
		Score:     300,
	}
}

type noProber struct{}

func (noProber) Streams(ctx context.Context, videoPath string) ([]subsutil.StreamInfo, error) {
	return nil, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestTranslator(providers translator.ProviderSearch) *translator.Translator {
	breakers := circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig())
	tm := translationmanager.New(breakers, nil, nil, zerolog.Nop())
	return translator.New(noProber{}, nil, providers, tm, nil, nil, zerolog.Nop())
}

func TestBackoffDurationDoublesUpToCap(t *testing.T) {
	cfg := Config{BaseBackoffHours: 4, CapBackoffHours: 48}
	require.Equal(t, 4.0, backoffDuration(cfg, 1).Hours())
	require.Equal(t, 8.0, backoffDuration(cfg, 2).Hours())
	require.Equal(t, 16.0, backoffDuration(cfg, 3).Hours())
	require.Equal(t, 48.0, backoffDuration(cfg, 10).Hours())
}

func TestParseSeasonEpisodeExtractsFromLabel(t *testing.T) {
	season, episode := parseSeasonEpisode("S02E07")
	require.Equal(t, 2, season)
	require.Equal(t, 7, episode)
}

func TestParseSeasonEpisodeReturnsZeroForMovieLabel(t *testing.T) {
	season, episode := parseSeasonEpisode("")
	require.Equal(t, 0, season)
	require.Equal(t, 0, episode)
}

func TestProcessMarksFoundWhenDirectTargetASSExists(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Wanted.Upsert(store.UpsertWantedInput{
		FilePath:       "/media/show/S01E01.mkv",
		TargetLanguage: "fr",
		SubtitleType:   store.SubtitleTypeFull,
		ItemType:       "episode",
		Title:          "Show",
		SeasonEpisodeLabel: "S01E01",
	})
	require.NoError(t, err)

	providers := &fakeProviders{candidates: map[string][]providermanager.Scored{
		"ass": {candidate("opensubtitles", "ass")},
	}}
	tr := newTestTranslator(providers)
	p := New(s, providers, tr, nil, DefaultConfig(), zerolog.Nop())

	item, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.NoError(t, p.Process(context.Background(), item))

	updated, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.Equal(t, store.WantedStatusFound, updated.Status)
}

func TestProcessRetriesThenFailsAfterMaxAttempts(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Wanted.Upsert(store.UpsertWantedInput{
		FilePath:       "/media/show/S01E02.mkv",
		TargetLanguage: "fr",
		SubtitleType:   store.SubtitleTypeFull,
		ItemType:       "episode",
		Title:          "Show",
		SeasonEpisodeLabel: "S01E02",
	})
	require.NoError(t, err)

	providers := &fakeProviders{}
	tr := newTestTranslator(providers)
	cfg := DefaultConfig()
	cfg.MaxSearchAttempts = 2
	p := New(s, providers, tr, nil, cfg, zerolog.Nop())

	item, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.NoError(t, p.Process(context.Background(), item))

	afterFirst, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.Equal(t, store.WantedStatusWanted, afterFirst.Status)
	require.NotNil(t, afterFirst.RetryAfter)

	require.NoError(t, p.Process(context.Background(), afterFirst))

	afterSecond, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.Equal(t, store.WantedStatusFailed, afterSecond.Status)
}

func TestUpgradeCandidateRejectedWhenScoreDeltaTooSmall(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Wanted.Upsert(store.UpsertWantedInput{
		FilePath:           "/media/show/S01E04.mkv",
		TargetLanguage:     "fr",
		SubtitleType:       store.SubtitleTypeFull,
		ItemType:           "episode",
		Title:              "Show",
		SeasonEpisodeLabel: "S01E04",
		ExistingSub:        store.ExistingSubASS,
		UpgradeCandidate:   true,
		CurrentScore:       290,
	})
	require.NoError(t, err)

	providers := &fakeProviders{candidates: map[string][]providermanager.Scored{
		"ass": {candidate("opensubtitles", "ass")}, // scored 300: delta of 10, below the default 50 threshold
	}}
	tr := newTestTranslator(providers)
	cfg := DefaultConfig()
	cfg.PreferASS = false
	p := New(s, providers, tr, nil, cfg, zerolog.Nop())

	item, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.NoError(t, p.Process(context.Background(), item))

	updated, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.NotEqual(t, store.WantedStatusFound, updated.Status)
}

func TestForcedModeDownloadsOnlyNoTranslation(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Wanted.Upsert(store.UpsertWantedInput{
		FilePath:       "/media/show/S01E03.mkv",
		TargetLanguage: "fr",
		SubtitleType:   store.SubtitleTypeForced,
		ItemType:       "episode",
		Title:          "Show",
		SeasonEpisodeLabel: "S01E03",
	})
	require.NoError(t, err)

	providers := &fakeProviders{candidates: map[string][]providermanager.Scored{
		"srt": {candidate("subdl", "srt")},
	}}
	tr := newTestTranslator(providers)
	p := New(s, providers, tr, nil, DefaultConfig(), zerolog.Nop())

	item, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.NoError(t, p.Process(context.Background(), item))

	updated, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.Equal(t, store.WantedStatusFound, updated.Status)
}
