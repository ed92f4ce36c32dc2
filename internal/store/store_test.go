package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sublarr.db")
	s, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWantedUpsertInsertsNewRow(t *testing.T) {
	s := openTestStore(t)
	id, err := s.Wanted.Upsert(UpsertWantedInput{
		FilePath:       "/media/show/s01e01.mkv",
		TargetLanguage: "fr",
		SubtitleType:   SubtitleTypeFull,
		ItemType:       "episode",
		Title:          "Show",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	item, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.Equal(t, WantedStatusWanted, item.Status)
	require.Equal(t, "fr", item.TargetLanguage)
}

func TestWantedUpsertPreservesIgnoredStatus(t *testing.T) {
	s := openTestStore(t)
	input := UpsertWantedInput{
		FilePath:       "/media/show/s01e02.mkv",
		TargetLanguage: "es",
		SubtitleType:   SubtitleTypeFull,
		ItemType:       "episode",
		Title:          "Show",
	}
	id, err := s.Wanted.Upsert(input)
	require.NoError(t, err)
	require.NoError(t, s.Wanted.SetIgnored(id, true))

	input.CurrentScore = 250
	gotID, err := s.Wanted.Upsert(input)
	require.NoError(t, err)
	require.Equal(t, id, gotID)

	item, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.Equal(t, WantedStatusIgnored, item.Status)
	require.Equal(t, 250, item.CurrentScore)
}

func TestWantedUpsertRevivesNonIgnoredRow(t *testing.T) {
	s := openTestStore(t)
	input := UpsertWantedInput{
		FilePath:       "/media/show/s01e03.mkv",
		TargetLanguage: "de",
		SubtitleType:   SubtitleTypeFull,
		ItemType:       "episode",
	}
	id, err := s.Wanted.Upsert(input)
	require.NoError(t, err)
	require.NoError(t, s.Wanted.MarkFailed(id, "no candidates"))

	gotID, err := s.Wanted.Upsert(input)
	require.NoError(t, err)
	require.Equal(t, id, gotID)

	item, err := s.Wanted.Get(id)
	require.NoError(t, err)
	require.Equal(t, WantedStatusWanted, item.Status)
}

func TestWantedListSearchableRespectsMaxAttemptsAndAge(t *testing.T) {
	s := openTestStore(t)
	id, err := s.Wanted.Upsert(UpsertWantedInput{
		FilePath:       "/media/show/s01e04.mkv",
		TargetLanguage: "fr",
		SubtitleType:   SubtitleTypeFull,
		ItemType:       "episode",
	})
	require.NoError(t, err)

	items, err := s.Wanted.ListSearchable(10, time.Hour, 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, id, items[0].ID)

	require.NoError(t, s.Wanted.MarkSearching(id))
	items, err = s.Wanted.ListSearchable(10, time.Hour, 50)
	require.NoError(t, err)
	require.Empty(t, items, "just-searched item should not be searchable again within minAge")
}

func TestProviderStatsAutoDisablesAfterThreshold(t *testing.T) {
	s := openTestStore(t)
	const provider = "opensubtitles"
	for i := 0; i < 5; i++ {
		require.NoError(t, s.ProviderStats.RecordFailure(provider, 5, time.Minute))
	}
	available, err := s.ProviderStats.IsAvailable(provider)
	require.NoError(t, err)
	require.False(t, available)

	require.NoError(t, s.ProviderStats.RecordSuccess(provider, 900))
	available, err = s.ProviderStats.IsAvailable(provider)
	require.NoError(t, err)
	require.True(t, available)
}

func TestProviderStatsRunningAverage(t *testing.T) {
	s := openTestStore(t)
	const provider = "jimaku"
	require.NoError(t, s.ProviderStats.RecordSuccess(provider, 800))
	require.NoError(t, s.ProviderStats.RecordSuccess(provider, 1000))

	stats, err := s.ProviderStats.Get(provider)
	require.NoError(t, err)
	require.Equal(t, 2, stats.SuccessfulDownloads)
	require.InDelta(t, 900, stats.AvgScore, 0.01)
}

func TestProviderCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	hash := QueryHash("show|1|1|fr")
	_, ok, err := s.ProviderCache.Get("opensubtitles", hash)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.ProviderCache.Put("opensubtitles", hash, `[{"id":"1"}]`, time.Minute))
	results, ok, err := s.ProviderCache.Get("opensubtitles", hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `[{"id":"1"}]`, results)
}

func TestTranslationMemoryExactAndFuzzy(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.TranslationMemory.Save("en", "fr", "Hello there!", "Bonjour !"))

	translated, ok, err := s.TranslationMemory.GetExact("en", "fr", "Hello there!")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Bonjour !", translated)

	translated, sim, ok, err := s.TranslationMemory.FuzzyMatch("en", "fr", "Hello there", 0.8)
	require.NoError(t, err)
	require.True(t, ok)
	require.Greater(t, sim, 0.8)
	require.Equal(t, "Bonjour !", translated)
}

func TestGlossaryCapsByRecency(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < maxEntriesPerSeries+5; i++ {
		_, err := s.Glossary.Upsert("series-1", time.Now().Format(time.RFC3339Nano), "term", "")
		require.NoError(t, err)
	}
	entries, err := s.Glossary.ForSeries("series-1")
	require.NoError(t, err)
	require.LessOrEqual(t, len(entries), maxEntriesPerSeries)
}

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Jobs.Create("job-1", "/media/show/s01e01.mkv", "hash-a"))
	require.NoError(t, s.Jobs.MarkRunning("job-1"))
	require.NoError(t, s.Jobs.MarkCompleted("job-1", "/media/show/s01e01.fr.ass", `{"chars":120}`))

	job, err := s.Jobs.Get("job-1")
	require.NoError(t, err)
	require.Equal(t, JobStatusCompleted, job.Status)

	outdated, err := s.Jobs.IsOutdated("job-1", "hash-b")
	require.NoError(t, err)
	require.True(t, outdated)
}

func TestLanguageProfileAssignment(t *testing.T) {
	s := openTestStore(t)
	id, err := s.Profiles.Create(LanguageProfile{
		Name:             "anime-default",
		SourceLang:       "ja",
		TargetLangs:      []string{"en", "fr"},
		FallbackChain:    []string{"local_llm", "deepl"},
		ForcedPreference: "preferred",
	})
	require.NoError(t, err)
	require.NoError(t, s.Profiles.AssignEntity("series-42", id))

	profile, ok, err := s.Profiles.ProfileForEntity("series-42")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "anime-default", profile.Name)
	require.Equal(t, []string{"en", "fr"}, profile.TargetLangs)
}
