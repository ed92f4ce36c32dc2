package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sublarr/sublarr/internal/integrations"
	"github.com/sublarr/sublarr/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sublarr.db")
	s, err := store.Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type fakeSource struct {
	name  string
	items []integrations.LibraryItem
	err   error
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) ListItems(ctx context.Context) ([]integrations.LibraryItem, error) {
	return f.items, f.err
}

func writeVideoFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("fake video"), 0o644))
	return path
}

func TestScanAddsWantedItemWhenNoSubtitleExists(t *testing.T) {
	dir := t.TempDir()
	video := writeVideoFile(t, dir, "Show.S01E01.mkv")
	s := openTestStore(t)

	cfg := DefaultConfig()
	cfg.RunOnStart = false
	cfg.DefaultTargetLanguages = []string{"fr"}
	sc := New(s, []LibrarySource{&fakeSource{name: "test", items: []integrations.LibraryItem{
		{EntityID: "1", Title: "Show", Season: 1, Episode: 1, FilePath: video, HasFile: true},
	}}}, nil, cfg, zerolog.Nop())

	summary := sc.Run(context.Background())
	require.False(t, summary.Skipped)
	require.Equal(t, 1, summary.WantedAdded)

	items, err := s.Wanted.List(store.ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "fr", items[0].TargetLanguage)
	require.Equal(t, "episode", items[0].ItemType)
}

func TestScanSkipsWhenTargetASSAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	video := writeVideoFile(t, dir, "Movie.mkv")
	assPath := video[:len(video)-len(filepath.Ext(video))] + ".fr.ass"
	require.NoError(t, os.WriteFile(assPath, []byte("[Script Info]"), 0o644))

	s := openTestStore(t)
	cfg := DefaultConfig()
	cfg.RunOnStart = false
	cfg.DefaultTargetLanguages = []string{"fr"}
	sc := New(s, []LibrarySource{&fakeSource{name: "test", items: []integrations.LibraryItem{
		{EntityID: "1", Title: "Movie", FilePath: video, HasFile: true},
	}}}, nil, cfg, zerolog.Nop())

	summary := sc.Run(context.Background())
	require.Equal(t, 0, summary.WantedAdded)
}

func TestScanReportsSkippedOnConcurrentRun(t *testing.T) {
	s := openTestStore(t)
	cfg := DefaultConfig()
	cfg.RunOnStart = false
	sc := New(s, nil, nil, cfg, zerolog.Nop())
	sc.running.Store(true)

	summary := sc.Run(context.Background())
	require.True(t, summary.Skipped)
}

type fakeProcessor struct {
	processed []int64
	err       error
}

func (f *fakeProcessor) Process(ctx context.Context, item store.WantedItem) error {
	f.processed = append(f.processed, item.ID)
	return f.err
}

func TestSearchLoopProcessesEligibleItems(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Wanted.Upsert(store.UpsertWantedInput{
		FilePath: "/media/a.mkv", TargetLanguage: "fr", SubtitleType: store.SubtitleTypeFull, ItemType: "movie", Title: "A",
	})
	require.NoError(t, err)

	proc := &fakeProcessor{}
	cfg := DefaultConfig()
	cfg.RunOnStart = false
	cfg.SearchPause = 0
	loop := NewSearchLoop(s, proc, cfg, zerolog.Nop())

	n, skipped := loop.Run(context.Background())
	require.False(t, skipped)
	require.Equal(t, 1, n)
	require.Len(t, proc.processed, 1)
}

func TestSearchLoopSkipsOnConcurrentRun(t *testing.T) {
	s := openTestStore(t)
	proc := &fakeProcessor{}
	cfg := DefaultConfig()
	cfg.RunOnStart = false
	loop := NewSearchLoop(s, proc, cfg, zerolog.Nop())
	loop.running.Store(true)

	_, skipped := loop.Run(context.Background())
	require.True(t, skipped)
}

func TestWebhookPipelineRunsNotifyPhaseWhenEnabled(t *testing.T) {
	s := openTestStore(t)
	cfg := DefaultConfig()
	cfg.RunOnStart = false
	sc := New(s, nil, nil, cfg, zerolog.Nop())
	loop := NewSearchLoop(s, &fakeProcessor{}, cfg, zerolog.Nop())

	notified := false
	wcfg := WebhookConfig{ScanEnabled: true, WantedEnabled: true, NotifyEnabled: true}
	p := NewWebhookPipeline(sc, loop, func(ctx context.Context) error {
		notified = true
		return nil
	}, wcfg, zerolog.Nop())

	p.Handle(context.Background(), WebhookEvent{EntityID: "1", ItemType: "movie"})
	require.True(t, notified)
}

func TestWebhookPipelineNeverPropagatesNotifyFailure(t *testing.T) {
	wcfg := WebhookConfig{NotifyEnabled: true}
	p := NewWebhookPipeline(nil, nil, func(ctx context.Context) error {
		return errors.New("media server unreachable")
	}, wcfg, zerolog.Nop())

	require.NotPanics(t, func() {
		p.Handle(context.Background(), WebhookEvent{EntityID: "1"})
	})
}

func TestParseFilenameItemExtractsSeasonEpisode(t *testing.T) {
	item := parseFilenameItem("/media/Show Name.S02E05.mkv")
	require.Equal(t, 2, item.Season)
	require.Equal(t, 5, item.Episode)
	require.Equal(t, "Show Name", item.Title)
}

func TestParseFilenameItemExtractsYearForMovie(t *testing.T) {
	item := parseFilenameItem("/media/Some Movie (2019).mkv")
	require.Equal(t, 2019, item.Year)
	require.Equal(t, "Some Movie", item.Title)
}

func TestWatchedFolderSourceListsVideoFiles(t *testing.T) {
	dir := t.TempDir()
	writeVideoFile(t, dir, "a.mkv")
	writeVideoFile(t, dir, "notes.txt")

	src := NewWatchedFolderSource("local", dir, zerolog.Nop())
	items, err := src.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestWatchedFolderSourceFiresDebouncedCallback(t *testing.T) {
	dir := t.TempDir()
	src := NewWatchedFolderSource("local", dir, zerolog.Nop())

	fired := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, src.Watch(ctx, 50*time.Millisecond, func() { fired <- struct{}{} }))
	defer src.StopWatch()

	writeVideoFile(t, dir, "new.mkv")

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced callback never fired")
	}
}
