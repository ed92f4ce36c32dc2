package scanner

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/integrations"
	"github.com/sublarr/sublarr/internal/scorer"
	"github.com/sublarr/sublarr/internal/store"
	"github.com/sublarr/sublarr/internal/translator"
)

// Scanner runs the library scan loop (spec §4.8): for every enabled source,
// enumerate items with a video file and upsert a WantedItem per
// (item, target_language) pair missing an acceptable on-disk subtitle.
// Grounded on original_source/backend/wanted_scanner.py's scan_all/_cleanup
// shape; the non-reentrant guard mirrors its threading.Lock(blocking=False)
// acquire-or-skip idiom via an atomic flag instead of a real mutex, since the
// desired behavior is "refuse", never "wait".
type Scanner struct {
	st         *store.Store
	sourcesMu  sync.RWMutex
	sources    []LibrarySource
	prober     translator.Prober // nil disables embedded-stream probing
	cfg        Config
	log        zerolog.Logger

	running atomic.Bool
	ticker  *time.Ticker
	stop    chan struct{}
}

func New(st *store.Store, sources []LibrarySource, prober translator.Prober, cfg Config, log zerolog.Logger) *Scanner {
	return &Scanner{
		st:      st,
		sources: sources,
		prober:  prober,
		cfg:     cfg,
		log:     log.With().Str("component", "scanner").Logger(),
		stop:    make(chan struct{}),
	}
}

// Start begins periodic ticking; Interval==0 disables it entirely, matching
// spec §4.8 "configurable intervals (zero means disabled)".
func (s *Scanner) Start(ctx context.Context) {
	if s.cfg.RunOnStart {
		go s.Run(ctx)
	}
	if s.cfg.ScanInterval <= 0 {
		return
	}
	s.ticker = time.NewTicker(s.cfg.ScanInterval)
	go func() {
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-s.ticker.C:
				s.Run(ctx)
			}
		}
	}()
}

// Stop cancels the scheduled ticker (spec §4.8 "graceful teardown").
func (s *Scanner) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stop)
}

// Sources returns a snapshot of the currently registered sources, used by
// the standalone-mode API to list watched folders/integrations.
func (s *Scanner) Sources() []LibrarySource {
	s.sourcesMu.RLock()
	defer s.sourcesMu.RUnlock()
	out := make([]LibrarySource, len(s.sources))
	copy(out, s.sources)
	return out
}

// AddSource registers a new LibrarySource at runtime (spec §6 standalone
// mode "CRUD on watched folders"), taking effect on the next Run.
func (s *Scanner) AddSource(src LibrarySource) {
	s.sourcesMu.Lock()
	defer s.sourcesMu.Unlock()
	s.sources = append(s.sources, src)
}

// RemoveSource drops the source with the given name, if present, and
// reports whether anything was removed.
func (s *Scanner) RemoveSource(name string) bool {
	s.sourcesMu.Lock()
	defer s.sourcesMu.Unlock()
	for i, src := range s.sources {
		if src.Name() == name {
			s.sources = append(s.sources[:i], s.sources[i+1:]...)
			return true
		}
	}
	return false
}

// Summary is the scan-loop result, mirroring the original's scan_all dict.
type Summary struct {
	SourcesScanned int
	ItemsSeen      int
	WantedAdded    int
	WantedUpdated  int
	WantedRemoved  int
	Duration       time.Duration
	Skipped        bool
}

// Run executes one scan pass. A second concurrent call no-ops (returns
// Summary{Skipped: true}) rather than queuing.
func (s *Scanner) Run(ctx context.Context) Summary {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Msg("scan already running, skipping")
		return Summary{Skipped: true}
	}
	defer s.running.Store(false)

	start := time.Now()
	var out Summary
	scannedKeys := make(map[string]bool)

	s.sourcesMu.RLock()
	sources := make([]LibrarySource, len(s.sources))
	copy(sources, s.sources)
	s.sourcesMu.RUnlock()

	for _, src := range sources {
		items, err := src.ListItems(ctx)
		if err != nil {
			s.log.Error().Str("source", src.Name()).Err(err).Msg("listing items failed")
			continue
		}
		out.SourcesScanned++

		for _, item := range items {
			if !item.HasFile || item.FilePath == "" {
				continue
			}
			out.ItemsSeen++

			targets, fallback := s.resolveTargets(item)
			for _, lang := range targets {
				added, updated := s.upsertForLanguage(item, lang, fallback)
				if added {
					out.WantedAdded++
				} else if updated {
					out.WantedUpdated++
				}
				scannedKeys[wantedKey(item.FilePath, lang)] = true
			}
		}
	}

	removed, err := s.st.Wanted.PurgeVanished(func(w store.WantedItem) bool {
		if _, err := os.Stat(w.FilePath); err != nil {
			return true
		}
		if !scannedKeys[wantedKey(w.FilePath, w.TargetLanguage)] && len(scannedKeys) > 0 {
			// Owning item no longer enumerated by any source this pass.
			return true
		}
		existing, _ := existingSubtitle(w.FilePath, w.TargetLanguage, w.SubtitleType == store.SubtitleTypeForced)
		return existing == store.ExistingSubASS
	})
	if err != nil {
		s.log.Error().Err(err).Msg("purging vanished wanted items failed")
	} else {
		out.WantedRemoved = removed
	}

	out.Duration = time.Since(start)
	s.log.Info().
		Int("sources", out.SourcesScanned).
		Int("items", out.ItemsSeen).
		Int("added", out.WantedAdded).
		Int("updated", out.WantedUpdated).
		Int("removed", out.WantedRemoved).
		Dur("duration", out.Duration).
		Msg("scan complete")
	return out
}

func wantedKey(filePath, lang string) string {
	return filePath + "\x00" + lang
}

// resolveTargets returns the target languages an item's effective
// LanguageProfile names, plus the fallback chain to attach to new rows
// (carried as descriptive context only; the pipeline re-resolves its own
// source/fallback at process time via store.Profiles).
func (s *Scanner) resolveTargets(item integrations.LibraryItem) (targets []string, fallback []string) {
	entityID := item.EntityID
	profile, ok, err := s.st.Profiles.ProfileForEntity(entityID)
	if err != nil || !ok {
		return s.cfg.DefaultTargetLanguages, nil
	}
	return profile.TargetLangs, profile.FallbackChain
}

func (s *Scanner) upsertForLanguage(item integrations.LibraryItem, lang string, fallback []string) (added, updated bool) {
	existing, _ := existingSubtitle(item.FilePath, lang, false)
	if existing == store.ExistingSubASS {
		return false, false // acceptable subtitle already present
	}

	if existing == store.ExistingSubNone && s.cfg.ProbeEmbedded && s.prober != nil {
		if streams, err := s.prober.Streams(context.Background(), item.FilePath); err == nil {
			for _, stream := range streams {
				if strings.EqualFold(stream.Language, lang) {
					if stream.Format == "ass" {
						return false, false
					}
					existing = store.ExistingSubEmbeddedSRT
				}
			}
		}
	}

	currentScore := 0
	upgradeCandidate := false
	if existing != store.ExistingSubNone && s.cfg.UpgradeDetection {
		currentScore = s.scoreExisting(item, lang)
		upgradeCandidate = true
	}

	itemType, seasonEpisode, seriesID, movieID := classify(item)

	id, err := s.st.Wanted.Upsert(store.UpsertWantedInput{
		FilePath:           item.FilePath,
		TargetLanguage:     lang,
		SubtitleType:       store.SubtitleTypeFull,
		ItemType:           itemType,
		Title:              item.Title,
		SeasonEpisodeLabel: seasonEpisode,
		SeriesID:           seriesID,
		MovieID:            movieID,
		ExistingSub:        existing,
		UpgradeCandidate:   upgradeCandidate,
		CurrentScore:       currentScore,
	})
	if err != nil {
		s.log.Error().Str("file_path", item.FilePath).Err(err).Msg("upserting wanted item failed")
		return false, false
	}

	prior, err := s.st.Wanted.Get(id)
	if err == nil && prior.SearchCount == 0 && prior.Status == store.WantedStatusWanted {
		return true, false
	}
	return false, true
}

// scoreExisting scores the existing on-disk subtitle as a synthetic
// candidate (its release-string signal is the video filename itself, the
// only release-like data available for a file already on disk).
func (s *Scanner) scoreExisting(item integrations.LibraryItem, lang string) int {
	query := buildQuery(item, lang)
	candidate := candidateFromFile(item)
	return scorer.Score(scorer.DefaultWeights(), candidate, query, 0)
}
