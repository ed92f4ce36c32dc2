package wantedpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/scorer"
	"github.com/sublarr/sublarr/internal/store"
	"github.com/sublarr/sublarr/internal/translator"
)

// Pipeline is the per-item orchestration façade: one Process call runs one
// WantedItem through the full spec §4.7 attempt sequence and leaves it in
// found/failed/wanted(+retry_after) status.
type Pipeline struct {
	store     *store.Store
	providers translator.ProviderSearch // same surface internal/providermanager.Manager exposes
	translate *translator.Translator
	notifier  LibraryNotifier // may be nil: rescan notification is best-effort
	cfg       Config
	log       zerolog.Logger
}

func New(st *store.Store, providers translator.ProviderSearch, tr *translator.Translator, notifier LibraryNotifier, cfg Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:     st,
		providers: providers,
		translate: tr,
		notifier:  notifier,
		cfg:       cfg,
		log:       log.With().Str("component", "wantedpipeline").Logger(),
	}
}

// Process drives a single WantedItem through one attempt. It returns an
// error only for infrastructure failures (store unavailable); ordinary
// misses are resolved into the item's own status/retry_after fields.
func (p *Pipeline) Process(ctx context.Context, item store.WantedItem) error {
	if err := p.store.Wanted.MarkSearching(item.ID); err != nil {
		return fmt.Errorf("marking searching: %w", err)
	}
	nextSearchCount := item.SearchCount + 1

	profile, sourceLang, chain := p.resolveProfile(item)

	var result outcome
	if item.SubtitleType == store.SubtitleTypeForced {
		result = p.runForced(ctx, item, sourceLang)
	} else {
		result = p.runFull(ctx, item, sourceLang, chain, profile)
	}

	switch result.status {
	case statusFound:
		if err := p.store.Wanted.MarkFound(item.ID); err != nil {
			return fmt.Errorf("marking found: %w", err)
		}
		p.notifyRescan(ctx, item)
		return nil
	case statusFailed:
		return p.store.Wanted.MarkFailed(item.ID, result.reason)
	default: // statusRetry
		if nextSearchCount >= p.cfg.MaxSearchAttempts {
			return p.store.Wanted.MarkFailed(item.ID, "max search attempts reached: "+result.reason)
		}
		retryAfter := time.Now().Add(backoffDuration(p.cfg, nextSearchCount))
		return p.store.Wanted.MarkRetry(item.ID, result.reason, retryAfter)
	}
}

// resolveProfile looks up the LanguageProfile assigned to the item's owning
// series/movie entity (spec "consults Store for profile"), falling back to
// source language "en" and a single-entry chain of "local_llm" when no
// profile is assigned.
func (p *Pipeline) resolveProfile(item store.WantedItem) (profile store.LanguageProfile, sourceLang string, chain []string) {
	entityID := item.SeriesID
	if entityID == "" {
		entityID = item.MovieID
	}
	if entityID != "" {
		if prof, ok, err := p.store.Profiles.ProfileForEntity(entityID); err == nil && ok {
			return prof, prof.SourceLang, prof.FallbackChain
		}
	}
	return store.LanguageProfile{}, "en", []string{"local_llm"}
}

func (p *Pipeline) notifyRescan(ctx context.Context, item store.WantedItem) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyRescan(ctx, item); err != nil {
		p.log.Warn().Int64("wanted_id", item.ID).Err(err).Msg("rescan notification failed")
	}
}

// runForced implements spec §4.7's forced-subtitle mode: download-only,
// trying ASS then SRT in the target language, then the source language.
func (p *Pipeline) runForced(ctx context.Context, item store.WantedItem, sourceLang string) outcome {
	attempts := []struct {
		language string
		format   string
	}{
		{item.TargetLanguage, "ass"},
		{item.TargetLanguage, "srt"},
		{sourceLang, "ass"},
		{sourceLang, "srt"},
	}

	for _, a := range attempts {
		if a.language == "" {
			continue
		}
		query := buildQuery(item, a.language, a.format, true)
		best, data, err := p.providers.SearchAndDownloadBest(ctx, query, a.format, p.cfg.MinScore)
		if err != nil {
			p.log.Warn().Int64("wanted_id", item.ID).Str("format", a.format).Err(err).Msg("forced search failed")
			continue
		}
		if best == nil {
			continue
		}
		outputPath, err := p.providers.SaveSubtitle(*best, data, item.FilePath, item.TargetLanguage, true)
		if err != nil {
			return retry(fmt.Sprintf("saving forced subtitle: %v", err))
		}
		return found(outputPath)
	}

	return failed("no forced subtitle found in target or source language")
}

// runFull implements spec §4.7's full-subtitle attempt order: direct
// target ASS, source ASS translated, direct target SRT, source SRT
// translated, then falls through to Translator for embedded/Whisper cases.
func (p *Pipeline) runFull(ctx context.Context, item store.WantedItem, sourceLang string, chain []string, profile store.LanguageProfile) outcome {
	noASSAtAll := true

	// 1. Direct target-language ASS.
	if hadAny, res, ok := p.tryDirectDownload(ctx, item, item.TargetLanguage, "ass", false); ok {
		return res
	} else if hadAny {
		noASSAtAll = false
	}

	// 2. Source-language ASS, translated to target ASS.
	if sourceLang != "" {
		if hadAny, res, ok := p.tryTranslatedDownload(ctx, item, sourceLang, "ass", chain, profile); ok {
			return res
		} else if hadAny {
			noASSAtAll = false
		}
	}

	if p.cfg.SkipSRTOnNoASS && noASSAtAll {
		p.log.Debug().Int64("wanted_id", item.ID).Msg("skipping SRT attempts: provider catalog has no ASS for this title")
	} else {
		// 3. Direct target-language SRT.
		if _, res, ok := p.tryDirectDownload(ctx, item, item.TargetLanguage, "srt", false); ok {
			return res
		}

		// 4. Source-language SRT, translated to target SRT.
		if sourceLang != "" {
			if _, res, ok := p.tryTranslatedDownload(ctx, item, sourceLang, "srt", chain, profile); ok {
				return res
			}
		}
	}

	// 5. Fall through to the Translator's own waterfall: embedded streams
	// (Cases B2, C1, C2, C2b) and Whisper (Case D).
	req := translator.Request{
		VideoPath:          item.FilePath,
		Query:              buildQuery(item, item.TargetLanguage, "", false),
		TargetLanguage:     item.TargetLanguage,
		TargetLanguageName: item.TargetLanguage,
		SourceLanguage:     sourceLang,
		Forced:             false,
		BackendChain:       chain,
		SkipSRTOnNoASS:     p.cfg.SkipSRTOnNoASS,
		ExistingScore:      item.CurrentScore,
	}
	res := p.translate.Translate(ctx, req)
	if res.Success {
		if res.Case == translator.CaseDWhisper {
			return found("") // queued, not yet on disk
		}
		return found(res.OutputPath)
	}
	return retry(strings.TrimSpace("translator waterfall exhausted: " + res.Error))
}

// tryDirectDownload searches for a candidate already in the target
// language and, if found, downloads and saves it directly (no
// translation). The bool "hadAny" return distinguishes "searched and found
// nothing at all" from "found but rejected/failed to save", which feeds
// the skip-SRT-on-no-ASS optimization.
func (p *Pipeline) tryDirectDownload(ctx context.Context, item store.WantedItem, language, format string, forcedOnly bool) (hadAny bool, result outcome, handled bool) {
	query := buildQuery(item, language, format, forcedOnly)
	scored, err := p.providers.Search(ctx, query, format, p.cfg.MinScore)
	if err != nil {
		p.log.Warn().Int64("wanted_id", item.ID).Str("format", format).Err(err).Msg("direct search failed")
		return false, outcome{}, false
	}
	if len(scored) == 0 {
		return false, outcome{}, false
	}

	best, data, err := p.providers.SearchAndDownloadBest(ctx, query, format, p.cfg.MinScore)
	if err != nil || best == nil {
		return true, outcome{}, false
	}

	// spec §4.7 step 1: when this item is marked an upgrade candidate, the
	// upgrade decision gates whether the existing subtitle is replaced at all.
	var oldPath string
	if item.UpgradeCandidate {
		oldFormat := string(item.ExistingSub)
		if item.ExistingSub != store.ExistingSubSRT && item.ExistingSub != store.ExistingSubASS {
			oldFormat = "srt"
		}
		oldPath = subtitlePath(item.FilePath, item.TargetLanguage, oldFormat, false)
		should, reason := scorer.ShouldUpgrade(oldFormat, item.CurrentScore, best.Candidate.Format, best.Score,
			p.cfg.PreferASS, p.cfg.MinScoreDelta, p.cfg.UpgradeWindowDays, fileAge(oldPath))
		if !should {
			p.log.Debug().Int64("wanted_id", item.ID).Str("reason", reason).Msg("upgrade rejected")
			return true, outcome{}, false
		}
	}

	outputPath, err := p.providers.SaveSubtitle(*best, data, item.FilePath, item.TargetLanguage, false)
	if err != nil {
		return true, retry(fmt.Sprintf("saving subtitle: %v", err)), true
	}

	if oldPath != "" && oldPath != outputPath {
		removeSidecar(oldPath)
		if p.store != nil {
			_ = p.store.History.RecordUpgrade(store.UpgradeRecord{
				FilePath:  outputPath,
				OldFormat: string(item.ExistingSub),
				OldScore:  item.CurrentScore,
				NewFormat: best.Candidate.Format,
				NewScore:  best.Score,
				Reason:    "direct download upgrade candidate",
			})
		}
	}

	return true, found(outputPath), true
}

// subtitlePath mirrors providermanager.Manager.SaveSubtitle's naming
// convention so an upgrade candidate's prior file can be located for removal.
func subtitlePath(basePath, language, format string, forced bool) string {
	suffix := language
	if forced {
		suffix += ".forced"
	}
	ext := filepath.Ext(basePath)
	stripped := basePath[:len(basePath)-len(ext)]
	return fmt.Sprintf("%s.%s.%s", stripped, suffix, format)
}

// fileAge returns how long ago path was last modified, or zero if it
// doesn't exist.
func fileAge(path string) time.Duration {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return time.Since(info.ModTime())
}

// removeSidecar deletes a superseded subtitle and its quality-metadata
// sidecar, best-effort: a missing file is not an error.
func removeSidecar(path string) {
	_ = os.Remove(path)
	_ = os.Remove(path + ".quality.json")
}

// tryTranslatedDownload checks that a source-language candidate of the
// given format actually exists, then delegates to the Translator's own
// Case C3 provider-source path (which performs the search, download, and
// translation as a single unit) rather than duplicating that sequence
// here. hadAny distinguishes "nothing at all in the provider catalog" from
// "found but translation failed", feeding the skip-SRT-on-no-ASS
// optimization.
func (p *Pipeline) tryTranslatedDownload(ctx context.Context, item store.WantedItem, sourceLang, format string, chain []string, profile store.LanguageProfile) (hadAny bool, result outcome, handled bool) {
	query := buildQuery(item, sourceLang, format, false)
	scored, err := p.providers.Search(ctx, query, format, p.cfg.MinScore)
	if err != nil {
		p.log.Warn().Int64("wanted_id", item.ID).Str("format", format).Err(err).Msg("source search failed")
		return false, outcome{}, false
	}
	if len(scored) == 0 {
		return false, outcome{}, false
	}

	req := translator.Request{
		VideoPath:          item.FilePath,
		Query:              buildQuery(item, item.TargetLanguage, format, false),
		TargetLanguage:     item.TargetLanguage,
		TargetLanguageName: item.TargetLanguage,
		SourceLanguage:     sourceLang,
		BackendChain:       chain,
		Force:              true,
	}
	res := p.translate.Translate(ctx, req)
	if res.Success {
		return true, found(res.OutputPath), true
	}
	return true, outcome{}, false
}
