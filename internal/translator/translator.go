package translator

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/store"
	"github.com/sublarr/sublarr/internal/translationmanager"
)

// Translator runs the four-case waterfall for one video file (spec §4.6).
// It owns no state across calls — every dependency needed per-request is
// passed in on the Translator struct at construction time.
type Translator struct {
	prober      Prober
	extractor   StreamExtractor
	providers   ProviderSearch
	translation *translationmanager.Manager
	whisper     WhisperSubmitter
	history     *store.HistoryRepo // may be nil: upgrade-history recording is best-effort
	log         zerolog.Logger
}

func New(prober Prober, extractor StreamExtractor, providers ProviderSearch, translation *translationmanager.Manager, whisper WhisperSubmitter, history *store.HistoryRepo, log zerolog.Logger) *Translator {
	return &Translator{
		prober:      prober,
		extractor:   extractor,
		providers:   providers,
		translation: translation,
		whisper:     whisper,
		history:     history,
		log:         log.With().Str("component", "translator").Logger(),
	}
}

// Translate runs the waterfall against one Request. It never panics or
// returns a raw backend error to the caller — every failure path is folded
// into Result.Error with Success=false, matching the "never raise, read the
// field" convention the rest of the pipeline uses.
func (t *Translator) Translate(ctx context.Context, req Request) Result {
	sourceTags := languageTagSet(req.SourceLanguage)
	targetTags := languageTagSet(req.TargetLanguage)

	// === Case A: target already exists ===
	if !req.Force {
		switch existingTargetFormat(ctx, req.VideoPath, req.TargetLanguage, req.Forced, t.prober) {
		case "ass":
			return Result{Case: CaseA, Success: true, Skipped: true}
		case "srt":
			return t.upgradeFromSRT(ctx, req, sourceTags, targetTags)
		}
	}

	return t.fullPipeline(ctx, req, sourceTags, targetTags)
}

// upgradeFromSRT implements Case B: a target-language SRT already exists,
// so try to upgrade to ASS via provider search, then via translating an
// embedded source ASS stream; otherwise keep the existing SRT.
func (t *Translator) upgradeFromSRT(ctx context.Context, req Request, sourceTags, targetTags map[string]bool) Result {
	out := outputPath(req.VideoPath, req.TargetLanguage, "ass", req.Forced)

	oldSRT := outputPath(req.VideoPath, req.TargetLanguage, "srt", req.Forced)

	// B1: provider search for target-language ASS.
	if t.providers != nil {
		query := req.Query
		query.TargetLanguage = req.TargetLanguage
		if best, data, err := t.providers.SearchAndDownloadBest(ctx, query, "ass", 0); err == nil && best != nil {
			if path, err := t.providers.SaveSubtitle(*best, data, req.VideoPath, req.TargetLanguage, req.Forced); err == nil {
				t.recordUpgrade(oldSRT, path, req.ExistingScore, best.Score, "provider search found target-language ass")
				return Result{Case: CaseBUpgraded, Success: true, OutputPath: path, Backend: "provider:" + best.Candidate.ProviderName}
			}
		}
	}

	// B2: embedded source ASS → translate.
	if stream, ok := selectSourceStream(ctx, req.VideoPath, "ass", sourceTags, targetTags, t.prober); ok && t.extractor != nil {
		content, err := t.extractor.Extract(ctx, req.VideoPath, stream)
		if err == nil {
			if err := checkDiskSpace(out); err != nil {
				return Result{Case: CaseFailed, Success: false, Error: err.Error()}
			}
			warnings, err := t.translateASS(ctx, content, req.SourceLanguage, req.TargetLanguage, req.BackendChain, req.Glossary, out)
			if err == nil {
				t.recordUpgrade(oldSRT, out, req.ExistingScore, 0, "embedded source ass translated to target")
				return Result{Case: CaseBUpgraded, Success: true, OutputPath: out, Warnings: warnings}
			}
			t.log.Warn().Err(err).Str("video", req.VideoPath).Msg("case B2 ass upgrade failed")
		}
	}

	// B3: no upgrade possible, existing SRT stands.
	return Result{Case: CaseBNoUpgrade, Success: true, Skipped: true}
}

// recordUpgrade removes the superseded target-language SRT (and its
// quality-metadata sidecar) and logs an UpgradeRecord, both best-effort: a
// missing old file or an unavailable store must never fail the upgrade that
// already succeeded.
func (t *Translator) recordUpgrade(oldPath, newPath string, oldScore, newScore int, reason string) {
	if oldPath != newPath {
		_ = os.Remove(oldPath)
		_ = os.Remove(oldPath + ".quality.json")
	}
	if t.history == nil {
		return
	}
	_ = t.history.RecordUpgrade(store.UpgradeRecord{
		FilePath:  newPath,
		OldFormat: "srt",
		OldScore:  oldScore,
		NewFormat: "ass",
		NewScore:  newScore,
		Reason:    reason,
	})
}

// fullPipeline implements Case C (and the Case D fallthrough): no target
// subtitle exists at all, so find any source-language subtitle — embedded
// ASS, embedded SRT, external file, or a provider — and translate it.
func (t *Translator) fullPipeline(ctx context.Context, req Request, sourceTags, targetTags map[string]bool) Result {
	// C1/C2: embedded source stream, ASS preferred over SRT.
	if stream, ok := selectSourceStream(ctx, req.VideoPath, "", sourceTags, targetTags, t.prober); ok && t.extractor != nil {
		content, err := t.extractor.Extract(ctx, req.VideoPath, stream)
		if err == nil {
			if stream.Format == "ass" {
				out := outputPath(req.VideoPath, req.TargetLanguage, "ass", req.Forced)
				if err := checkDiskSpace(out); err != nil {
					return Result{Case: CaseFailed, Success: false, Error: err.Error()}
				}
				warnings, err := t.translateASS(ctx, content, req.SourceLanguage, req.TargetLanguage, req.BackendChain, req.Glossary, out)
				if err == nil {
					return Result{Case: CaseCSourceASS, Success: true, OutputPath: out, Warnings: warnings}
				}
				t.log.Warn().Err(err).Str("video", req.VideoPath).Msg("case C1 ass translation failed")
			} else if !req.SkipSRTOnNoASS {
				out := outputPath(req.VideoPath, req.TargetLanguage, "srt", req.Forced)
				if err := checkDiskSpace(out); err != nil {
					return Result{Case: CaseFailed, Success: false, Error: err.Error()}
				}
				warnings, err := t.translateSRT(ctx, content, req.SourceLanguage, req.TargetLanguage, req.BackendChain, req.Glossary, out)
				if err == nil {
					return Result{Case: CaseCSourceSRT, Success: true, OutputPath: out, Warnings: warnings}
				}
				t.log.Warn().Err(err).Str("video", req.VideoPath).Msg("case C2 srt translation failed")
			}
		}
	}

	// C2b: external source subtitle file next to the video.
	if path, format := findExternalSourceSub(req.VideoPath, languageTags(req.SourceLanguage)); path != "" {
		content, err := readFile(path)
		if err == nil {
			out := outputPath(req.VideoPath, req.TargetLanguage, format, req.Forced)
			if err := checkDiskSpace(out); err == nil {
				var warnings []string
				var translateErr error
				if format == "ass" {
					warnings, translateErr = t.translateASS(ctx, content, req.SourceLanguage, req.TargetLanguage, req.BackendChain, req.Glossary, out)
				} else {
					warnings, translateErr = t.translateSRT(ctx, content, req.SourceLanguage, req.TargetLanguage, req.BackendChain, req.Glossary, out)
				}
				if translateErr == nil {
					caseTag := CaseCSourceSRT
					if format == "ass" {
						caseTag = CaseCSourceASS
					}
					return Result{Case: caseTag, Success: true, OutputPath: out, Warnings: warnings}
				}
				t.log.Warn().Err(translateErr).Str("video", req.VideoPath).Msg("case C2b external subtitle translation failed")
			}
		}
	}

	// C3: provider search for a source-language subtitle to translate.
	if t.providers != nil {
		query := req.Query
		query.TargetLanguage = req.SourceLanguage
		if best, data, err := t.providers.SearchAndDownloadBest(ctx, query, "", 0); err == nil && best != nil {
			format := best.Candidate.Format
			if format != "ass" {
				format = "srt"
			}
			out := outputPath(req.VideoPath, req.TargetLanguage, format, req.Forced)
			if err := checkDiskSpace(out); err == nil {
				var warnings []string
				var translateErr error
				if format == "ass" {
					warnings, translateErr = t.translateASS(ctx, data, req.SourceLanguage, req.TargetLanguage, req.BackendChain, req.Glossary, out)
				} else {
					warnings, translateErr = t.translateSRT(ctx, data, req.SourceLanguage, req.TargetLanguage, req.BackendChain, req.Glossary, out)
				}
				if translateErr == nil {
					return Result{Case: CaseCProvider, Success: true, OutputPath: out, Warnings: warnings, Backend: "provider:" + best.Candidate.ProviderName}
				}
				t.log.Warn().Err(translateErr).Str("video", req.VideoPath).Msg("case C3 provider source translation failed")
			}
		}
	}

	// C4 → Case D: nothing found, last resort is Whisper transcription.
	if t.whisper != nil {
		jobID, err := t.whisper.Submit(ctx, req.VideoPath, req.SourceLanguage)
		if err == nil {
			return Result{Case: CaseDWhisper, Success: true, WhisperJobID: jobID}
		}
		t.log.Warn().Err(err).Str("video", req.VideoPath).Msg("case D whisper submission failed")
	}

	return Result{Case: CaseFailed, Success: false, Error: fmt.Sprintf("no %s subtitle source found for %s", req.SourceLanguage, req.VideoPath)}
}
