// Package translator implements the four-case subtitle translation
// waterfall (spec §4.6): given a video file and a target language, decide
// whether a target subtitle already exists, upgrade an existing SRT to ASS
// when possible, or run the full source-to-target translation pipeline.
// Grounded on original_source/backend/translator.py's translate_file, with
// ASS/SRT mechanics adapted from the teacher's pkg/subs.Subtitles wrapper.
package translator

import (
	"context"

	"github.com/sublarr/sublarr/internal/providermanager"
	"github.com/sublarr/sublarr/internal/providerregistry"
	"github.com/sublarr/sublarr/internal/translationmanager"
	"github.com/sublarr/sublarr/pkg/subsutil"
)

// Prober is the media-inspection dependency translator needs: the list of
// subtitle streams embedded in a video file. Implemented by internal/ffprobe.
type Prober interface {
	Streams(ctx context.Context, videoPath string) ([]subsutil.StreamInfo, error)
}

// StreamExtractor pulls the raw bytes of one embedded subtitle stream out
// of a video container. Implemented by internal/ffprobe via an ffmpeg call.
type StreamExtractor interface {
	Extract(ctx context.Context, videoPath string, stream subsutil.StreamInfo) ([]byte, error)
}

// Case identifies which branch of the waterfall produced a Result, purely
// for logging/observability — never branched on by callers.
type Case string

const (
	CaseA          Case = "target_exists"
	CaseBUpgraded  Case = "upgraded_srt_to_ass"
	CaseBNoUpgrade Case = "kept_existing_srt"
	CaseCSourceASS Case = "translated_source_ass"
	CaseCSourceSRT Case = "translated_source_srt"
	CaseCProvider  Case = "translated_provider_source"
	CaseDWhisper   Case = "whisper_pending"
	CaseFailed     Case = "failed"
)

// Request describes one translation job.
type Request struct {
	VideoPath          string
	Query              providerregistry.VideoQuery // identifying metadata for provider search (Case B1/C3)
	TargetLanguage     string
	TargetLanguageName string
	SourceLanguage     string
	Forced             bool
	BackendChain       []string
	Glossary           []translationmanager.GlossaryEntry
	SkipSRTOnNoASS     bool // spec §4.6 optimization: don't bother with SRT if no ASS source exists and provider search for ASS already failed
	Force              bool // bypass "target already exists" short-circuit
	ExistingScore      int  // score of the target SRT Case B found, if known; feeds the upgrade-history record
}

// Result is what every waterfall case returns. Success=true with an empty
// OutputPath means "nothing to do" (Case A or B3); Success=true with a
// non-empty WhisperJobID means Case D queued a transcription job instead of
// translating directly.
type Result struct {
	Case          Case
	Success       bool
	Skipped       bool
	OutputPath    string
	WhisperJobID  string
	Backend       string
	Warnings      []string
	Error         string
}

// ProviderSearch is the subset of providermanager.Manager the waterfall
// calls for Case B1/C3's provider fallback.
type ProviderSearch interface {
	Search(ctx context.Context, query providerregistry.VideoQuery, formatFilter string, minScore int) ([]providermanager.Scored, error)
	SearchAndDownloadBest(ctx context.Context, query providerregistry.VideoQuery, formatFilter string, minScore int) (*providermanager.Scored, []byte, error)
	SaveSubtitle(result providermanager.Scored, data []byte, basePath string, language string, forced bool) (string, error)
}

// WhisperSubmitter is the optional last-resort dependency for Case D.
// nil means Whisper transcription is disabled.
type WhisperSubmitter interface {
	Submit(ctx context.Context, videoPath, sourceLanguage string) (jobID string, err error)
}
