// Package translationmanager is the TranslationManager of spec §4.5: a
// registry of translation backends with a fallback chain, per-backend
// circuit breaking, and an optional translation-memory cache. Grounded on
// the teacher's pkg/llms/client.go (provider registry + fallback shape)
// generalized from single-call LLM completions to batched line
// translation, with non-generative REST backends added from
// original_source's DeepL/Google/LibreTranslate integrations.
package translationmanager

import (
	"context"
	"errors"
)

var (
	ErrBackendNotFound = errors.New("translation backend not registered")
	ErrAllBackendsFailed = errors.New("all translation backends failed")
)

// GlossaryEntry pins one source term to a fixed target translation,
// supplied to backends whose SupportsGlossary is true (spec §4.5, §4.6).
type GlossaryEntry struct {
	SourceTerm string
	TargetTerm string
}

// TranslationResult is what every backend call and the manager's fallback
// chain return. The manager never raises — callers read Success.
type TranslationResult struct {
	Success    bool
	Lines      []string
	Backend    string
	ElapsedMs  int64
	Characters int64
	Error      string
}

// Backend is the capability surface spec §4.5 names: translate_batch,
// health_check, name, display_name, config_fields, supports_glossary,
// supports_batch, max_batch_size.
type Backend interface {
	Name() string
	DisplayName() string
	SupportsGlossary() bool
	SupportsBatch() bool
	MaxBatchSize() int
	TranslateBatch(ctx context.Context, lines []string, sourceLang, targetLang string, glossary []GlossaryEntry) (TranslationResult, error)
	HealthCheck(ctx context.Context) error
}

// QualityCapable is implemented only by generative backends (local LLM,
// OpenAI-compatible) able to self-evaluate a translation (spec §4.5
// "Quality evaluation").
type QualityCapable interface {
	EvaluateQuality(ctx context.Context, source, translated string) (int, error)
}
