package translationmanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/circuitbreaker"
	"github.com/sublarr/sublarr/internal/store"
)

// Manager is the process-wide singleton over registered backends, mirroring
// the teacher's pkg/llms.Client (registered-provider map, RWMutex) plus the
// invalidate-on-config-change behavior from pkg/llms/registry.go.
type Manager struct {
	mu       sync.RWMutex
	backends map[string]Backend

	breakers *circuitbreaker.Registry
	stats    *store.BackendStatsRepo
	memory   *Memory
	log      zerolog.Logger

	autoDisableThreshold int
	autoDisableCooldown  time.Duration
}

func New(breakers *circuitbreaker.Registry, stats *store.BackendStatsRepo, memory *Memory, log zerolog.Logger) *Manager {
	return &Manager{
		backends:             make(map[string]Backend),
		breakers:             breakers,
		stats:                stats,
		memory:               memory,
		log:                  log.With().Str("component", "translationmanager").Logger(),
		autoDisableThreshold: 5,
		autoDisableCooldown:  15 * time.Minute,
	}
}

func (m *Manager) Register(b Backend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backends[b.Name()] = b
}

// Invalidate removes a registered backend; Get reports it missing until
// Register is called again. Its circuit-breaker state in the shared
// circuitbreaker.Registry is not reset.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	delete(m.backends, name)
	m.mu.Unlock()
}

func (m *Manager) Get(name string) (Backend, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[name]
	return b, ok
}

// TranslateBatch runs the fallback chain (spec §4.5): for each backend in
// chain order, skip if its breaker is open, otherwise attempt
// TranslateBatch; on success return immediately, on failure record stats
// and tick the breaker before trying the next backend.
func (m *Manager) TranslateBatch(ctx context.Context, chain []string, lines []string, sourceLang, targetLang string, glossary []GlossaryEntry) TranslationResult {
	var lastErr error

	for _, name := range chain {
		backend, ok := m.Get(name)
		if !ok {
			continue
		}
		if m.breakers != nil && m.breakers.State(name) == "open" {
			continue
		}

		start := time.Now()
		result, err := backend.TranslateBatch(ctx, lines, sourceLang, targetLang, glossary)
		elapsed := time.Since(start)

		if err != nil {
			lastErr = err
			if m.stats != nil {
				_ = m.stats.RecordFailure(name, m.autoDisableThreshold, m.autoDisableCooldown)
			}
			if m.breakers != nil {
				_, _ = m.breakers.Execute(name, func() (any, error) { return nil, err })
			}
			m.log.Warn().Str("backend", name).Err(err).Msg("translation backend failed, trying next")
			continue
		}

		result.Backend = name
		result.ElapsedMs = elapsed.Milliseconds()
		if m.stats != nil {
			_ = m.stats.RecordTranslation(name, elapsed.Milliseconds(), result.Characters)
			_ = m.stats.RecordSuccess(name, 100)
		}
		if m.breakers != nil {
			_, _ = m.breakers.Execute(name, func() (any, error) { return nil, nil })
		}
		result.Success = true
		return result
	}

	errMsg := ErrAllBackendsFailed.Error()
	if lastErr != nil {
		errMsg = fmt.Sprintf("%s: %v", errMsg, lastErr)
	}
	return TranslationResult{Success: false, Error: errMsg}
}

// TranslateBatchCached consults the translation-memory cache per line
// before delegating cache misses to TranslateBatch, then populates the
// cache with any newly translated lines.
func (m *Manager) TranslateBatchCached(ctx context.Context, chain []string, lines []string, sourceLang, targetLang string, glossary []GlossaryEntry) TranslationResult {
	if m.memory == nil {
		return m.TranslateBatch(ctx, chain, lines, sourceLang, targetLang, glossary)
	}

	resolved := make([]string, len(lines))
	var misses []string
	var missIdx []int
	for i, line := range lines {
		if cached, ok := m.memory.Lookup(sourceLang, targetLang, line); ok {
			resolved[i] = cached
		} else {
			misses = append(misses, line)
			missIdx = append(missIdx, i)
		}
	}

	if len(misses) == 0 {
		return TranslationResult{Success: true, Lines: resolved, Backend: "memory"}
	}

	result := m.TranslateBatch(ctx, chain, misses, sourceLang, targetLang, glossary)
	if !result.Success {
		return result
	}

	for i, idx := range missIdx {
		if i < len(result.Lines) {
			resolved[idx] = result.Lines[i]
			m.memory.Store(sourceLang, targetLang, misses[i], result.Lines[i])
		}
	}

	return TranslationResult{Success: true, Lines: resolved, Backend: result.Backend, ElapsedMs: result.ElapsedMs, Characters: result.Characters}
}

// EvaluateQuality asks the first LLM-capable backend in chain order to
// score a translation 0-100 (spec §4.5 "Quality evaluation"). Any error
// yields the advisory default of 50; this must never block translation.
func (m *Manager) EvaluateQuality(ctx context.Context, chain []string, source, translated string) int {
	for _, name := range chain {
		backend, ok := m.Get(name)
		if !ok {
			continue
		}
		qc, ok := backend.(QualityCapable)
		if !ok {
			continue
		}
		score, err := qc.EvaluateQuality(ctx, source, translated)
		if err != nil {
			return 50
		}
		return score
	}
	return 50
}
