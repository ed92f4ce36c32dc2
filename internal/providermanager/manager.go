// Package providermanager is the ProviderManager of spec §4.3: it drives a
// Registry search, scores and dedupes the results, optionally downloads and
// saves the best one to disk. Grounded on
// original_source/backend/providers/__init__.py's ProviderManager class
// (search/search_and_download_best/save_subtitle), expressed as the
// teacher's worker-pool fan-out idiom (internal/core/worker_pool.go) plus
// errgroup already used inside providerregistry.Registry.
package providermanager

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/providerregistry"
	"github.com/sublarr/sublarr/internal/providers"
	"github.com/sublarr/sublarr/internal/scorer"
	"github.com/sublarr/sublarr/internal/store"
)

// Manager is the process-wide façade pipeline components call to search,
// score, download, and persist subtitle candidates.
type Manager struct {
	registry *providerregistry.Registry
	store    *store.Store
	weights  scorer.Weights
	cacheTTL time.Duration
	earlyExit bool
	log      zerolog.Logger
}

func New(registry *providerregistry.Registry, st *store.Store, weights scorer.Weights, cacheTTL time.Duration, earlyExit bool, log zerolog.Logger) *Manager {
	return &Manager{
		registry:  registry,
		store:     st,
		weights:   weights,
		cacheTTL:  cacheTTL,
		earlyExit: earlyExit,
		log:       log.With().Str("component", "providermanager").Logger(),
	}
}

// Scored pairs a raw candidate with its computed score.
type Scored struct {
	Candidate providerregistry.Candidate
	Score     int
}

// Search runs the registry fan-out (consulting the provider_cache first),
// scores every candidate, deduplicates by (provider_name, subtitle_id), and
// returns results sorted highest-score-first. If formatFilter is non-empty,
// only that format's candidates are scored and returned.
func (m *Manager) Search(ctx context.Context, query providerregistry.VideoQuery, formatFilter string, minScore int) ([]Scored, error) {
	cacheKey := m.cacheKey(query, formatFilter)
	var candidates []providerregistry.Candidate

	if m.store != nil {
		if raw, ok, err := m.store.ProviderCache.Get("*", cacheKey); err == nil && ok {
			if jsonErr := json.Unmarshal([]byte(raw), &candidates); jsonErr == nil {
				return m.scoreAndSort(candidates, query, formatFilter, minScore), nil
			}
		}
	}

	var err error
	if m.earlyExit {
		candidates, err = m.registry.SearchEarlyExit(ctx, query, scorer.PerfectThreshold, func(c providerregistry.Candidate) int {
			if formatFilter != "" && c.Format != formatFilter {
				return 0
			}
			return scorer.Score(m.weights, c, query, m.providerModifier(c.ProviderName))
		})
	} else {
		candidates, err = m.registry.Search(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("provider search: %w", err)
	}

	if m.store != nil && m.cacheTTL > 0 {
		if raw, err := json.Marshal(candidates); err == nil {
			_ = m.store.ProviderCache.Put("*", cacheKey, string(raw), m.cacheTTL)
		}
	}

	return m.scoreAndSort(candidates, query, formatFilter, minScore), nil
}

func (m *Manager) scoreAndSort(candidates []providerregistry.Candidate, query providerregistry.VideoQuery, formatFilter string, minScore int) []Scored {
	seen := make(map[string]bool)
	scored := make([]Scored, 0, len(candidates))

	for _, c := range candidates {
		if formatFilter != "" && c.Format != formatFilter {
			continue
		}
		key := c.ProviderName + "|" + c.SubtitleID
		if seen[key] {
			continue
		}
		seen[key] = true

		s := scorer.Score(m.weights, c, query, m.providerModifier(c.ProviderName))
		if s < minScore {
			continue
		}
		scored = append(scored, Scored{Candidate: c, Score: s})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// providerModifier looks up the per-provider bias Score applies last,
// shared by scoreAndSort and the early-exit scoring closure in Search so
// both agree on what counts as a qualifying candidate.
func (m *Manager) providerModifier(providerName string) int {
	if m.store == nil {
		return 0
	}
	stats, err := m.store.ProviderStats.Get(providerName)
	if err != nil {
		return 0
	}
	return providerModifierFromStats(stats)
}

// providerModifierFromStats derives a small bias from historical average
// score relative to a neutral baseline, kept inside the invariant's
// [-50,+50] envelope by scorer.Score itself.
func providerModifierFromStats(s store.ProviderStats) int {
	if s.SuccessfulDownloads == 0 {
		return 0
	}
	return int((s.AvgScore - 500) / 20)
}

// SearchAndDownloadBest runs Search, then tries each result in score order
// until one downloads successfully, mirroring
// search_and_download_best's try-next-on-failure loop.
func (m *Manager) SearchAndDownloadBest(ctx context.Context, query providerregistry.VideoQuery, formatFilter string, minScore int) (*Scored, []byte, error) {
	results, err := m.Search(ctx, query, formatFilter, minScore)
	if err != nil {
		return nil, nil, err
	}

	for _, result := range results {
		data, format, err := m.downloadAndResolve(ctx, result)
		if err == nil {
			result.Candidate.Format = format
			return &result, data, nil
		}
		m.log.Warn().Str("provider", result.Candidate.ProviderName).Err(err).Msg("download failed, trying next candidate")
	}
	return nil, nil, nil
}

func (m *Manager) downloadAndResolve(ctx context.Context, result Scored) ([]byte, string, error) {
	data, err := m.registry.Download(ctx, result.Candidate)
	if err != nil {
		return nil, "", err
	}
	if m.store != nil {
		_ = m.store.ProviderStats.RecordSuccess(result.Candidate.ProviderName, result.Score)
	}
	if result.Candidate.Format == "archive" {
		ext := ".zip"
		extracted, format, err := providers.ExtractSubtitle(data, ext)
		if err != nil {
			return nil, "", fmt.Errorf("extracting archive: %w", err)
		}
		return extracted, format, nil
	}
	return data, result.Candidate.Format, nil
}

// SaveSubtitle writes downloaded bytes to
// <base>.<language>[.forced].<ext>, creating parent directories, and
// records a SubtitleDownload history entry (spec §4.3 save-to-disk
// contract).
func (m *Manager) SaveSubtitle(result Scored, data []byte, basePath, language string, forced bool) (string, error) {
	ext := result.Candidate.Format
	if ext == "" {
		ext = "srt"
	}
	suffix := language
	if forced {
		suffix += ".forced"
	}
	outputPath := fmt.Sprintf("%s.%s.%s", stripExt(basePath), suffix, ext)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing subtitle file: %w", err)
	}

	if m.store != nil {
		_ = m.store.History.RecordDownload(store.SubtitleDownload{
			ProviderName: result.Candidate.ProviderName,
			SubtitleID:   result.Candidate.SubtitleID,
			Language:     language,
			Format:       ext,
			FilePath:     outputPath,
			Score:        result.Score,
		})
	}

	return outputPath, nil
}

func stripExt(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)]
}

func (m *Manager) cacheKey(query providerregistry.VideoQuery, formatFilter string) string {
	raw := fmt.Sprintf("%s|%d|%d|%s|%s|%s", query.Title, query.Season, query.Episode, query.TargetLanguage, query.IMDBId, formatFilter)
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
