// Package wantedpipeline drives one WantedItem through the priority-ordered
// attempt sequence of spec §4.7: forced-subtitle download-only mode, or the
// full-subtitle mode's provider-first-then-translator waterfall, with
// adaptive backoff on recoverable misses. Grounded on
// original_source/backend/wanted_search.py's process_wanted_item,
// restructured around the teacher's result-type idiom
// (internal/core error-kind pattern) rather than exceptions for control flow.
package wantedpipeline

import (
	"context"
	"time"

	"github.com/sublarr/sublarr/internal/providerregistry"
	"github.com/sublarr/sublarr/internal/store"
)

// Config holds the tunables spec §4.7 names: attempt cap, backoff envelope,
// the skip-SRT-when-no-ASS-exists optimization, and the upgrade-decision
// knobs scorer.ShouldUpgrade needs (spec §4.4).
type Config struct {
	MaxSearchAttempts int
	BaseBackoffHours  float64
	CapBackoffHours   float64
	SkipSRTOnNoASS    bool
	MinScore          int
	PreferASS         bool
	MinScoreDelta     int
	UpgradeWindowDays int
}

// DefaultConfig mirrors the values original_source/backend/wanted_search.py
// ships (3 attempts, 4h base backoff doubling up to 48h cap).
func DefaultConfig() Config {
	return Config{
		MaxSearchAttempts: 3,
		BaseBackoffHours:  4,
		CapBackoffHours:   48,
		SkipSRTOnNoASS:    true,
		MinScore:          0,
		PreferASS:         true,
		MinScoreDelta:     50,
		UpgradeWindowDays: 30,
	}
}

// LibraryNotifier is the outbound half of spec §4.7's "Integration
// callbacks" paragraph: on success, rescan the owning entity; failures here
// must never propagate back into the pipeline's own result. Implemented by
// internal/integrations.
type LibraryNotifier interface {
	NotifyRescan(ctx context.Context, item store.WantedItem) error
}

// outcome is the pipeline's internal control-flow value — never an error,
// per the teacher's "exception for control flow" avoidance (spec §9).
type outcome struct {
	status     outcomeStatus
	reason     string
	outputPath string
}

type outcomeStatus int

const (
	statusFound outcomeStatus = iota
	statusFailed
	statusRetry
)

func found(outputPath string) outcome {
	return outcome{status: statusFound, outputPath: outputPath}
}

func failed(reason string) outcome {
	return outcome{status: statusFailed, reason: reason}
}

func retry(reason string) outcome {
	return outcome{status: statusRetry, reason: reason}
}

// backoffDuration implements spec §4.7's adaptive backoff: retry_after =
// now + min(base_hours * 2^(search_count-1), cap_hours). searchCount is the
// count *after* the attempt currently running (i.e. item.SearchCount+1).
func backoffDuration(cfg Config, searchCount int) time.Duration {
	if searchCount < 1 {
		searchCount = 1
	}
	hours := cfg.BaseBackoffHours
	for i := 1; i < searchCount; i++ {
		hours *= 2
		if hours >= cfg.CapBackoffHours {
			hours = cfg.CapBackoffHours
			break
		}
	}
	if hours > cfg.CapBackoffHours {
		hours = cfg.CapBackoffHours
	}
	return time.Duration(hours * float64(time.Hour))
}

// buildQuery assembles a provider query from a WantedItem plus the profile
// fields the pipeline resolved (source language, the language to search,
// format filter, forced-only flag).
func buildQuery(item store.WantedItem, language, formatFilter string, forcedOnly bool) providerregistry.VideoQuery {
	season, episode := parseSeasonEpisode(item.SeasonEpisodeLabel)
	return providerregistry.VideoQuery{
		ItemType:       item.ItemType,
		Title:          item.Title,
		Season:         season,
		Episode:        episode,
		TargetLanguage: language,
		FormatFilter:   formatFilter,
		ForcedOnly:     forcedOnly,
	}
}
