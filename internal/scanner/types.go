// Package scanner runs the two periodic loops spec §4.8 names (library scan,
// wanted search) plus the webhook-triggered pipeline, each guarded by a
// non-reentrant lock so an overlapping invocation is a no-op rather than a
// pile-up. Grounded on original_source/backend/wanted_scanner.py's
// threading.Lock-guarded `scan_all`/search-loop shape and
// original_source/backend/standalone/scanner.py's filename-driven watched-
// folder variant, translated into the teacher's cancellable-context,
// errgroup-bounded-fan-out idiom (internal/core/worker_pool.go,
// internal/providerregistry/registry.go).
package scanner

import (
	"context"
	"time"

	"github.com/sublarr/sublarr/internal/integrations"
)

// LibrarySource enumerates media items from one origin — an arr instance or
// a watched folder — normalized to the same shape so the scan loop never
// branches on where an item came from.
type LibrarySource interface {
	Name() string
	ListItems(ctx context.Context) ([]integrations.LibraryItem, error)
}

// Config holds the scan/search loop tunables named in spec §4.8 and §5.
type Config struct {
	ScanInterval       time.Duration // 0 disables the scan loop
	SearchInterval     time.Duration // 0 disables the search loop
	MaxSearchAttempts  int
	MinSearchAge       time.Duration // advisory minimum between attempts (spec: one hour)
	MaxItemsPerRun     int
	SearchParallelism  int
	SearchPause        time.Duration // rate-shaping pause between items
	RunOnStart         bool
	ProbeEmbedded      bool // probe containers for embedded target-language streams during scan
	UpgradeDetection   bool

	// DefaultTargetLanguages is used for items whose owning entity has no
	// assigned LanguageProfile (original_source's get_default_profile).
	DefaultTargetLanguages []string
}

// DefaultConfig mirrors the original's default polling cadence.
func DefaultConfig() Config {
	return Config{
		ScanInterval:      1 * time.Hour,
		SearchInterval:    15 * time.Minute,
		MaxSearchAttempts: 3,
		MinSearchAge:      1 * time.Hour,
		MaxItemsPerRun:    50,
		SearchParallelism: 4,
		SearchPause:       500 * time.Millisecond,
		RunOnStart:        true,
		ProbeEmbedded:     true,
		UpgradeDetection:  true,

		DefaultTargetLanguages: []string{"en"},
	}
}

// WebhookConfig toggles each phase of the webhook pipeline independently
// (spec §4.8 "Each phase is independently toggleable").
type WebhookConfig struct {
	Delay          time.Duration
	ScanEnabled    bool
	WantedEnabled  bool
	NotifyEnabled  bool
}
