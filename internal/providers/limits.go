// Package providers holds the concrete SubtitleProvider implementations:
// opensubtitles, jimaku, animetosho, subdl, and the embedded sentinel.
// Grounded on original_source/backend/providers/{legendasdivx,podnapisi,
// titrari}.py's shape (authenticated HTTP client, search/download pair) and
// original_source/backend/providers/__init__.py for the concrete budgets.
package providers

import (
	"time"

	"github.com/sublarr/sublarr/internal/providerregistry"
)

// DefaultLimits returns the compiled-in rate/timeout/retry budget for each
// of the four real providers, recovered from
// original_source/backend/providers/__init__.py's PROVIDER_RATE_LIMITS /
// PROVIDER_TIMEOUTS / PROVIDER_RETRIES dicts.
func DefaultLimits() map[string]providerregistry.Limits {
	return map[string]providerregistry.Limits{
		"opensubtitles": {MaxRequests: 40, Window: 10 * time.Second, Timeout: 15 * time.Second, MaxRetries: 3},
		"jimaku":        {MaxRequests: 100, Window: 60 * time.Second, Timeout: 30 * time.Second, MaxRetries: 2},
		"animetosho":    {MaxRequests: 50, Window: 30 * time.Second, Timeout: 20 * time.Second, MaxRetries: 2},
		"subdl":         {MaxRequests: 30, Window: 10 * time.Second, Timeout: 15 * time.Second, MaxRetries: 2},
	}
}
