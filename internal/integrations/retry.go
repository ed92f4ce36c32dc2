package integrations

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog"
)

// buildRetryPolicy mirrors internal/providerregistry's buildRetryPolicy:
// retry any error but context cancellation, exponential backoff, surface
// the last failure rather than a wrapped ExceededError. Grounded on
// original_source/backend/sonarr_client.py's hand-rolled attempt-counter
// retry loop (including 429/Retry-After handling), expressed with the
// library already wired for this concern elsewhere in the module.
func buildRetryPolicy[R any](maxAttempts int, log zerolog.Logger, clientName string) failsafe.Policy[R] {
	return retrypolicy.Builder[R]().
		HandleIf(func(_ R, err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}).
		AbortOnErrors(context.Canceled).
		WithMaxAttempts(maxAttempts).
		ReturnLastFailure().
		WithBackoffFactor(500*time.Millisecond, 8*time.Second, 2.0).
		OnRetry(func(evt failsafe.ExecutionEvent[R]) {
			log.Warn().Str("client", clientName).Int("attempt", evt.Attempts()).
				Err(evt.LastError()).Msg("request failed, retrying")
		}).
		Build()
}
