package providerregistry

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog"
)

// buildRetryPolicy mirrors the teacher's internal/pkg/voice buildRetryPolicy:
// retry any error except context cancellation, exponential backoff, return
// the last failure instead of a wrapped ExceededError.
func buildRetryPolicy[R any](maxAttempts int, log zerolog.Logger, providerName string) failsafe.Policy[R] {
	return retrypolicy.Builder[R]().
		HandleIf(func(_ R, err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}).
		AbortOnErrors(context.Canceled).
		WithMaxAttempts(maxAttempts).
		ReturnLastFailure().
		WithBackoffFactor(250*time.Millisecond, 4*time.Second, 2.0).
		OnRetry(func(evt failsafe.ExecutionEvent[R]) {
			log.Warn().Str("provider", providerName).Int("attempt", evt.Attempts()).
				Err(evt.LastError()).Msg("provider request failed, retrying")
		}).
		Build()
}
