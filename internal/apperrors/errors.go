// Package apperrors defines the closed error-kind taxonomy shared by every
// component of the pipeline (spec §7). Errors are sentinel-wrapped values,
// never matched by string, so callers use errors.Is/errors.As.
package apperrors

import (
	"errors"
	"fmt"
)

// Behavior tells a batch loop what to do when a step returns this error.
type Behavior int

const (
	// ContinueItem means: this item failed, move on to the next one.
	ContinueItem Behavior = iota
	// AbortItem means: stop processing this item, but the batch continues.
	AbortItem
	// AbortBatch means: a true fault occurred, unwind the whole batch.
	AbortBatch
)

func (b Behavior) String() string {
	switch b {
	case ContinueItem:
		return "continue_item"
	case AbortItem:
		return "abort_item"
	case AbortBatch:
		return "abort_batch"
	default:
		return "unknown"
	}
}

// Kind sentinels. Wrap with fmt.Errorf("...: %w", KindX) or use the
// constructors below so errors.Is keeps working through wrapping.
var (
	ErrProviderAuth        = errors.New("provider rejected credentials")
	ErrProviderRateLimit   = errors.New("provider rate limit exceeded")
	ErrProviderTransient   = errors.New("provider transient failure")
	ErrTranslationTransient = errors.New("translation backend transient failure")
	ErrTranslationFatal    = errors.New("translation backend fatal failure")
	ErrValidation          = errors.New("validation error")
	ErrPathSafety          = errors.New("path safety violation")
	ErrFileNotFound        = errors.New("file not found")
	ErrDiskFull            = errors.New("insufficient disk space")
	ErrParse               = errors.New("subtitle parse error")

	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreConflict    = errors.New("store conflict")
	ErrStoreNotFound    = errors.New("store: not found")
)

// BehaviorOf maps a known kind to its propagation policy. Unknown/unwrapped
// errors default to AbortBatch (a true fault) since callers should only
// reach here with errors that escaped the per-step tagged-result handling.
func BehaviorOf(err error) Behavior {
	switch {
	case err == nil:
		return ContinueItem
	case errors.Is(err, ErrProviderAuth),
		errors.Is(err, ErrProviderRateLimit),
		errors.Is(err, ErrProviderTransient),
		errors.Is(err, ErrTranslationTransient),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrParse):
		return ContinueItem
	case errors.Is(err, ErrTranslationFatal),
		errors.Is(err, ErrFileNotFound):
		return AbortItem
	case errors.Is(err, ErrPathSafety),
		errors.Is(err, ErrDiskFull),
		errors.Is(err, ErrStoreUnavailable):
		return AbortBatch
	default:
		return AbortBatch
	}
}

// Wrap attaches additional context to a sentinel kind while keeping it
// discoverable via errors.Is.
func Wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// Retryable reports whether a provider-call error should be retried within
// the same attempt budget (spec §7: auth and rate-limit errors never retry).
func Retryable(err error) bool {
	return errors.Is(err, ErrProviderTransient)
}
