package store

import "github.com/sublarr/sublarr/internal/apperrors"

// Re-exported for callers that only import store, matching spec §4.1's
// three named failure modes.
var (
	ErrUnavailable = apperrors.ErrStoreUnavailable
	ErrConflict    = apperrors.ErrStoreConflict
	ErrNotFound    = apperrors.ErrStoreNotFound
)
