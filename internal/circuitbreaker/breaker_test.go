package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistryTripsAfterThreshold(t *testing.T) {
	r := NewRegistry(Config{FailureThreshold: 3, Timeout: time.Hour, HalfOpenMaxProbe: 1})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, err := r.Execute("opensubtitles", func() (any, error) { return nil, boom })
		require.ErrorIs(t, err, boom)
	}

	require.Equal(t, "open", r.State("opensubtitles"))

	_, err := r.Execute("opensubtitles", func() (any, error) { return "ok", nil })
	require.True(t, IsOpenError(err))
}

func TestRegistryKeysAreIndependent(t *testing.T) {
	r := NewRegistry(Config{FailureThreshold: 1, Timeout: time.Hour, HalfOpenMaxProbe: 1})
	boom := errors.New("boom")

	_, _ = r.Execute("jimaku", func() (any, error) { return nil, boom })
	require.Equal(t, "open", r.State("jimaku"))
	require.Equal(t, "closed", r.State("subdl"))
}
