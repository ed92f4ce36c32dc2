package providerregistry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sublarr/sublarr/internal/circuitbreaker"
	"github.com/sublarr/sublarr/internal/store"
)

type fakeProvider struct {
	name    string
	results []Candidate
	err     error
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query VideoQuery) ([]Candidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeProvider) Download(ctx context.Context, candidate Candidate) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("subtitle body"), nil
}

func newTestRegistry(t *testing.T) (*Registry, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	breakers := circuitbreaker.NewRegistry(circuitbreaker.Config{FailureThreshold: 3, Timeout: time.Hour, HalfOpenMaxProbe: 1})
	return New(s.ProviderStats, breakers, zerolog.Nop()), s
}

func TestSearchAggregatesAcrossProviders(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := &fakeProvider{name: "opensubtitles", results: []Candidate{{ProviderName: "opensubtitles", SubtitleID: "1"}}}
	b := &fakeProvider{name: "jimaku", results: []Candidate{{ProviderName: "jimaku", SubtitleID: "2"}}}
	r.Register(a, Limits{MaxRequests: 40, Window: 10 * time.Second, Timeout: 5 * time.Second, MaxRetries: 1})
	r.Register(b, Limits{MaxRequests: 100, Window: 60 * time.Second, Timeout: 5 * time.Second, MaxRetries: 1})

	candidates, err := r.Search(context.Background(), VideoQuery{TargetLanguage: "fr"})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
}

func TestSearchSkipsOneProviderFailureWithoutAbortingOthers(t *testing.T) {
	r, _ := newTestRegistry(t)
	failing := &fakeProvider{name: "subdl", err: errors.New("boom")}
	ok := &fakeProvider{name: "animetosho", results: []Candidate{{ProviderName: "animetosho", SubtitleID: "3"}}}
	r.Register(failing, Limits{MaxRequests: 30, Window: 10 * time.Second, Timeout: 2 * time.Second, MaxRetries: 1})
	r.Register(ok, Limits{MaxRequests: 50, Window: 30 * time.Second, Timeout: 2 * time.Second, MaxRetries: 1})

	candidates, err := r.Search(context.Background(), VideoQuery{TargetLanguage: "en"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "animetosho", candidates[0].ProviderName)
}

func TestDownloadReturnsProviderNotFound(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Download(context.Background(), Candidate{ProviderName: "nonexistent"})
	require.ErrorIs(t, err, ErrProviderNotFound)
}

type slowProvider struct {
	name    string
	delay   time.Duration
	results []Candidate
}

func (p *slowProvider) Name() string { return p.name }

func (p *slowProvider) Search(ctx context.Context, query VideoQuery) ([]Candidate, error) {
	select {
	case <-time.After(p.delay):
		return p.results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *slowProvider) Download(ctx context.Context, candidate Candidate) ([]byte, error) {
	return nil, nil
}

func TestSearchEarlyExitCancelsSlowProvidersOncePerfectScoreSeen(t *testing.T) {
	r, _ := newTestRegistry(t)
	fast := &fakeProvider{name: "opensubtitles", results: []Candidate{{ProviderName: "opensubtitles", SubtitleID: "1"}}}
	slow := &slowProvider{name: "jimaku", delay: time.Hour, results: []Candidate{{ProviderName: "jimaku", SubtitleID: "2"}}}
	r.Register(fast, Limits{MaxRequests: 40, Window: 10 * time.Second, Timeout: 5 * time.Second, MaxRetries: 1})
	r.Register(slow, Limits{MaxRequests: 40, Window: 10 * time.Second, Timeout: time.Hour, MaxRetries: 1})

	start := time.Now()
	candidates, err := r.SearchEarlyExit(context.Background(), VideoQuery{TargetLanguage: "fr"}, 400, func(Candidate) int { return 400 })
	require.NoError(t, err)
	require.Less(t, time.Since(start), 5*time.Second, "early exit should cancel the slow provider instead of waiting out its delay")
	require.Len(t, candidates, 1)
	require.Equal(t, "opensubtitles", candidates[0].ProviderName)
}
