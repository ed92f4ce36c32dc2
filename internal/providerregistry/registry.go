package providerregistry

import (
	"context"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sublarr/sublarr/internal/circuitbreaker"
	"github.com/sublarr/sublarr/internal/store"
)

// Registry owns every registered SubtitleProvider plus the admission gates
// (rate limiter, circuit breaker, auto-disable) that decide whether each
// one participates in a given search fan-out (spec §4.2, §4.10).
type Registry struct {
	mu        sync.RWMutex
	providers map[string]SubtitleProvider
	limits    map[string]Limits
	limiters  map[string]*rate.Limiter
	breakers  *circuitbreaker.Registry
	stats     *store.ProviderStatsRepo
	log       zerolog.Logger

	autoDisableThreshold int
	autoDisableCooldown  time.Duration
}

func New(stats *store.ProviderStatsRepo, breakers *circuitbreaker.Registry, log zerolog.Logger) *Registry {
	return &Registry{
		providers:            make(map[string]SubtitleProvider),
		limits:               make(map[string]Limits),
		limiters:             make(map[string]*rate.Limiter),
		breakers:             breakers,
		stats:                stats,
		log:                  log.With().Str("component", "providerregistry").Logger(),
		autoDisableThreshold: 5,
		autoDisableCooldown:  30 * time.Minute,
	}
}

func (r *Registry) SetAutoDisablePolicy(threshold int, cooldown time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoDisableThreshold = threshold
	r.autoDisableCooldown = cooldown
}

// Register adds a provider and its rate-limit budget. Re-registering the
// same name replaces the provider but preserves its accumulated stats.
func (r *Registry) Register(p SubtitleProvider, limits Limits) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Name()
	r.providers[name] = p
	r.limits[name] = limits
	// token bucket: bursts of up to MaxRequests, refilled at MaxRequests per Window.
	r.limiters[name] = rate.NewLimiter(rate.Every(limits.Window/time.Duration(limits.MaxRequests)), limits.MaxRequests)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// admissible reports whether a provider is currently usable: registered,
// not rate-limited right now, and not auto-disabled by its circuit.
func (r *Registry) admissible(ctx context.Context, name string) bool {
	r.mu.RLock()
	limiter, ok := r.limiters[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if !limiter.Allow() {
		return false
	}
	if r.stats != nil {
		available, err := r.stats.IsAvailable(name)
		if err == nil && !available {
			return false
		}
	}
	if r.breakers != nil && r.breakers.State(name) == "open" {
		return false
	}
	return true
}

// Search fans a query out to every admissible provider concurrently
// (bounded by errgroup, mirroring the teacher's internal/core/worker_pool.go
// fan-out idiom), collecting all candidates that return without error.
func (r *Registry) Search(ctx context.Context, query VideoQuery) ([]Candidate, error) {
	return r.search(ctx, query, 0, nil)
}

// SearchEarlyExit behaves like Search, but as soon as any collected
// candidate scores at or above threshold under score, it cancels every
// provider still in flight instead of waiting for the rest of the fan-out
// (spec §4.3: "if any candidate achieves ≥400, the manager stops waiting
// for remaining providers").
func (r *Registry) SearchEarlyExit(ctx context.Context, query VideoQuery, threshold int, score func(Candidate) int) ([]Candidate, error) {
	return r.search(ctx, query, threshold, score)
}

// search implements both Search and SearchEarlyExit; score == nil disables
// the early-exit check entirely.
func (r *Registry) search(ctx context.Context, query VideoQuery, threshold int, score func(Candidate) int) ([]Candidate, error) {
	r.mu.RLock()
	providers := make([]SubtitleProvider, 0, len(r.providers))
	for name, p := range r.providers {
		if r.admissible(ctx, name) {
			providers = append(providers, p)
		}
	}
	limits := make(map[string]Limits, len(r.limits))
	for k, v := range r.limits {
		limits[k] = v
	}
	r.mu.RUnlock()

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	var all []Candidate
	var exited bool

	g, gctx := errgroup.WithContext(searchCtx)
	for _, p := range providers {
		p := p
		lim := limits[p.Name()]
		g.Go(func() error {
			start := time.Now()
			candidates, err := r.searchOne(gctx, p, lim, query)
			elapsed := time.Since(start)
			if r.stats != nil {
				_ = r.stats.RecordSearch(p.Name(), elapsed.Milliseconds())
			}
			if err != nil {
				if gctx.Err() != nil {
					// Aborted by our own early-exit cancellation, not a
					// real provider fault — don't penalize it.
					return nil
				}
				r.log.Warn().Str("provider", p.Name()).Err(err).Msg("provider search failed")
				if r.stats != nil {
					_ = r.stats.RecordFailure(p.Name(), r.autoDisableThreshold, r.autoDisableCooldown)
				}
				// A single provider's failure never aborts the whole fan-out
				// (spec §4.2 "best effort across providers").
				return nil
			}

			perfect := false
			mu.Lock()
			all = append(all, candidates...)
			if score != nil && !exited {
				for _, c := range candidates {
					if score(c) >= threshold {
						perfect = true
						break
					}
				}
				if perfect {
					exited = true
				}
			}
			mu.Unlock()
			if perfect {
				cancel()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return all, err
	}
	return all, nil
}

func (r *Registry) searchOne(ctx context.Context, p SubtitleProvider, lim Limits, query VideoQuery) ([]Candidate, error) {
	timeout := lim.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	attempts := lim.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	policy := buildRetryPolicy[[]Candidate](attempts, r.log, p.Name())

	return failsafe.Get(func() ([]Candidate, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		var result []Candidate
		fn := func() (any, error) {
			res, err := p.Search(attemptCtx, query)
			result = res
			return res, err
		}
		if r.breakers != nil {
			_, err := r.breakers.Execute(p.Name(), fn)
			return result, err
		}
		_, err := fn()
		return result, err
	}, policy)
}

// Download fetches the subtitle bytes for a chosen candidate from its
// owning provider, with the same retry/circuit protection as Search.
func (r *Registry) Download(ctx context.Context, candidate Candidate) ([]byte, error) {
	r.mu.RLock()
	p, ok := r.providers[candidate.ProviderName]
	lim := r.limits[candidate.ProviderName]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrProviderNotFound
	}

	timeout := lim.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	attempts := lim.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	policy := buildRetryPolicy[[]byte](attempts, r.log, p.Name())

	data, err := failsafe.Get(func() ([]byte, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		var result []byte
		fn := func() (any, error) {
			b, err := p.Download(attemptCtx, candidate)
			result = b
			return b, err
		}
		if r.breakers != nil {
			_, err := r.breakers.Execute(p.Name(), fn)
			return result, err
		}
		_, err := fn()
		return result, err
	}, policy)

	if err != nil {
		if r.stats != nil {
			_ = r.stats.RecordFailure(p.Name(), r.autoDisableThreshold, r.autoDisableCooldown)
		}
		return nil, err
	}
	return data, nil
}
