package scanner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sublarr/sublarr/internal/store"
)

// ItemProcessor is the pipeline surface the search loop drives — satisfied
// by *wantedpipeline.Pipeline. Typed as an interface for the same
// dependency-inversion reason internal/wantedpipeline types its own provider
// dependency as an interface: lets this package's tests swap in a fake.
type ItemProcessor interface {
	Process(ctx context.Context, item store.WantedItem) error
}

// SearchLoop selects eligible WantedItems (spec §4.8 "status=wanted,
// search_count < max_attempts, last_search_at/retry_after eligible") and
// processes them with bounded parallelism, one non-reentrant lock guarding
// the whole pass. Fan-out is grounded on
// internal/providerregistry/registry.go's errgroup-bounded-concurrency
// pattern, itself mirroring the teacher's internal/core/worker_pool.go.
type SearchLoop struct {
	st        *store.Store
	processor ItemProcessor
	cfg       Config
	log       zerolog.Logger

	running atomic.Bool
	ticker  *time.Ticker
	stop    chan struct{}
}

func NewSearchLoop(st *store.Store, processor ItemProcessor, cfg Config, log zerolog.Logger) *SearchLoop {
	return &SearchLoop{
		st:        st,
		processor: processor,
		cfg:       cfg,
		log:       log.With().Str("component", "search_loop").Logger(),
		stop:      make(chan struct{}),
	}
}

func (l *SearchLoop) Start(ctx context.Context) {
	if l.cfg.RunOnStart {
		go l.Run(ctx)
	}
	if l.cfg.SearchInterval <= 0 {
		return
	}
	l.ticker = time.NewTicker(l.cfg.SearchInterval)
	go func() {
		for {
			select {
			case <-l.stop:
				return
			case <-ctx.Done():
				return
			case <-l.ticker.C:
				l.Run(ctx)
			}
		}
	}()
}

// Processor exposes the underlying ItemProcessor so a caller (the API's
// single-item search/process endpoints) can drive one item outside of a
// scheduled batch pass without duplicating the pipeline wiring.
func (l *SearchLoop) Processor() ItemProcessor {
	return l.processor
}

func (l *SearchLoop) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
	close(l.stop)
}

// Run processes one batch of searchable WantedItems. A concurrent call
// no-ops.
func (l *SearchLoop) Run(ctx context.Context) (processed int, skipped bool) {
	if !l.running.CompareAndSwap(false, true) {
		l.log.Warn().Msg("search loop already running, skipping")
		return 0, true
	}
	defer l.running.Store(false)

	items, err := l.st.Wanted.ListSearchable(l.cfg.MaxSearchAttempts, l.cfg.MinSearchAge, l.cfg.MaxItemsPerRun)
	if err != nil {
		l.log.Error().Err(err).Msg("listing searchable wanted items failed")
		return 0, false
	}

	parallelism := l.cfg.SearchParallelism
	if parallelism < 1 {
		parallelism = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, item := range items {
		item := item
		idx := i
		g.Go(func() error {
			if idx > 0 && l.cfg.SearchPause > 0 {
				select {
				case <-time.After(l.cfg.SearchPause):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			if err := l.processor.Process(gctx, item); err != nil {
				l.log.Error().Int64("wanted_id", item.ID).Err(err).Msg("processing wanted item failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	return len(items), false
}
