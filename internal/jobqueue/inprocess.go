package jobqueue

import (
	"context"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InProcessQueue dispatches tasks onto a bounded pool of goroutines.
// FIFO-ordered, best-effort: a crash or restart loses anything not yet
// complete. Grounded on the teacher's internal/core/worker_pool.go
// bounded-goroutine-pool idiom, generalized from astisub-item processing to
// arbitrary background tasks via gammazero/workerpool (the teacher rolls
// its own pool by hand; the rest of the example pack's workerpool import is
// adopted here instead of re-deriving that machinery a second time).
type InProcessQueue struct {
	pool *workerpool.WorkerPool
	log  zerolog.Logger
}

func NewInProcessQueue(maxWorkers int, log zerolog.Logger) *InProcessQueue {
	return &InProcessQueue{
		pool: workerpool.New(maxWorkers),
		log:  log.With().Str("component", "jobqueue_inprocess").Logger(),
	}
}

func (q *InProcessQueue) Enqueue(ctx context.Context, filePath, configHash string, task Task) (string, error) {
	jobID := uuid.NewString()
	q.pool.Submit(func() {
		if err := task(ctx, jobID); err != nil {
			q.log.Error().Str("job_id", jobID).Str("file_path", filePath).Err(err).Msg("in-process job failed")
		}
	})
	return jobID, nil
}

func (q *InProcessQueue) Stop() {
	q.pool.StopWait()
}
