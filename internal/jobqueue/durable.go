package jobqueue

import (
	"context"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sublarr/sublarr/internal/store"
)

// DurableQueue persists every job to the jobs table before dispatching it,
// so a restart can report what was in flight (spec §4.9's "queryable by id
// and status, survives restarts" requirement). Dispatch itself still runs
// in-process via a bounded worker pool — only the bookkeeping survives a
// crash, not in-flight work, matching the teacher's split between durable
// state (internal/store) and transient execution (internal/core).
type DurableQueue struct {
	repo *store.JobRepo
	pool *workerpool.WorkerPool
	log  zerolog.Logger
}

func NewDurableQueue(repo *store.JobRepo, maxWorkers int, log zerolog.Logger) *DurableQueue {
	return &DurableQueue{
		repo: repo,
		pool: workerpool.New(maxWorkers),
		log:  log.With().Str("component", "jobqueue_durable").Logger(),
	}
}

func (q *DurableQueue) Enqueue(ctx context.Context, filePath, configHash string, task Task) (string, error) {
	jobID := uuid.NewString()
	if err := q.repo.Create(jobID, filePath, configHash); err != nil {
		return "", err
	}

	q.pool.Submit(func() {
		if err := q.repo.MarkRunning(jobID); err != nil {
			q.log.Error().Str("job_id", jobID).Err(err).Msg("marking job running")
			return
		}
		if err := task(ctx, jobID); err != nil {
			if markErr := q.repo.MarkFailed(jobID, err.Error()); markErr != nil {
				q.log.Error().Str("job_id", jobID).Err(markErr).Msg("marking job failed")
			}
			return
		}
		// A successful task is responsible for calling repo.MarkCompleted
		// itself with the real output_path/stats before returning nil — the
		// queue only knows it must flip to failed on error, since only the
		// task knows what "done" means for its own job.
	})

	return jobID, nil
}

func (q *DurableQueue) Stop() {
	q.pool.Stop()
}
