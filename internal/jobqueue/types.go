// Package jobqueue is spec §4.9's minimal background-work interface: two
// interchangeable backends behind one Queue interface, so callers (the
// scanner's webhook pipeline, a "translate now" API handler) never branch
// on which is active. Grounded on the teacher's internal/core worker-pool
// idiom (bounded goroutines, FIFO dispatch) for the in-process backend, and
// internal/store's Job repository for the durable backend.
package jobqueue

import "context"

// Task is the unit of work a Queue runs: given a job id (stable across
// durable restarts; a generated uuid for the in-process backend), do the
// work and return an error if it failed.
type Task func(ctx context.Context, jobID string) error

// Queue is the interface the rest of the pipeline depends on — webhook
// handlers and "translate now" API calls enqueue against this, never the
// concrete backend.
type Queue interface {
	// Enqueue schedules task to run, identified by configHash for the
	// durable backend's outdated-job detection (spec §4.9's config_hash).
	Enqueue(ctx context.Context, filePath, configHash string, task Task) (jobID string, err error)
	// Stop waits for all submitted work, queued or running, to finish
	// (in-process), or stops accepting submissions and waits only for tasks
	// already running (durable; queued jobs keep their persisted row but are
	// not re-queued at the next start).
	Stop()
}
