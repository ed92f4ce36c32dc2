package jobqueue

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sublarr/sublarr/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sublarr.db")
	s, err := store.Open(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInProcessQueueRunsTaskAndReturnsJobID(t *testing.T) {
	q := NewInProcessQueue(2, zerolog.Nop())
	defer q.Stop()

	done := make(chan string, 1)
	jobID, err := q.Enqueue(context.Background(), "/media/a.mkv", "hash1", func(ctx context.Context, jobID string) error {
		done <- jobID
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	select {
	case got := <-done:
		require.Equal(t, jobID, got)
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestInProcessQueueRunsManyTasksConcurrentlyWithoutDeadlock(t *testing.T) {
	q := NewInProcessQueue(3, zerolog.Nop())

	var mu sync.Mutex
	var seen []string
	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		_, err := q.Enqueue(context.Background(), "/media/a.mkv", "hash1", func(ctx context.Context, jobID string) error {
			defer wg.Done()
			mu.Lock()
			seen = append(seen, jobID)
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}
	wg.Wait()
	q.Stop()

	require.Len(t, seen, 5)
}

func TestDurableQueuePersistsJobAndMarksCompleted(t *testing.T) {
	s := openTestStore(t)
	q := NewDurableQueue(s.Jobs, 1, zerolog.Nop())

	jobID, err := q.Enqueue(context.Background(), "/media/a.mkv", "hash1", func(ctx context.Context, jobID string) error {
		return s.Jobs.MarkCompleted(jobID, "/media/a.fr.ass", `{"chars":120}`)
	})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)
	q.Stop()

	job := waitForStatus(t, s, jobID, store.JobStatusCompleted)
	require.Equal(t, "/media/a.fr.ass", job.OutputPath)
}

func TestDurableQueueMarksFailedJobWithReason(t *testing.T) {
	s := openTestStore(t)
	q := NewDurableQueue(s.Jobs, 1, zerolog.Nop())

	jobID, err := q.Enqueue(context.Background(), "/media/a.mkv", "hash1", func(ctx context.Context, jobID string) error {
		return errors.New("translation backend unreachable")
	})
	require.NoError(t, err)
	q.Stop()

	job := waitForStatus(t, s, jobID, store.JobStatusFailed)
	require.Equal(t, "translation backend unreachable", job.Error)
}

func TestDurableQueueEnqueuePersistsRowBeforeDispatch(t *testing.T) {
	s := openTestStore(t)
	q := NewDurableQueue(s.Jobs, 1, zerolog.Nop())

	release := make(chan struct{})
	jobID, err := q.Enqueue(context.Background(), "/media/a.mkv", "hash1", func(ctx context.Context, jobID string) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	// Enqueue returns once the row is persisted, before the task necessarily
	// runs — the row must already be queryable.
	job, err := s.Jobs.Get(jobID)
	require.NoError(t, err)
	require.Contains(t, []store.JobStatus{store.JobStatusQueued, store.JobStatusRunning}, job.Status)
	require.Equal(t, "hash1", job.ConfigHash)

	close(release)
	q.Stop()
}

func waitForStatus(t *testing.T, s *store.Store, jobID string, want store.JobStatus) store.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.Jobs.Get(jobID)
		require.NoError(t, err)
		if job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return store.Job{}
}
