package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-docqa/internal/ingest"
)

type recordingRunner struct {
	mu    sync.Mutex
	jobs  []string
	err   error
	delay time.Duration
}

func (r *recordingRunner) Run(ctx context.Context, job ingest.Job) (int, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job.DocumentID)
	return 1, r.err
}

func (r *recordingRunner) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.jobs...)
}

func TestPool_CloseDrainsQueuedJobs(t *testing.T) {
	runner := &recordingRunner{delay: 5 * time.Millisecond}
	pool := NewPool(runner, 2, 10)
	pool.Start(context.Background())

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, pool.Enqueue(context.Background(), ingest.Job{TenantID: "t", DocumentID: id}))
	}
	pool.Close()

	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, runner.seen())
}

func TestPool_EnqueueAfterCloseFails(t *testing.T) {
	pool := NewPool(&recordingRunner{}, 1, 1)
	pool.Start(context.Background())
	pool.Close()
	pool.Close()

	err := pool.Enqueue(context.Background(), ingest.Job{DocumentID: "late"})
	require.ErrorIs(t, err, ErrQueueClosed)
}

func TestPool_EnqueueHonoursContextWhenFull(t *testing.T) {
	pool := NewPool(&recordingRunner{}, 1, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := pool.Enqueue(ctx, ingest.Job{DocumentID: "x"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_RunnerErrorsDoNotStopWorkers(t *testing.T) {
	runner := &recordingRunner{err: errors.New("boom")}
	pool := NewPool(runner, 1, 4)
	pool.Start(context.Background())

	require.NoError(t, pool.Enqueue(context.Background(), ingest.Job{DocumentID: "1"}))
	require.NoError(t, pool.Enqueue(context.Background(), ingest.Job{DocumentID: "2"}))
	pool.Close()

	assert.Equal(t, []string{"1", "2"}, runner.seen())
}

func TestIngestConsumer_Handle(t *testing.T) {
	runner := &recordingRunner{err: errors.New("embedding down")}
	w := NewIngestConsumer(nil, runner, "q", 0)
	ctx := context.Background()

	assert.False(t, w.handle(ctx, []byte("{not json")))
	assert.False(t, w.handle(ctx, []byte(`{"tenant_id":"t"}`)))
	assert.True(t, w.handle(ctx, []byte(`{"tenant_id":"t","document_id":"d","text":"hello"}`)))
	assert.Equal(t, []string{"d"}, runner.seen())
	assert.Equal(t, 1, w.prefetch)
}
