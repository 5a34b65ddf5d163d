package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"gopherai-docqa/internal/ingest"
)

var ErrQueueClosed = errors.New("ingest queue closed")

// Runner executes one ingestion job. *ingest.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, job ingest.Job) (int, error)
}

// Pool runs ingestion jobs on a fixed number of goroutines fed by a bounded
// buffer. Enqueue blocks while the buffer is full.
type Pool struct {
	runner  Runner
	workers int
	jobs    chan ingest.Job

	mu     sync.RWMutex
	closed bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(runner Runner, workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		runner:  runner,
		workers: workers,
		jobs:    make(chan ingest.Job, buffer),
	}
}

// Start launches the workers. Jobs run under ctx, not under the context of the
// request that enqueued them.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil || p.closed {
		return
	}
	workerCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				if _, err := p.runner.Run(workerCtx, job); err != nil {
					log.Printf("worker ingest %s/%s failed: %v", job.TenantID, job.DocumentID, err)
				}
			}
		}()
	}
}

func (p *Pool) Enqueue(ctx context.Context, job ingest.Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrQueueClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
}
