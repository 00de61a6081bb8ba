package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/fyreone/firekb/internal/domain"
	"github.com/panjf2000/ants/v2"
)

// JobClaimer claims pending ingestion jobs and records failures
type JobClaimer interface {
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestionJob, error)
	Fail(ctx context.Context, id string, errMsg string) error
}

// JobRunner processes one claimed ingestion job end to end
type JobRunner interface {
	Process(ctx context.Context, job *domain.IngestionJob) error
}

// IngestionWorker claims batches of pending ingestion jobs and runs them on
// a bounded goroutine pool. The claim query serializes jobs per document, so
// concurrency here only ever spans distinct documents.
type IngestionWorker struct {
	claimer    JobClaimer
	runner     JobRunner
	pool       *ants.Pool
	claimLimit int
}

// NewIngestionWorker creates an IngestionWorker with a pool of poolSize
// concurrent job slots.
func NewIngestionWorker(claimer JobClaimer, runner JobRunner, poolSize, claimLimit int) (*IngestionWorker, error) {
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &IngestionWorker{
		claimer:    claimer,
		runner:     runner,
		pool:       pool,
		claimLimit: claimLimit,
	}, nil
}

// ProcessJobs implements the JobProcessor interface. It claims one batch and
// waits for every claimed job to finish before returning, so a stopped
// worker never abandons a claimed job silently: jobs that cannot run because
// the context is already cancelled are marked failed.
func (w *IngestionWorker) ProcessJobs(ctx context.Context) error {
	claimed, err := w.claimer.ClaimPending(ctx, w.claimLimit)
	if err != nil {
		return fmt.Errorf("claim pending jobs: %w", err)
	}
	if len(claimed) == 0 {
		return nil
	}

	log.Printf("worker: claimed %d ingestion jobs", len(claimed))

	var wg sync.WaitGroup
	for _, job := range claimed {
		job := job
		wg.Add(1)

		if ctx.Err() != nil {
			w.abandon(job, ctx.Err())
			wg.Done()
			continue
		}

		submitErr := w.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				w.abandon(job, ctx.Err())
				return
			}
			if err := w.runner.Process(ctx, job); err != nil {
				log.Printf("worker: job %s failed: %v", job.ID, err)
			}
		})
		if submitErr != nil {
			w.abandon(job, submitErr)
			wg.Done()
		}
	}
	wg.Wait()

	return nil
}

// Release shuts down the goroutine pool.
func (w *IngestionWorker) Release() {
	w.pool.Release()
}

// abandon marks a claimed job failed without running it. Uses a fresh
// context because the worker's own context may already be cancelled.
func (w *IngestionWorker) abandon(job *domain.IngestionJob, cause error) {
	msg := fmt.Sprintf("abandoned before processing: %v", cause)
	if err := w.claimer.Fail(context.Background(), job.ID, msg); err != nil {
		log.Printf("worker: failed to mark abandoned job %s failed: %v", job.ID, err)
	}
}
