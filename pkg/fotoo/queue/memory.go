package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Memory is an in-process job queue: a bounded channel consumed by a
// fixed-size pool of long-lived workers. Jobs survive only as long as the
// process; deployments that need durability use the NATS transport.
type Memory struct {
	jobs    chan job
	workers int
	policy  RetryPolicy
	logger  *slog.Logger
}

// MemoryConfig configures the in-process queue.
type MemoryConfig struct {
	Workers int
	Buffer  int
	Policy  RetryPolicy
	Logger  *slog.Logger
}

// NewMemory creates an in-process queue.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 128
	}
	if cfg.Policy.MaxAttempts <= 0 {
		cfg.Policy = DefaultRetryPolicy
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Memory{
		jobs:    make(chan job, cfg.Buffer),
		workers: cfg.Workers,
		policy:  cfg.Policy,
		logger:  cfg.Logger,
	}
}

// Enqueue submits an asset id as a first-attempt job.
func (q *Memory) Enqueue(ctx context.Context, assetID uuid.UUID) error {
	return q.push(ctx, job{AssetID: assetID, Attempt: 1})
}

func (q *Memory) push(ctx context.Context, j job) error {
	select {
	case q.jobs <- j:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue asset %s: %w", j.AssetID, ctx.Err())
	}
}

// Run consumes jobs with the configured number of workers until ctx is
// cancelled. Each job is handled to completion by exactly one worker.
func (q *Memory) Run(ctx context.Context, handle Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		worker := i
		g.Go(func() error {
			logger := q.logger.With("worker", worker)
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case j := <-q.jobs:
					q.deliver(ctx, logger, handle, j)
				}
			}
		})
	}
	return g.Wait()
}

func (q *Memory) deliver(ctx context.Context, logger *slog.Logger, handle Handler, j job) {
	err := handle(ctx, j.AssetID)
	if err == nil {
		return
	}

	if q.policy.Exhausted(j.Attempt) {
		logger.Error("job failed, retries exhausted",
			"asset_id", j.AssetID, "attempt", j.Attempt, "err", err)
		return
	}

	delay := q.policy.Backoff(j.Attempt)
	logger.Warn("job failed, scheduling retry",
		"asset_id", j.AssetID, "attempt", j.Attempt, "delay", delay, "err", err)

	next := job{AssetID: j.AssetID, Attempt: j.Attempt + 1}
	// Requeue from a detached timer so the worker stays free during the
	// backoff window.
	go func() {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
			if perr := q.push(ctx, next); perr != nil {
				logger.Error("requeue failed", "asset_id", next.AssetID, "err", perr)
			}
		}
	}()
}
