package schedulerengine

import (
	"context"
	"errors"
	"sync"
	"time"

	"gitlab.com/codemark.net/internal/config"
	"gitlab.com/codemark.net/internal/core/ports/primary"
	"gitlab.com/codemark.net/internal/core/ports/secondary"
)

const queueErrorBackoff = time.Second

// Dispatcher drains the run queue with a fixed pool of workers.
// Each dequeued result is executed to completion by one worker.
type Dispatcher struct {
	cfg      *config.DispatchConfig
	queue    secondary.RunQueue
	executor primary.RunExecutor
	logger   primary.Logger
}

func NewDispatcher(
	cfg *config.DispatchConfig,
	queue secondary.RunQueue,
	executor primary.RunExecutor,
	logger primary.Logger,
) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		queue:    queue,
		executor: executor,
		logger:   logger,
	}
}

// Start runs the workers until ctx is done and every in-flight run has returned
func (d *Dispatcher) Start(ctx context.Context) error {
	workers := d.cfg.Parallelism
	if workers < 1 {
		workers = 1
	}
	d.logger.Info("Dispatcher started", "workers", workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(worker int) {
			defer wg.Done()
			d.work(ctx, worker)
		}(i)
	}
	wg.Wait()

	d.logger.Info("Dispatcher stopped")
	return nil
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	for {
		if ctx.Err() != nil {
			return
		}
		resultID, err := d.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, secondary.ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			d.logger.Error("Failed to dequeue run", "worker", worker, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(queueErrorBackoff):
			}
			continue
		}

		d.logger.Info("Run assigned", "worker", worker, "resultId", resultID)
		if err := d.executor.Execute(ctx, resultID); err != nil {
			d.logger.Error("Failed to execute run", "worker", worker, "resultId", resultID, "error", err)
		}
	}
}
