package scheduler

import (
	"fmt"

	"github.com/cuemby/coldb/pkg/log"
	"github.com/cuemby/coldb/pkg/metrics"
	"github.com/cuemby/coldb/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// WorkerCountDefault is the size of the worker pool spun up for each batch,
// T in spec.md §4.9.
const WorkerCountDefault = 8

// Scheduler drains a ClientContext's batched-select queue across a bounded
// worker pool, one pool per batch_execute (spec.md §4.9 "a worker pool of T
// threads is created"). It holds no state between drains: every call to
// Drain builds and tears its own errgroup, matching the spec's create-on-
// batch_queries, teardown-on-batch_execute lifecycle.
type Scheduler struct {
	workerCount int
	logger      zerolog.Logger
}

// New returns a Scheduler whose worker pool is capped at workerCount tasks
// running concurrently; workerCount <= 0 falls back to WorkerCountDefault.
func New(workerCount int) *Scheduler {
	if workerCount <= 0 {
		workerCount = WorkerCountDefault
	}
	return &Scheduler{
		workerCount: workerCount,
		logger:      log.WithComponent("scheduler"),
	}
}

// Drain runs every task queued in ctx since EnterBatch, writes each task's
// result into ctx under its declared name, and returns ctx to NORMAL mode
// (spec.md §4.11: BATCHING --batch_execute--> DRAINING --all-done--> NORMAL).
// Tasks execute concurrently and without ordering guarantees among
// themselves (spec.md §4.10); column data they read is treated read-only
// for the duration of the batch, so no lock is taken around task.Run.
//
// Drain returns the first task error encountered, but every queued task
// still runs to completion before it returns — a batch is an all-or-report
// operation, not a fail-fast one, since later tasks may have already
// started on other workers by the time an earlier one fails.
func (s *Scheduler) Drain(ctx *types.ClientContext) error {
	tasks := ctx.BeginDrain()
	if tasks == nil {
		return fmt.Errorf("context is not in batching mode")
	}
	defer ctx.EndDrain()

	if len(tasks) == 0 {
		return nil
	}

	timer := metrics.NewTimer()
	metrics.BatchSize.Observe(float64(len(tasks)))

	g := new(errgroup.Group)
	g.SetLimit(s.workerCount)

	errs := make([]error, len(tasks))
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			result, err := task.Run()
			if err != nil {
				errs[i] = fmt.Errorf("task %q: %w", task.Name, err)
				return nil
			}
			ctx.Put(task.Name, result)
			return nil
		})
	}
	_ = g.Wait()

	timer.ObserveDuration(metrics.BatchLatency)

	for _, err := range errs {
		if err != nil {
			s.logger.Error().Err(err).Msg("batch task failed")
			return err
		}
	}
	return nil
}
