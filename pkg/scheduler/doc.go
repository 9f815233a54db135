/*
Package scheduler implements the batched-select worker pool (spec.md §4.9).

A ClientContext enters batch mode on batch_queries; every select that
follows is enqueued instead of executed. batch_execute hands the queue to
Scheduler.Drain, which runs the tasks over a bounded pool of goroutines and
blocks until all of them complete, then returns the context to NORMAL mode.

Unlike a long-running reconciliation loop, Scheduler carries no state
between batches: each Drain call builds its own errgroup sized to the
configured worker count and discards it once the batch is done.
*/
package scheduler
