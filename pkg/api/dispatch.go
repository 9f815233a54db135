package api

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cuemby/coldb/pkg/bulkload"
	"github.com/cuemby/coldb/pkg/config"
	"github.com/cuemby/coldb/pkg/executor"
	"github.com/cuemby/coldb/pkg/join"
	"github.com/cuemby/coldb/pkg/manager"
	"github.com/cuemby/coldb/pkg/metrics"
	"github.com/cuemby/coldb/pkg/scheduler"
	"github.com/cuemby/coldb/pkg/snapshot"
	"github.com/cuemby/coldb/pkg/types"
	"github.com/cuemby/coldb/pkg/wire"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// dispatcher turns one parsed Statement into the manager/executor/join/
// scheduler/bulkload call it names and classifies the result into a
// client-facing Status (spec.md §6, §7). Only this layer constructs
// types.StatusError-shaped responses; every package it calls into returns
// plain errors.
type dispatcher struct {
	manager *manager.Manager
	loader  *bulkload.Loader
	sched   *scheduler.Scheduler
	snap    *snapshot.Snapshotter
	cfg     config.Config
	logger  zerolog.Logger
}

// execute parses one line and runs it through instrument, which recovers
// panics and records metrics/logging around whatever the statement's
// function name turns out to be (spec.md §7: "a failed statement leaves
// the connection and its bindings intact").
func (d *dispatcher) execute(ctx *types.ClientContext, line string) (types.Status, []string) {
	stmt, err := wire.Parse(line)
	if err != nil {
		return types.IncorrectFormat, []string{err.Error()}
	}

	return instrument(d.logger, stmt.Func, line, func() (types.Status, []string) {
		return d.dispatch(ctx, stmt)
	})
}

// batch state machine transitions (spec.md §4.11): while BATCHING, only
// select (enqueued) and batch_execute (the transition into DRAINING) are
// accepted; every other operator, including writes (spec.md §4.9's "writes
// into a table while batch mode is on are a usage error"), is a protocol
// error. While DRAINING, "no new tasks accepted" at all.
func (d *dispatcher) checkBatchMode(ctx *types.ClientContext, funcName string) (types.Status, []string, bool) {
	switch ctx.Mode() {
	case types.Normal:
		return 0, nil, true
	case types.Batching:
		if funcName == "select" || funcName == "batch_execute" {
			return 0, nil, true
		}
	case types.Draining:
	}
	return types.IncorrectFormat, []string{fmt.Sprintf("%q is a protocol error while batching", funcName)}, false
}

func (d *dispatcher) dispatch(ctx *types.ClientContext, st *wire.Statement) (types.Status, []string) {
	if status, body, ok := d.checkBatchMode(ctx, st.Func); !ok {
		return status, body
	}

	switch st.Func {
	case "create":
		return d.create(st)
	case "relational_insert":
		return d.relationalInsert(ctx, st)
	case "select":
		return d.selectStmt(ctx, st)
	case "fetch":
		return d.fetch(ctx, st)
	case "avg", "sum", "min", "max":
		return d.aggregate(ctx, st)
	case "add", "sub":
		return d.arithmetic(ctx, st)
	case "print":
		return d.print(ctx, st)
	case "join":
		return d.join(ctx, st)
	case "batch_queries":
		return d.batchQueries(ctx)
	case "batch_execute":
		return d.batchExecute(ctx)
	case "shutdown":
		return d.shutdown()
	case "snapshot":
		return d.snapshotStmt()
	case "load":
		return d.load(st)
	default:
		return types.UnknownCommand, []string{fmt.Sprintf("unknown command %q", st.Func)}
	}
}

func (d *dispatcher) create(st *wire.Statement) (types.Status, []string) {
	if len(st.Args) < 2 {
		return types.IncorrectFormat, []string{"create requires at least a kind and a name"}
	}
	switch st.Arg(0) {
	case "db":
		if d.manager.Database() != nil {
			if err := d.snap.SnapshotNow(); err != nil {
				d.logger.Warn().Err(err).Msg("snapshot before discarding database failed")
			}
		}
		err := d.manager.CreateDatabase(st.Arg(1))
		return classify(err)
	case "tbl":
		if len(st.Args) != 4 {
			return types.IncorrectFormat, []string{"create(tbl,name,db,columnCapacity) takes 4 arguments"}
		}
		k, err := st.Int(3)
		if err != nil {
			return types.IncorrectFormat, []string{err.Error()}
		}
		return classify(d.manager.CreateTable(st.Arg(2), st.Arg(1), k))
	case "col":
		if len(st.Args) != 3 {
			return types.IncorrectFormat, []string{"create(col,name,db.tbl) takes 3 arguments"}
		}
		parts := wire.Qualified(st.Arg(2))
		if len(parts) != 2 {
			return types.IncorrectFormat, []string{fmt.Sprintf("%q is not of the form db.tbl", st.Arg(2))}
		}
		return classify(d.manager.AddColumn(parts[0], parts[1], st.Arg(1)))
	case "idx":
		if len(st.Args) != 4 {
			return types.IncorrectFormat, []string{"create(idx,db.tbl.col,kind,clustering) takes 4 arguments"}
		}
		parts := wire.Qualified(st.Arg(1))
		if len(parts) != 3 {
			return types.IncorrectFormat, []string{fmt.Sprintf("%q is not of the form db.tbl.col", st.Arg(1))}
		}
		var kind types.IndexKind
		switch st.Arg(2) {
		case "sorted":
			kind = types.IndexSorted
		case "btree":
			kind = types.IndexBTree
		default:
			return types.IncorrectFormat, []string{fmt.Sprintf("unknown index kind %q", st.Arg(2))}
		}
		clustered := st.Arg(3) == "clustered"
		if !clustered && st.Arg(3) != "unclustered" {
			return types.IncorrectFormat, []string{fmt.Sprintf("unknown clustering %q", st.Arg(3))}
		}
		return classify(d.manager.MarkIndex(parts[0], parts[1], parts[2], kind, clustered))
	default:
		return types.IncorrectFormat, []string{fmt.Sprintf("unknown create kind %q", st.Arg(0))}
	}
}

func (d *dispatcher) relationalInsert(ctx *types.ClientContext, st *wire.Statement) (types.Status, []string) {
	if ctx.Mode() != types.Normal {
		return types.IncorrectFormat, []string{"writes are not accepted while batching (spec.md §4.9)"}
	}
	if len(st.Args) < 2 {
		return types.IncorrectFormat, []string{"relational_insert(db.tbl,v,v,...) requires a target and at least one value"}
	}
	parts := wire.Qualified(st.Arg(0))
	if len(parts) != 2 {
		return types.IncorrectFormat, []string{fmt.Sprintf("%q is not of the form db.tbl", st.Arg(0))}
	}
	values := make([]int32, len(st.Args)-1)
	for i := 1; i < len(st.Args); i++ {
		v, err := st.Int32(i)
		if err != nil {
			return types.IncorrectFormat, []string{err.Error()}
		}
		values[i-1] = v
	}
	return classify(d.manager.Insert(parts[0], parts[1], values))
}

// selectStmt disambiguates base select(db.tbl.col,low,high) (3 args) from
// intermediate select(pos,val,low,high) (4 args) purely on arity, since
// wire.Parse has no column-name grammar to key on (spec.md §6.1).
func (d *dispatcher) selectStmt(ctx *types.ClientContext, st *wire.Statement) (types.Status, []string) {
	if len(st.Assign) != 1 {
		return types.IncorrectFormat, []string{"select requires exactly one assignment target"}
	}
	name := st.Assign[0]

	var run func() (*types.Result, error)
	switch len(st.Args) {
	case 3:
		col, status, body := d.resolveColumn(st.Arg(0))
		if col == nil {
			return status, body
		}
		low, err := st.Bound(1)
		if err != nil {
			return types.IncorrectFormat, []string{err.Error()}
		}
		high, err := st.Bound(2)
		if err != nil {
			return types.IncorrectFormat, []string{err.Error()}
		}
		threshold := d.cfg.SelectivityThreshold
		run = func() (*types.Result, error) { return executor.SelectBase(col, low, high, threshold) }
	case 4:
		positions, ok := ctx.Get(st.Arg(0))
		if !ok {
			return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(0))}
		}
		values, ok := ctx.Get(st.Arg(1))
		if !ok {
			return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(1))}
		}
		low, err := st.Bound(2)
		if err != nil {
			return types.IncorrectFormat, []string{err.Error()}
		}
		high, err := st.Bound(3)
		if err != nil {
			return types.IncorrectFormat, []string{err.Error()}
		}
		run = func() (*types.Result, error) { return executor.SelectIntermediate(positions, values, low, high) }
	default:
		return types.IncorrectFormat, []string{"select takes 3 (base) or 4 (intermediate) arguments"}
	}

	if ctx.Mode() == types.Batching {
		if !ctx.Enqueue(types.BatchTask{Name: name, Run: run}) {
			return types.ExecutionError, []string{"failed to enqueue batched select"}
		}
		return types.BatchWait, nil
	}

	result, err := run()
	if err != nil {
		return types.ExecutionError, []string{err.Error()}
	}
	ctx.Put(name, result)
	return types.OkDone, nil
}

func (d *dispatcher) fetch(ctx *types.ClientContext, st *wire.Statement) (types.Status, []string) {
	if len(st.Assign) != 1 || len(st.Args) != 2 {
		return types.IncorrectFormat, []string{"fetch(db.tbl.col,pos) requires one assignment target and two arguments"}
	}
	col, status, body := d.resolveColumn(st.Arg(0))
	if col == nil {
		return status, body
	}
	positions, ok := ctx.Get(st.Arg(1))
	if !ok {
		return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(1))}
	}
	result, err := executor.Fetch(col, positions)
	if err != nil {
		return types.ExecutionError, []string{err.Error()}
	}
	ctx.Put(st.Assign[0], result)
	return types.OkDone, nil
}

func (d *dispatcher) aggregate(ctx *types.ClientContext, st *wire.Statement) (types.Status, []string) {
	if len(st.Assign) != 1 || len(st.Args) != 1 {
		return types.IncorrectFormat, []string{fmt.Sprintf("%s takes exactly one argument and one assignment target", st.Func)}
	}
	x, ok := ctx.Get(st.Arg(0))
	if !ok {
		return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(0))}
	}

	var result *types.Result
	var err error
	switch st.Func {
	case "avg":
		result, err = executor.Avg(x)
	case "sum":
		result, err = executor.Sum(x)
	case "min":
		result, err = executor.Min(x)
	case "max":
		result, err = executor.Max(x)
	}
	if err != nil {
		return types.ExecutionError, []string{err.Error()}
	}
	ctx.Put(st.Assign[0], result)
	return types.OkDone, nil
}

func (d *dispatcher) arithmetic(ctx *types.ClientContext, st *wire.Statement) (types.Status, []string) {
	if len(st.Assign) != 1 || len(st.Args) != 2 {
		return types.IncorrectFormat, []string{fmt.Sprintf("%s takes exactly two arguments and one assignment target", st.Func)}
	}
	a, ok := ctx.Get(st.Arg(0))
	if !ok {
		return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(0))}
	}
	b, ok := ctx.Get(st.Arg(1))
	if !ok {
		return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(1))}
	}

	var result *types.Result
	var err error
	if st.Func == "add" {
		result, err = executor.Add(a, b)
	} else {
		result, err = executor.Sub(a, b)
	}
	if err != nil {
		return types.ExecutionError, []string{err.Error()}
	}
	ctx.Put(st.Assign[0], result)
	return types.OkDone, nil
}

// print renders N equal-length intermediates as CSV rows, one row per
// tuple, column order matching the argument order. Mismatched lengths are
// a client error, not a panic: the caller bound unrelated intermediates.
func (d *dispatcher) print(ctx *types.ClientContext, st *wire.Statement) (types.Status, []string) {
	if len(st.Args) == 0 {
		return types.IncorrectFormat, []string{"print requires at least one argument"}
	}
	results := make([]*types.Result, len(st.Args))
	for i := range st.Args {
		r, ok := ctx.Get(st.Arg(i))
		if !ok {
			return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(i))}
		}
		results[i] = r
	}

	n := results[0].Len()
	for _, r := range results[1:] {
		if r.Len() != n {
			return types.ExecutionError, []string{"print requires all arguments to have the same length"}
		}
	}

	lines := make([]string, n)
	parts := make([]string, len(results))
	for i := 0; i < n; i++ {
		for j, r := range results {
			parts[j] = r.At(i)
		}
		lines[i] = strings.Join(parts, ",")
	}
	return types.OkPrint, lines
}

func (d *dispatcher) join(ctx *types.ClientContext, st *wire.Statement) (types.Status, []string) {
	if len(st.Assign) != 2 || len(st.Args) != 5 {
		return types.IncorrectFormat, []string{"join(leftVal,leftPos,rightVal,rightPos,strategy) requires two assignment targets and five arguments"}
	}
	leftValues, ok := ctx.Get(st.Arg(0))
	if !ok {
		return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(0))}
	}
	leftPositions, ok := ctx.Get(st.Arg(1))
	if !ok {
		return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(1))}
	}
	rightValues, ok := ctx.Get(st.Arg(2))
	if !ok {
		return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(2))}
	}
	rightPositions, ok := ctx.Get(st.Arg(3))
	if !ok {
		return types.ObjectNotFound, []string{fmt.Sprintf("%q is not bound", st.Arg(3))}
	}

	var strategy join.Strategy
	switch st.Arg(4) {
	case "nested-loop":
		strategy = join.NestedLoop
	case "hash":
		strategy = join.Hash
	default:
		return types.IncorrectFormat, []string{fmt.Sprintf("unknown join strategy %q", st.Arg(4))}
	}

	// Tags this join's log/metrics lines so a grace hash join's
	// partitioning pass and partition-pair pass can be correlated back to
	// the statement that triggered them, the way the teacher tags
	// nodes/tasks with uuid.New().
	joinID := uuid.New().String()
	logger := d.logger.With().Str("join_id", joinID).Str("strategy", st.Arg(4)).Logger()
	logger.Debug().Msg("join started")

	timer := metrics.NewTimer()
	left, right, err := join.Join(leftValues, leftPositions, rightValues, rightPositions, strategy, d.cfg.CacheSizeThreshold, d.cfg.PartitionCount)
	timer.ObserveDurationVec(metrics.JoinLatency, st.Arg(4))
	if err != nil {
		logger.Warn().Err(err).Msg("join failed")
		return types.ExecutionError, []string{err.Error()}
	}
	logger.Debug().Int("rows", left.Len()).Msg("join completed")
	ctx.Put(st.Assign[0], left)
	ctx.Put(st.Assign[1], right)
	return types.OkDone, nil
}

func (d *dispatcher) batchQueries(ctx *types.ClientContext) (types.Status, []string) {
	if !ctx.EnterBatch() {
		return types.ExecutionError, []string{"already batching"}
	}
	return types.OkDone, nil
}

func (d *dispatcher) batchExecute(ctx *types.ClientContext) (types.Status, []string) {
	if err := d.sched.Drain(ctx); err != nil {
		return types.ExecutionError, []string{err.Error()}
	}
	return types.OkDone, nil
}

// shutdown snapshots the active database before asking the server loop to
// stop accepting new connections (spec.md §6.3); the caller (Server.
// handleConn) closes this connection and calls Server.Stop, which closes
// the listener, once it sees OkShutdown.
func (d *dispatcher) shutdown() (types.Status, []string) {
	if err := d.snap.SnapshotNow(); err != nil {
		d.logger.Error().Err(err).Msg("snapshot on shutdown failed")
		return types.ExecutionError, []string{err.Error()}
	}
	return types.OkShutdown, nil
}

// snapshotStmt is an out-of-band admin verb (not part of the statement set
// any client query composes against) letting an operator force a snapshot
// against a running server, e.g. from cmd/coldb's snapshot command.
func (d *dispatcher) snapshotStmt() (types.Status, []string) {
	if err := d.snap.SnapshotNow(); err != nil {
		return types.ExecutionError, []string{err.Error()}
	}
	return types.OkDone, nil
}

func (d *dispatcher) load(st *wire.Statement) (types.Status, []string) {
	if len(st.Args) != 1 {
		return types.IncorrectFormat, []string{`load("path") takes exactly one argument`}
	}
	n, elapsed, err := d.loader.TimedLoad(st.Arg(0))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.FileNotFound, []string{err.Error()}
		}
		return types.ExecutionError, []string{err.Error()}
	}
	return types.OkDone, []string{fmt.Sprintf("%d rows loaded in %s", n, elapsed)}
}

// resolveColumn looks up a "db.tbl.col"-qualified column, classifying a
// missing database, table, or column as ObjectNotFound rather than a
// generic execution error.
func (d *dispatcher) resolveColumn(qualified string) (*types.Column, types.Status, []string) {
	parts := wire.Qualified(qualified)
	if len(parts) != 3 {
		return nil, types.IncorrectFormat, []string{fmt.Sprintf("%q is not of the form db.tbl.col", qualified)}
	}
	dbName, tableName, colName := parts[0], parts[1], parts[2]

	db := d.manager.Database()
	if db == nil || db.Name != dbName {
		return nil, types.ObjectNotFound, []string{fmt.Sprintf("database %q not found", dbName)}
	}
	table := db.Table(tableName)
	if table == nil {
		return nil, types.ObjectNotFound, []string{fmt.Sprintf("table %q not found", tableName)}
	}
	col := table.Column(colName)
	if col == nil {
		return nil, types.ObjectNotFound, []string{fmt.Sprintf("column %q not found", colName)}
	}
	return col, types.OkDone, nil
}

// classify turns a plain error from pkg/manager into a client-facing
// status by matching the error text manager produces (spec.md §7): this is
// the one place in coldb that's allowed to do that, since every other
// layer is deliberately kept free of client-facing status concerns.
func classify(err error) (types.Status, []string) {
	if err == nil {
		return types.OkDone, nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "already exists") || strings.Contains(msg, "already has"):
		return types.ObjectAlreadyExists, []string{msg}
	case strings.Contains(msg, "not found") || strings.Contains(msg, "no active database") || strings.Contains(msg, "is not active"):
		return types.ObjectNotFound, []string{msg}
	default:
		return types.ExecutionError, []string{msg}
	}
}
