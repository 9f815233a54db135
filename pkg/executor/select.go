// Package executor implements the select, fetch, aggregate, and
// arithmetic operators of spec.md §4.6-§4.8. Every operator takes typed
// inputs (a *types.Column and/or *types.Result) and returns a
// *types.Result or an error; callers (pkg/api, pkg/scheduler) are
// responsible for turning an error into a client-facing status.
package executor

import (
	"fmt"
	"sort"

	"github.com/cuemby/coldb/pkg/index"
	"github.com/cuemby/coldb/pkg/planner"
	"github.com/cuemby/coldb/pkg/types"
)

// SelectBase evaluates a base-column range predicate [low, high] (either
// bound nil meaning unbounded) and returns an int64 position vector
// (spec.md §4.6).
func SelectBase(col *types.Column, low, high *int32, selectivityThreshold float64) (*types.Result, error) {
	path := planner.ChooseAccessPath(col, low, high, selectivityThreshold)
	n := col.Table.RowCount()
	if n > len(col.Data) {
		return nil, fmt.Errorf("column %q data shorter than table row count", col.Name)
	}
	data := col.Data[:n]

	if col.Clustered {
		return selectClustered(col, data, low, high, path)
	}
	return selectUnclustered(col, data, low, high, path)
}

func selectClustered(col *types.Column, data []int32, low, high *int32, path planner.AccessPath) (*types.Result, error) {
	switch {
	case path == planner.BTreeAccess && col.BTree != nil:
		positions := index.SearchRange(col.BTree, low, high)
		return posResult(positions), nil
	case col.Sorted:
		lo, hi := index.Bracket(data, low, high)
		positions := make([]int64, 0, hi-lo)
		for i := lo; i < hi; i++ {
			positions = append(positions, int64(i))
		}
		return posResult(positions), nil
	default:
		return scanColumn(data, low, high), nil
	}
}

func selectUnclustered(col *types.Column, data []int32, low, high *int32, path planner.AccessPath) (*types.Result, error) {
	switch {
	case path == planner.BTreeAccess && col.BTree != nil:
		// Leaf payloads are already row positions lifted from the sorted
		// index at build time; the result is unsorted (spec.md §4.6).
		positions := index.SearchRange(col.BTree, low, high)
		return posResult(positions), nil
	case col.Sorted && col.Index != nil:
		lo, hi := index.Bracket(col.Index.Values, low, high)
		positions := append([]int64(nil), col.Index.Positions[lo:hi]...)
		sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
		return posResult(positions), nil
	default:
		return scanColumn(data, low, high), nil
	}
}

func scanColumn(data []int32, low, high *int32) *types.Result {
	positions := make([]int64, 0)
	for i, v := range data {
		if inRange(v, low, high) {
			positions = append(positions, int64(i))
		}
	}
	return posResult(positions)
}

func inRange(v int32, low, high *int32) bool {
	if low != nil && v < *low {
		return false
	}
	if high != nil && v > *high {
		return false
	}
	return true
}

func posResult(positions []int64) *types.Result {
	return &types.Result{Type: types.TypePos, Pos: positions}
}

// SelectIntermediate filters a position vector by a parallel value vector
// against [low, high], retaining the original positions (spec.md §4.6,
// "Intermediate select").
func SelectIntermediate(positions, values *types.Result, low, high *int32) (*types.Result, error) {
	if positions.Type != types.TypePos {
		return nil, fmt.Errorf("select(pos, val, ...) requires a position vector, got %s", positions.Type)
	}
	if values.Type != types.TypeI32 {
		return nil, fmt.Errorf("select(pos, val, ...) requires an int32 value vector, got %s", values.Type)
	}
	if len(positions.Pos) != len(values.I32) {
		return nil, fmt.Errorf("position vector (%d) and value vector (%d) have different lengths", len(positions.Pos), len(values.I32))
	}

	out := make([]int64, 0, len(positions.Pos))
	for i, v := range values.I32 {
		if inRange(v, low, high) {
			out = append(out, positions.Pos[i])
		}
	}
	return posResult(out), nil
}
