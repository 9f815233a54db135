package executor

import (
	"fmt"

	"github.com/cuemby/coldb/pkg/types"
)

// Fetch gathers col.Data[positions[i]] into a new int32 result of the same
// length as positions (spec.md §4.7).
func Fetch(col *types.Column, positions *types.Result) (*types.Result, error) {
	if positions.Type != types.TypePos {
		return nil, fmt.Errorf("fetch requires a position vector, got %s", positions.Type)
	}
	n := col.Table.RowCount()
	data := col.Data
	out := make([]int32, len(positions.Pos))
	for i, p := range positions.Pos {
		if p < 0 || int(p) >= n {
			return nil, fmt.Errorf("fetch: position %d out of range [0, %d)", p, n)
		}
		out[i] = data[p]
	}
	return &types.Result{Type: types.TypeI32, I32: out}, nil
}
