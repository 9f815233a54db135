package executor

import (
	"testing"

	"github.com/cuemby/coldb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_GathersByPosition(t *testing.T) {
	col := newColumn(t, []int32{10, 20, 30, 40}, false)
	positions := &types.Result{Type: types.TypePos, Pos: []int64{3, 0, 2}}

	res, err := Fetch(col, positions)
	require.NoError(t, err)
	assert.Equal(t, []int32{40, 10, 30}, res.I32)
}

func TestFetch_RequiresPositionVector(t *testing.T) {
	col := newColumn(t, []int32{1, 2}, false)
	notPositions := &types.Result{Type: types.TypeI32, I32: []int32{0}}
	_, err := Fetch(col, notPositions)
	assert.Error(t, err)
}

func TestFetch_OutOfRangePositionErrors(t *testing.T) {
	col := newColumn(t, []int32{1, 2}, false)
	positions := &types.Result{Type: types.TypePos, Pos: []int64{5}}
	_, err := Fetch(col, positions)
	assert.Error(t, err)
}

func TestFetch_NegativePositionErrors(t *testing.T) {
	col := newColumn(t, []int32{1, 2}, false)
	positions := &types.Result{Type: types.TypePos, Pos: []int64{-1}}
	_, err := Fetch(col, positions)
	assert.Error(t, err)
}

func TestFetch_EmptyPositions(t *testing.T) {
	col := newColumn(t, []int32{1, 2}, false)
	positions := &types.Result{Type: types.TypePos, Pos: nil}
	res, err := Fetch(col, positions)
	require.NoError(t, err)
	assert.Empty(t, res.I32)
}
