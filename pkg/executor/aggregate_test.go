package executor

import (
	"testing"

	"github.com/cuemby/coldb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum_I32WidensToI64(t *testing.T) {
	r := &types.Result{Type: types.TypeI32, I32: []int32{1, 2, 3}}
	res, err := Sum(r)
	require.NoError(t, err)
	assert.Equal(t, types.TypeI64, res.Type)
	assert.Equal(t, int64(6), res.I64[0])
}

func TestSum_F32WidensToF64(t *testing.T) {
	r := &types.Result{Type: types.TypeF32, F32: []float32{1.5, 2.5}}
	res, err := Sum(r)
	require.NoError(t, err)
	assert.Equal(t, types.TypeF64, res.Type)
	assert.InDelta(t, 4.0, res.F64[0], 1e-9)
}

func TestSum_Pos(t *testing.T) {
	r := &types.Result{Type: types.TypePos, Pos: []int64{1, 2, 3}}
	res, err := Sum(r)
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.I64[0])
}

func TestAvg_EmptyIsZeroNotNaN(t *testing.T) {
	r := &types.Result{Type: types.TypeI32, I32: nil}
	res, err := Avg(r)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.F64[0])
}

func TestAvg_I32(t *testing.T) {
	r := &types.Result{Type: types.TypeI32, I32: []int32{2, 4, 6}}
	res, err := Avg(r)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, res.F64[0], 1e-9)
}

func TestMinMax_I32(t *testing.T) {
	r := &types.Result{Type: types.TypeI32, I32: []int32{5, 1, 9, 3}}
	min, err := Min(r)
	require.NoError(t, err)
	assert.Equal(t, int32(1), min.I32[0])

	max, err := Max(r)
	require.NoError(t, err)
	assert.Equal(t, int32(9), max.I32[0])
}

func TestMinMax_EmptyErrors(t *testing.T) {
	r := &types.Result{Type: types.TypeI32}
	_, err := Min(r)
	assert.Error(t, err)
	_, err = Max(r)
	assert.Error(t, err)
}

func TestMinMax_F64(t *testing.T) {
	r := &types.Result{Type: types.TypeF64, F64: []float64{3.2, 1.1, 9.9}}
	min, err := Min(r)
	require.NoError(t, err)
	assert.InDelta(t, 1.1, min.F64[0], 1e-9)
}

func TestAdd_IntWidensToI64(t *testing.T) {
	a := &types.Result{Type: types.TypeI32, I32: []int32{1, 2, 3}}
	b := &types.Result{Type: types.TypeI32, I32: []int32{10, 20, 30}}
	res, err := Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, types.TypeI64, res.Type)
	assert.Equal(t, []int64{11, 22, 33}, res.I64)
}

func TestSub_MixedFloatWidensToF64(t *testing.T) {
	a := &types.Result{Type: types.TypeI32, I32: []int32{10, 20}}
	b := &types.Result{Type: types.TypeF64, F64: []float64{1.5, 2.5}}
	res, err := Sub(a, b)
	require.NoError(t, err)
	assert.Equal(t, types.TypeF64, res.Type)
	assert.InDelta(t, 8.5, res.F64[0], 1e-9)
	assert.InDelta(t, 17.5, res.F64[1], 1e-9)
}

func TestArithmetic_MismatchedLengthsError(t *testing.T) {
	a := &types.Result{Type: types.TypeI32, I32: []int32{1, 2}}
	b := &types.Result{Type: types.TypeI32, I32: []int32{1}}
	_, err := Add(a, b)
	assert.Error(t, err)
}
