package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Len(t *testing.T) {
	cases := []struct {
		name string
		r    *Result
		want int
	}{
		{"i32", &Result{Type: TypeI32, I32: []int32{1, 2}}, 2},
		{"i64", &Result{Type: TypeI64, I64: []int64{1, 2, 3}}, 3},
		{"f32", &Result{Type: TypeF32, F32: []float32{1}}, 1},
		{"f64", &Result{Type: TypeF64, F64: nil}, 0},
		{"pos", &Result{Type: TypePos, Pos: []int64{1, 2, 3, 4}}, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.r.Len(), c.name)
	}
}

func TestResult_At(t *testing.T) {
	assert.Equal(t, "7", (&Result{Type: TypeI32, I32: []int32{7}}).At(0))
	assert.Equal(t, "9", (&Result{Type: TypePos, Pos: []int64{9}}).At(0))
	assert.Equal(t, "3", (&Result{Type: TypeI64, I64: []int64{3}}).At(0))
}

func TestClientContext_PutGetReplace(t *testing.T) {
	ctx := NewClientContext()
	_, ok := ctx.Get("x")
	assert.False(t, ok)

	ctx.Put("x", &Result{Type: TypeI32, I32: []int32{1}})
	r, ok := ctx.Get("x")
	require.True(t, ok)
	assert.Equal(t, int32(1), r.I32[0])

	// Re-putting the same name replaces rather than accumulates.
	ctx.Put("x", &Result{Type: TypeI32, I32: []int32{2}})
	r, ok = ctx.Get("x")
	require.True(t, ok)
	assert.Equal(t, int32(2), r.I32[0])
}
