package executor

import (
	"fmt"

	"github.com/cuemby/coldb/pkg/types"
)

// Sum widens int32/int64 inputs to int64 and float32 inputs to float64
// (spec.md §4.8).
func Sum(r *types.Result) (*types.Result, error) {
	switch r.Type {
	case types.TypeI32:
		var total int64
		for _, v := range r.I32 {
			total += int64(v)
		}
		return &types.Result{Type: types.TypeI64, I64: []int64{total}}, nil
	case types.TypeI64, types.TypePos:
		var total int64
		src := r.I64
		if r.Type == types.TypePos {
			src = r.Pos
		}
		for _, v := range src {
			total += v
		}
		return &types.Result{Type: types.TypeI64, I64: []int64{total}}, nil
	case types.TypeF32:
		var total float64
		for _, v := range r.F32 {
			total += float64(v)
		}
		return &types.Result{Type: types.TypeF64, F64: []float64{total}}, nil
	case types.TypeF64:
		var total float64
		for _, v := range r.F64 {
			total += v
		}
		return &types.Result{Type: types.TypeF64, F64: []float64{total}}, nil
	default:
		return nil, fmt.Errorf("sum: unsupported result type %s", r.Type)
	}
}

// Avg always produces float64; an empty input averages to 0 (spec.md
// §4.8), not NaN.
func Avg(r *types.Result) (*types.Result, error) {
	n := r.Len()
	if n == 0 {
		return &types.Result{Type: types.TypeF64, F64: []float64{0}}, nil
	}
	sum, err := Sum(r)
	if err != nil {
		return nil, err
	}
	var total float64
	if sum.Type == types.TypeI64 {
		total = float64(sum.I64[0])
	} else {
		total = sum.F64[0]
	}
	return &types.Result{Type: types.TypeF64, F64: []float64{total / float64(n)}}, nil
}

// Min preserves the input element type.
func Min(r *types.Result) (*types.Result, error) { return extremum(r, true) }

// Max preserves the input element type.
func Max(r *types.Result) (*types.Result, error) { return extremum(r, false) }

func extremum(r *types.Result, wantMin bool) (*types.Result, error) {
	if r.Len() == 0 {
		return nil, fmt.Errorf("cannot take min/max of an empty result")
	}
	switch r.Type {
	case types.TypeI32:
		best := r.I32[0]
		for _, v := range r.I32[1:] {
			if (wantMin && v < best) || (!wantMin && v > best) {
				best = v
			}
		}
		return &types.Result{Type: types.TypeI32, I32: []int32{best}}, nil
	case types.TypeI64, types.TypePos:
		src := r.I64
		if r.Type == types.TypePos {
			src = r.Pos
		}
		best := src[0]
		for _, v := range src[1:] {
			if (wantMin && v < best) || (!wantMin && v > best) {
				best = v
			}
		}
		return &types.Result{Type: types.TypeI64, I64: []int64{best}}, nil
	case types.TypeF32:
		best := r.F32[0]
		for _, v := range r.F32[1:] {
			if (wantMin && v < best) || (!wantMin && v > best) {
				best = v
			}
		}
		return &types.Result{Type: types.TypeF32, F32: []float32{best}}, nil
	case types.TypeF64:
		best := r.F64[0]
		for _, v := range r.F64[1:] {
			if (wantMin && v < best) || (!wantMin && v > best) {
				best = v
			}
		}
		return &types.Result{Type: types.TypeF64, F64: []float64{best}}, nil
	default:
		return nil, fmt.Errorf("min/max: unsupported result type %s", r.Type)
	}
}

// Add is element-wise addition; Sub is element-wise subtraction. Both
// require equal-length inputs and widen per spec.md §4.8 (int32+int32 ->
// int64; any float operand -> float64).
func Add(a, b *types.Result) (*types.Result, error) { return arithmetic(a, b, func(x, y float64) float64 { return x + y }) }
func Sub(a, b *types.Result) (*types.Result, error) { return arithmetic(a, b, func(x, y float64) float64 { return x - y }) }

func arithmetic(a, b *types.Result, op func(x, y float64) float64) (*types.Result, error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("arithmetic requires equal-length inputs, got %d and %d", a.Len(), b.Len())
	}
	n := a.Len()
	isFloat := a.Type == types.TypeF32 || a.Type == types.TypeF64 || b.Type == types.TypeF32 || b.Type == types.TypeF64

	if isFloat {
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = op(scalarAt(a, i), scalarAt(b, i))
		}
		return &types.Result{Type: types.TypeF64, F64: out}, nil
	}

	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = int64(op(scalarAt(a, i), scalarAt(b, i)))
	}
	return &types.Result{Type: types.TypeI64, I64: out}, nil
}

func scalarAt(r *types.Result, i int) float64 {
	switch r.Type {
	case types.TypeI32:
		return float64(r.I32[i])
	case types.TypeI64:
		return float64(r.I64[i])
	case types.TypePos:
		return float64(r.Pos[i])
	case types.TypeF32:
		return float64(r.F32[i])
	case types.TypeF64:
		return r.F64[i]
	default:
		return 0
	}
}
