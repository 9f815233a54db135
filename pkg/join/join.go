// Package join implements coldb's three join strategies over two
// (values, positions) pairs, returning two aligned position vectors
// (spec.md §4.10).
package join

import (
	"sync"

	"github.com/cuemby/coldb/pkg/types"
	"golang.org/x/sync/errgroup"
)

// CacheSizeThresholdDefault is the per-side row count at or below which an
// in-memory hash join is used instead of partitioning (tuned to an L1-ish
// working set; spec.md §4.10).
const CacheSizeThresholdDefault = 4096

// PartitionCountDefault is P, the grace hash join's partition count,
// sized to keep each partition within cache.
const PartitionCountDefault = 16

// Strategy selects a join algorithm.
type Strategy int

const (
	NestedLoop Strategy = iota
	Hash
)

// Side is one join input: values and their source-column positions, equal
// in length.
type Side struct {
	Values    []int32
	Positions []int64
}

func sideFromResults(values, positions *types.Result) Side {
	return Side{Values: values.I32, Positions: positions.Pos}
}

// Pairs is the output of a join: aligned left/right position vectors such
// that left.Positions[i] and right.Positions[i] came from matching values.
type Pairs struct {
	Left  []int64
	Right []int64
}

// Join dispatches to the requested strategy, or (for Hash) to the
// in-memory or partitioned variant depending on input size, per spec.md
// §4.10.
func Join(leftValues, leftPositions, rightValues, rightPositions *types.Result, strategy Strategy, cacheThreshold, partitionCount int) (*types.Result, *types.Result, error) {
	left := sideFromResults(leftValues, leftPositions)
	right := sideFromResults(rightValues, rightPositions)

	var pairs Pairs
	switch strategy {
	case NestedLoop:
		pairs = NestedLoopJoin(left, right)
	default:
		if len(left.Values) <= cacheThreshold || len(right.Values) <= cacheThreshold {
			pairs = HashJoin(left, right)
		} else {
			pairs = GraceHashJoin(left, right, partitionCount)
		}
	}

	l := &types.Result{Type: types.TypePos, Pos: pairs.Left}
	r := &types.Result{Type: types.TypePos, Pos: pairs.Right}
	return l, r, nil
}

// NestedLoopJoin is the O(|L|*|R|) baseline, used when requested
// explicitly (spec.md §4.10).
func NestedLoopJoin(left, right Side) Pairs {
	var out Pairs
	for i, lv := range left.Values {
		for j, rv := range right.Values {
			if lv == rv {
				out.Left = append(out.Left, left.Positions[i])
				out.Right = append(out.Right, right.Positions[j])
			}
		}
	}
	return out
}

// HashJoin builds a hash table over the smaller side and probes it with
// the larger, per spec.md §4.10.
func HashJoin(left, right Side) Pairs {
	build, probe := left, right
	buildIsLeft := true
	if len(right.Values) < len(left.Values) {
		build, probe = right, left
		buildIsLeft = false
	}

	table := make(map[int32][]int64, len(build.Values))
	for i, v := range build.Values {
		table[v] = append(table[v], build.Positions[i])
	}

	var out Pairs
	for i, v := range probe.Values {
		matches, ok := table[v]
		if !ok {
			continue
		}
		for _, buildPos := range matches {
			if buildIsLeft {
				out.Left = append(out.Left, buildPos)
				out.Right = append(out.Right, probe.Positions[i])
			} else {
				out.Left = append(out.Left, probe.Positions[i])
				out.Right = append(out.Right, buildPos)
			}
		}
	}
	return out
}

// GraceHashJoin partitions both sides into partitionCount buckets by
// bucket_id = value / d, where d = ceil(M / (P-1)) and M is the left
// side's maximum value, then joins each partition pair in parallel as an
// in-memory hash join, appending to the shared output under a mutex
// (spec.md §4.10).
func GraceHashJoin(left, right Side, partitionCount int) Pairs {
	if partitionCount < 2 {
		partitionCount = PartitionCountDefault
	}
	if len(left.Values) == 0 || len(right.Values) == 0 {
		return Pairs{}
	}

	m := left.Values[0]
	for _, v := range left.Values[1:] {
		if v > m {
			m = v
		}
	}
	d := (int64(m) + int64(partitionCount-2)) / int64(partitionCount-1)
	if d < 1 {
		d = 1
	}

	leftParts := partition(left, partitionCount, d)
	rightParts := partition(right, partitionCount, d)

	var out Pairs
	var mu sync.Mutex
	var g errgroup.Group
	for p := 0; p < partitionCount; p++ {
		p := p
		g.Go(func() error {
			lp, rp := leftParts[p], rightParts[p]
			if len(lp.Values) == 0 || len(rp.Values) == 0 {
				return nil
			}
			pairs := HashJoin(lp, rp)
			mu.Lock()
			out.Left = append(out.Left, pairs.Left...)
			out.Right = append(out.Right, pairs.Right...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // partition joins never return an error

	return out
}

// partition buckets a side into partitionCount growable (value, position)
// buckets in parallel, one goroutine per bucket range of the input to
// bound peak memory while partitioning (spec.md §4.10: "Both sides are
// partitioned in parallel").
func partition(s Side, partitionCount int, d int64) []Side {
	buckets := make([]Side, partitionCount)
	var mu sync.Mutex

	const chunk = 1 << 16
	var g errgroup.Group
	for start := 0; start < len(s.Values); start += chunk {
		end := start + chunk
		if end > len(s.Values) {
			end = len(s.Values)
		}
		start, end := start, end
		g.Go(func() error {
			local := make([]Side, partitionCount)
			for i := start; i < end; i++ {
				v := s.Values[i]
				b := int64(v) / d
				if b < 0 {
					b = 0
				}
				if b >= int64(partitionCount) {
					b = int64(partitionCount) - 1
				}
				local[b].Values = append(local[b].Values, v)
				local[b].Positions = append(local[b].Positions, s.Positions[i])
			}
			mu.Lock()
			for i := range buckets {
				buckets[i].Values = append(buckets[i].Values, local[i].Values...)
				buckets[i].Positions = append(buckets[i].Positions, local[i].Positions...)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return buckets
}
