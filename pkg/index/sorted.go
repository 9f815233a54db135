// Package index implements coldb's two index structures — the sorted
// (value, position) projection and the leaf-linked B+-tree — plus the
// per-column histogram the planner uses to estimate selectivity.
package index

import (
	"sort"

	"github.com/cuemby/coldb/pkg/types"
)

// BuildSorted copies (data[i], i) pairs and stably sorts them by value then
// original position (spec.md §4.3). It uses sort.Stable over a plain
// sort.Interface rather than the original engine's hand-rolled quicksort,
// which several drafts get wrong (Design Note: "do not reproduce source
// bugs") — sort.Stable already guarantees the (value, position) tie-break
// the spec requires.
func BuildSorted(data []int32) *types.SortedIndex {
	n := len(data)
	idx := &types.SortedIndex{
		Values:    make([]int32, n),
		Positions: make([]int64, n),
	}
	copy(idx.Values, data)
	for i := range idx.Positions {
		idx.Positions[i] = int64(i)
	}
	sort.Stable(&sortedPairs{idx})
	return idx
}

type sortedPairs struct {
	idx *types.SortedIndex
}

func (p *sortedPairs) Len() int { return len(p.idx.Values) }
func (p *sortedPairs) Less(i, j int) bool {
	return p.idx.Values[i] < p.idx.Values[j]
}
func (p *sortedPairs) Swap(i, j int) {
	p.idx.Values[i], p.idx.Values[j] = p.idx.Values[j], p.idx.Values[i]
	p.idx.Positions[i], p.idx.Positions[j] = p.idx.Positions[j], p.idx.Positions[i]
}

// LeftmostGE returns the index of the leftmost value >= target, or
// len(values) if none.
func LeftmostGE(values []int32, target int32) int {
	return sort.Search(len(values), func(i int) bool { return values[i] >= target })
}

// RightmostLE returns the index one past the rightmost value <= target, or
// 0 if none (i.e. the half-open bracket is [LeftmostGE(low), RightmostLE(high))).
func RightmostLE(values []int32, target int32) int {
	return sort.Search(len(values), func(i int) bool { return values[i] > target })
}

// Bracket returns the half-open [lo, hi) range of indices into values whose
// value falls in [low, high], honoring nil as +/-infinity.
func Bracket(values []int32, low, high *int32) (lo, hi int) {
	lo = 0
	hi = len(values)
	if low != nil {
		lo = LeftmostGE(values, *low)
	}
	if high != nil {
		hi = RightmostLE(values, *high)
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
