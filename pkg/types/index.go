package types

// SortedIndex is a parallel (values, positions) projection over a column,
// stably sorted by value then original position (spec.md §4.3).
type SortedIndex struct {
	Values    []int32
	Positions []int64
}

func (s *SortedIndex) Len() int { return len(s.Values) }

// BTreeNode is a record in a BTree's node arena. Leaves carry Positions;
// internal nodes carry Children (indices into the same arena), per Design
// Note "raw pointer graphs -> arena + indices".
type BTreeNode struct {
	Leaf      bool
	Keys      []int32
	Children  []int32 // internal: child node indices, parallel to a key at Children[i] holding keys < Keys[i]... see pkg/index for split/search details
	Positions []int64 // leaf: row (or sorted-index) positions, parallel to Keys
	Next      int32   // leaf: index of the next leaf for range scans, -1 if none
}

// BTree is a disk-serializable B+-tree: an arena of nodes plus a root
// index, fanout, and a flag recording whether it indexes a clustered
// column's data directly or an unclustered column's sorted-index
// projection.
type BTree struct {
	Nodes     []BTreeNode
	Root      int32
	Fanout    int
	Clustered bool
}

// Histogram is a fixed NumHistogramBins equi-width summary of a column's
// values, used by the planner to estimate selectivity (spec.md §4.5).
type Histogram struct {
	Min, Max int32
	Counts   [NumHistogramBins]int64
}
