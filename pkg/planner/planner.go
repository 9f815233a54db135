// Package planner implements coldb's access-path choice: for a given
// range predicate and column, decide between a sequential scan and random
// access through whatever index structure the column carries (spec.md
// §4.5).
package planner

import (
	"github.com/cuemby/coldb/pkg/index"
	"github.com/cuemby/coldb/pkg/types"
)

// AccessPath is the chosen evaluation strategy for a base-column select.
type AccessPath int

const (
	Scan AccessPath = iota
	SortedAccess
	BTreeAccess
)

// DefaultSelectivityThreshold is the scan-vs-index switch point (spec.md
// §4.5): below this estimated selectivity, random access beats a
// sequential scan.
const DefaultSelectivityThreshold = 0.6

// ChooseAccessPath picks how to evaluate col in [low, high]. A column with
// no index always scans. A column with a histogram uses its selectivity
// estimate against threshold; one without (e.g. a sorted index built
// before enough data existed for a histogram) conservatively scans only
// when it has no index at all.
func ChooseAccessPath(col *types.Column, low, high *int32, threshold float64) AccessPath {
	kind := col.IndexKind()
	if kind == types.IndexNone {
		return Scan
	}

	if col.Histogram != nil {
		selectivity := index.Estimate(col.Histogram, low, high)
		if selectivity >= threshold {
			return Scan
		}
	}

	if kind == types.IndexBTree {
		return BTreeAccess
	}
	return SortedAccess
}
