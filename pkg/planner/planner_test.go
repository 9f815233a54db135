package planner

import (
	"testing"

	"github.com/cuemby/coldb/pkg/index"
	"github.com/cuemby/coldb/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestChooseAccessPath_NoIndexAlwaysScans(t *testing.T) {
	col := &types.Column{Name: "c"}
	low, high := int32(1), int32(2)
	assert.Equal(t, Scan, ChooseAccessPath(col, &low, &high, DefaultSelectivityThreshold))
}

func buildIndexedColumn(t *testing.T, data []int32, btree bool) *types.Column {
	t.Helper()
	sorted := index.BuildSorted(data)
	hist := index.BuildHistogram(sorted.Values)
	col := &types.Column{
		Name:      "c",
		Sorted:    true,
		Index:     sorted,
		Histogram: hist,
	}
	if btree {
		col.HasBTree = true
		col.BTree = index.BuildBTree(sorted.Values, sorted.Positions, index.FanoutDefault, false)
	}
	return col
}

func TestChooseAccessPath_LowSelectivityUsesIndex(t *testing.T) {
	data := make([]int32, 1000)
	for i := range data {
		data[i] = int32(i)
	}
	sortedCol := buildIndexedColumn(t, data, false)
	btreeCol := buildIndexedColumn(t, data, true)

	low, high := int32(500), int32(501) // ~0.2% selectivity
	assert.Equal(t, SortedAccess, ChooseAccessPath(sortedCol, &low, &high, DefaultSelectivityThreshold))
	assert.Equal(t, BTreeAccess, ChooseAccessPath(btreeCol, &low, &high, DefaultSelectivityThreshold))
}

func TestChooseAccessPath_HighSelectivityScans(t *testing.T) {
	data := make([]int32, 1000)
	for i := range data {
		data[i] = int32(i)
	}
	col := buildIndexedColumn(t, data, true)

	low, high := int32(0), int32(999) // 100% selectivity
	assert.Equal(t, Scan, ChooseAccessPath(col, &low, &high, DefaultSelectivityThreshold))
}

func TestChooseAccessPath_NoHistogramUsesIndexRegardless(t *testing.T) {
	data := []int32{1, 2, 3, 4, 5}
	sorted := index.BuildSorted(data)
	col := &types.Column{Name: "c", Sorted: true, Index: sorted}

	low, high := int32(1), int32(5)
	assert.Equal(t, SortedAccess, ChooseAccessPath(col, &low, &high, DefaultSelectivityThreshold))
}
