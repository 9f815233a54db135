package index

import "github.com/cuemby/coldb/pkg/types"

// BuildHistogram populates a fixed types.NumHistogramBins equi-width
// histogram from sorted column values (spec.md §4.5).
func BuildHistogram(sortedValues []int32) *types.Histogram {
	h := &types.Histogram{}
	if len(sortedValues) == 0 {
		return h
	}
	h.Min = sortedValues[0]
	h.Max = sortedValues[len(sortedValues)-1]

	span := int64(h.Max) - int64(h.Min) + 1
	for _, v := range sortedValues {
		bin := binFor(v, h.Min, span)
		h.Counts[bin]++
	}
	return h
}

func binFor(v, min int32, span int64) int {
	if span <= 0 {
		return 0
	}
	bin := int((int64(v-min) * types.NumHistogramBins) / span)
	if bin >= types.NumHistogramBins {
		bin = types.NumHistogramBins - 1
	}
	if bin < 0 {
		bin = 0
	}
	return bin
}

// Estimate returns the fraction of tuples whose value falls in [low, high]
// according to the histogram, used by the planner's scan-vs-index choice
// (spec.md §4.5). nil bounds mean +/-infinity.
func Estimate(h *types.Histogram, low, high *int32) float64 {
	total := int64(0)
	for _, c := range h.Counts {
		total += c
	}
	if total == 0 {
		return 0
	}

	lo := h.Min
	if low != nil && *low > lo {
		lo = *low
	}
	hi := h.Max
	if high != nil && *high < hi {
		hi = *high
	}
	if lo > hi {
		return 0
	}

	span := int64(h.Max) - int64(h.Min) + 1
	loBin := binFor(lo, h.Min, span)
	hiBin := binFor(hi, h.Min, span)

	matched := int64(0)
	for b := loBin; b <= hiBin; b++ {
		matched += h.Counts[b]
	}
	if matched > total {
		matched = total
	}
	return float64(matched) / float64(total)
}
