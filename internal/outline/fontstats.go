package outline

import (
	"math"
	"slices"
	"sort"
)

const (
	// MaxLevels is the number of font sizes that map to heading levels H1..H4.
	MaxLevels = 4

	// sizeTolerance absorbs sub-pixel noise in reported font sizes.
	sizeTolerance = 0.5
)

// Histogram counts how often each exact font size occurs in a document.
type Histogram struct {
	counts map[float64]int
	order  []float64 // first-seen order
}

// CollectFontSizes tallies the size of every line of every page.
func CollectFontSizes(pages []PageLines) Histogram {
	h := Histogram{counts: make(map[float64]int)}
	for _, page := range pages {
		for _, line := range page {
			if line.Text == "" {
				continue
			}
			if _, seen := h.counts[line.Size]; !seen {
				h.order = append(h.order, line.Size)
			}
			h.counts[line.Size]++
		}
	}
	return h
}

// Count returns the number of lines typeset at exactly size.
func (h Histogram) Count(size float64) int {
	return h.counts[size]
}

// Len returns the number of distinct sizes.
func (h Histogram) Len() int {
	return len(h.order)
}

// Ranked returns the distinct sizes by descending occurrence count. Equal
// counts are ordered larger size first.
func (h Histogram) Ranked() []float64 {
	out := slices.Clone(h.order)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := h.counts[out[i]], h.counts[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] > out[j]
	})
	return out
}

// Levels returns at most n sizes from the ranked list, re-sorted in
// descending numeric order. levels[0] is the title font and levels[i] maps to
// heading level H(i+1).
func (h Histogram) Levels(n int) []float64 {
	ranked := h.Ranked()
	sort.Sort(sort.Reverse(sort.Float64Slice(ranked)))
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func sameSize(a, b float64) bool {
	return math.Abs(a-b) < sizeTolerance
}
