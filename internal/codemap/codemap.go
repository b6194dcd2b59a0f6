// Package codemap precomputes the non-code byte ranges of a source file
// (string/regex/heredoc bodies and comments) so that byte-oriented cops
// can cheaply ask "is this position inside a string literal?" without
// re-scanning the file (spec §3/§4.1, component B).
package codemap

import "sort"

// Range is a half-open byte range [Start, End) that is not code.
type Range struct {
	Start int
	End   int
}

// CodeMap is a sorted, non-overlapping list of non-code byte ranges. It
// is immutable once built.
type CodeMap struct {
	ranges []Range
}

// Build constructs a CodeMap from the parser's token/comment output,
// merging adjacent or overlapping ranges and dropping empty/inverted
// ones. The input does not need to be sorted.
func Build(raw []Range) *CodeMap {
	filtered := make([]Range, 0, len(raw))
	for _, r := range raw {
		if r.End > r.Start {
			filtered = append(filtered, r)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Start != filtered[j].Start {
			return filtered[i].Start < filtered[j].Start
		}
		return filtered[i].End < filtered[j].End
	})

	merged := make([]Range, 0, len(filtered))
	for _, r := range filtered {
		if n := len(merged); n > 0 && r.Start <= merged[n-1].End {
			if r.End > merged[n-1].End {
				merged[n-1].End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}

	return &CodeMap{ranges: merged}
}

// Ranges returns the merged non-code ranges in sorted order. Callers must
// not mutate the returned slice.
func (c *CodeMap) Ranges() []Range { return c.ranges }

// IsCode reports whether offset lies outside every recorded non-code
// range (true) or inside one (false).
func (c *CodeMap) IsCode(offset int) bool {
	i := sort.Search(len(c.ranges), func(i int) bool {
		return c.ranges[i].End > offset
	})
	if i >= len(c.ranges) {
		return true
	}
	return !(c.ranges[i].Start <= offset && offset < c.ranges[i].End)
}

// IsCodeRange reports whether no byte in [start, end) falls inside any
// recorded non-code range.
func (c *CodeMap) IsCodeRange(start, end int) bool {
	if end <= start {
		return true
	}
	// Find the first non-code range whose End is beyond start; if that
	// range begins before end, the requested range intersects it.
	i := sort.Search(len(c.ranges), func(i int) bool {
		return c.ranges[i].End > start
	})
	return !(i < len(c.ranges) && c.ranges[i].Start < end)
}
