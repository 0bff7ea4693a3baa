package pdf

import (
	"math"
	"sort"
)

// Tolerance for floating point comparisons
const FloatTolerance = 0.1

// DeduplicateEdges removes edges that repeat another edge in either direction.
// Rectangles painted with B, or stroked twice, otherwise produce each side
// more than once. The input slice is not modified.
func DeduplicateEdges(edges []Edge) []Edge {
	if len(edges) == 0 {
		return edges
	}

	sorted := make([]Edge, len(edges))
	for i, e := range edges {
		sorted[i] = canonical(e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.X0 != b.X0 {
			return a.X0 < b.X0
		}
		if a.Y0 != b.Y0 {
			return a.Y0 < b.Y0
		}
		if a.X1 != b.X1 {
			return a.X1 < b.X1
		}
		return a.Y1 < b.Y1
	})

	result := []Edge{sorted[0]}
	for _, curr := range sorted[1:] {
		dup := false
		// Equal edges are adjacent up to the tolerance on X0.
		for k := len(result) - 1; k >= 0 && curr.X0-result[k].X0 < FloatTolerance; k-- {
			if edgesEqual(result[k], curr) {
				dup = true
				break
			}
		}
		if !dup {
			result = append(result, curr)
		}
	}
	return result
}

// canonical orders the endpoints so equal edges compare equal regardless of
// drawing direction.
func canonical(e Edge) Edge {
	if e.X1 < e.X0 || (e.X1 == e.X0 && e.Y1 < e.Y0) {
		e.X0, e.Y0, e.X1, e.Y1 = e.X1, e.Y1, e.X0, e.Y0
	}
	return e
}

// edgesEqual checks if two canonical edges are essentially the same
func edgesEqual(a, b Edge) bool {
	return math.Abs(a.X0-b.X0) < FloatTolerance &&
		math.Abs(a.Y0-b.Y0) < FloatTolerance &&
		math.Abs(a.X1-b.X1) < FloatTolerance &&
		math.Abs(a.Y1-b.Y1) < FloatTolerance
}

// FilterShortEdges keeps the edges at least minLen long
func FilterShortEdges(edges []Edge, minLen float64) []Edge {
	result := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.Length() >= minLen {
			result = append(result, e)
		}
	}
	return result
}
