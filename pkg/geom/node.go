package geom

import (
	"math"
	"sort"

	"github.com/tidwall/rtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// nodeMergeTol is the distance under which two noded vertices are the same node.
const nodeMergeTol = 1e-6

// Node splits every segment at each point it shares with another segment, so
// that segments only meet at their endpoints. Zero-length pieces and duplicate
// pieces (in either direction) are removed.
func Node(segs []Segment) []Segment {
	if len(segs) == 0 {
		return nil
	}

	var tr rtree.RTreeG[int]
	for i, s := range segs {
		min, max := s.Bounds().Expand(Epsilon).rect()
		tr.Insert(min, max, i)
	}

	vi := newVertexIndex(nodeMergeTol)
	seen := make(map[[2]int]struct{})
	var out []Segment

	for i, s := range segs {
		cuts := []r2.Vec{s.A, s.B}
		min, max := s.Bounds().Expand(Epsilon).rect()
		tr.Search(min, max, func(_, _ [2]float64, j int) bool {
			if j != i {
				cuts = append(cuts, intersect(s, segs[j])...)
			}
			return true
		})

		d := r2.Sub(s.B, s.A)
		l2 := r2.Norm2(d)
		if l2 <= Epsilon*Epsilon {
			continue
		}
		sort.Slice(cuts, func(a, b int) bool {
			return r2.Dot(r2.Sub(cuts[a], s.A), d) < r2.Dot(r2.Sub(cuts[b], s.A), d)
		})

		prev := vi.intern(cuts[0])
		for _, c := range cuts[1:] {
			cur := vi.intern(c)
			if cur == prev {
				continue
			}
			key := [2]int{prev, cur}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				out = append(out, Segment{A: vi.pts[prev], B: vi.pts[cur]})
			}
			prev = cur
		}
	}
	return out
}

// angleOf returns the direction of the vector from a to b in radians.
func angleOf(a, b r2.Vec) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}
