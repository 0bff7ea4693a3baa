package geom

import (
	"github.com/tidwall/rtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// vertexIndex interns points so that every point within tol of an existing
// vertex resolves to that vertex.
type vertexIndex struct {
	tr  rtree.RTreeG[int]
	pts []r2.Vec
	tol float64
}

func newVertexIndex(tol float64) *vertexIndex {
	return &vertexIndex{tol: tol}
}

// find returns the closest indexed vertex within tol of p.
func (vi *vertexIndex) find(p r2.Vec) (int, bool) {
	best, bestDist := -1, vi.tol
	min, max := Box{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}.Expand(vi.tol).rect()
	vi.tr.Search(min, max, func(_, _ [2]float64, id int) bool {
		if d := r2.Norm(r2.Sub(vi.pts[id], p)); d <= bestDist {
			best, bestDist = id, d
		}
		return true
	})
	return best, best >= 0
}

// intern returns the id of the vertex p snaps to, adding p when nothing is close.
func (vi *vertexIndex) intern(p r2.Vec) int {
	if id, ok := vi.find(p); ok {
		return id
	}
	id := len(vi.pts)
	vi.pts = append(vi.pts, p)
	vi.tr.Insert([2]float64{p.X, p.Y}, [2]float64{p.X, p.Y}, id)
	return id
}

// Snap closes the small gaps left by imprecise line-work. Endpoints closer than
// tol collapse onto the first endpoint seen in their neighbourhood, then every
// endpoint used by a single segment that lies within tol of another segment is
// moved onto that segment. Segments that collapse to a point are dropped.
func Snap(segs []Segment, tol float64) []Segment {
	if len(segs) == 0 {
		return nil
	}
	if tol <= 0 {
		return dropDegenerate(segs)
	}

	vi := newVertexIndex(tol)
	ends := make([][2]int, 0, len(segs))
	degree := make(map[int]int)
	for _, s := range segs {
		a, b := vi.intern(s.A), vi.intern(s.B)
		if a == b {
			continue
		}
		ends = append(ends, [2]int{a, b})
		degree[a]++
		degree[b]++
	}

	out := make([]Segment, len(ends))
	for i, e := range ends {
		out[i] = Segment{A: vi.pts[e[0]], B: vi.pts[e[1]]}
	}

	var tr rtree.RTreeG[int]
	for i, s := range out {
		min, max := s.Bounds().rect()
		tr.Insert(min, max, i)
	}

	// Dangling endpoints are pulled onto the interior of a nearby segment so the
	// noder splits it there.
	moved := make(map[int]r2.Vec)
	for i, e := range ends {
		for k, id := range e {
			if degree[id] != 1 {
				continue
			}
			p := vi.pts[id]
			if q, ok := projectOnto(&tr, out, i, p, tol); ok {
				moved[id] = q
				if k == 0 {
					out[i].A = q
				} else {
					out[i].B = q
				}
			}
		}
	}
	if len(moved) == 0 {
		return out
	}
	return dropDegenerate(out)
}

// projectOnto finds the closest point to p on any segment other than skip,
// provided it is within tol.
func projectOnto(tr *rtree.RTreeG[int], segs []Segment, skip int, p r2.Vec, tol float64) (r2.Vec, bool) {
	var best r2.Vec
	bestDist, found := tol, false
	min, max := Box{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}.Expand(tol).rect()
	tr.Search(min, max, func(_, _ [2]float64, id int) bool {
		if id == skip {
			return true
		}
		q := closestPoint(p, segs[id])
		if d := r2.Norm(r2.Sub(p, q)); d <= bestDist && d > 0 {
			best, bestDist, found = q, d, true
		}
		return true
	})
	return best, found
}

func dropDegenerate(segs []Segment) []Segment {
	out := segs[:0:0]
	for _, s := range segs {
		if s.Length() > Epsilon {
			out = append(out, s)
		}
	}
	return out
}
