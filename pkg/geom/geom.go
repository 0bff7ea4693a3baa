// Package geom provides the planar geometry used to rebuild panel outlines from
// drawing line-work: segments, rings, the polygon assembler and ring repair.
//
// Coordinates are whatever space the caller works in; for cut sheets this is PDF
// page space with a top-left origin, so Y grows downward. Nothing in this package
// depends on the orientation of the Y axis.
package geom

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the tolerance used for floating point comparisons on coordinates.
const Epsilon = 1e-9

// Segment is a straight line between two points
type Segment struct {
	A, B r2.Vec
}

// Seg builds a segment from raw coordinates.
func Seg(x0, y0, x1, y1 float64) Segment {
	return Segment{A: r2.Vec{X: x0, Y: y0}, B: r2.Vec{X: x1, Y: y1}}
}

// Length returns the euclidean length of the segment
func (s Segment) Length() float64 {
	return r2.Norm(r2.Sub(s.B, s.A))
}

// Bounds returns the axis aligned bounding box of the segment
func (s Segment) Bounds() Box {
	return Box{
		MinX: math.Min(s.A.X, s.B.X),
		MinY: math.Min(s.A.Y, s.B.Y),
		MaxX: math.Max(s.A.X, s.B.X),
		MaxY: math.Max(s.A.Y, s.B.Y),
	}
}

// Box is an axis aligned rectangle
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the width of the box
func (b Box) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the height of the box
func (b Box) Height() float64 {
	return b.MaxY - b.MinY
}

// Area returns the area of the box
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// Expand grows the box by d on every side.
func (b Box) Expand(d float64) Box {
	return Box{MinX: b.MinX - d, MinY: b.MinY - d, MaxX: b.MaxX + d, MaxY: b.MaxY + d}
}

func (b Box) rect() (min, max [2]float64) {
	return [2]float64{b.MinX, b.MinY}, [2]float64{b.MaxX, b.MaxY}
}

// Ring is a closed polygon boundary. The closing vertex is implied: the last
// vertex connects back to the first and is never repeated.
type Ring []r2.Vec

// SignedArea returns the shoelace area. Its sign depends on the winding order.
func (r Ring) SignedArea() float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r2.Cross(r[i], r[j])
	}
	return sum / 2
}

// Area returns the absolute area enclosed by the ring
func (r Ring) Area() float64 {
	return math.Abs(r.SignedArea())
}

// Bounds returns the bounding box of the ring vertices
func (r Ring) Bounds() Box {
	if len(r) == 0 {
		return Box{}
	}
	b := Box{MinX: r[0].X, MinY: r[0].Y, MaxX: r[0].X, MaxY: r[0].Y}
	for _, p := range r[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// Segments returns the edges of the ring, including the closing edge.
func (r Ring) Segments() []Segment {
	n := len(r)
	if n < 2 {
		return nil
	}
	segs := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		segs = append(segs, Segment{A: r[i], B: r[(i+1)%n]})
	}
	return segs
}

// Contains reports whether p lies strictly inside the ring (ray casting).
// Points on the boundary are not contained.
func (r Ring) Contains(p r2.Vec) bool {
	if len(r) < 3 || r.onBoundary(p) {
		return false
	}
	inside := false
	n := len(r)
	for i := 0; i < n; i++ {
		pi, pj := r[i], r[(i+1)%n]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// Covers reports whether p lies inside the ring or on its boundary.
func (r Ring) Covers(p r2.Vec) bool {
	return r.onBoundary(p) || r.Contains(p)
}

func (r Ring) onBoundary(p r2.Vec) bool {
	for _, s := range r.Segments() {
		if distToSegment(p, s) <= 1e-7 {
			return true
		}
	}
	return false
}

// Within reports whether r lies inside outer: every vertex of r is covered by
// outer, no edge of r crosses an edge of outer, and the interior of r is inside
// outer. A ring is within an identical ring.
func (r Ring) Within(outer Ring) bool {
	if len(r) < 3 || len(outer) < 3 {
		return false
	}
	rb, ob := r.Bounds(), outer.Bounds()
	if rb.MinX < ob.MinX-Epsilon || rb.MinY < ob.MinY-Epsilon ||
		rb.MaxX > ob.MaxX+Epsilon || rb.MaxY > ob.MaxY+Epsilon {
		return false
	}
	for _, p := range r {
		if !outer.Covers(p) {
			return false
		}
	}
	outerSegs := outer.Segments()
	for _, s := range r.Segments() {
		for _, t := range outerSegs {
			if properlyCross(s, t) {
				return false
			}
		}
		if !outer.Covers(midpoint(s)) {
			return false
		}
	}
	ip, ok := r.InteriorPoint()
	return ok && outer.Covers(ip)
}

// Equal reports whether both rings visit the same vertices in the same cyclic
// order, in either direction, within tol.
func (r Ring) Equal(o Ring, tol float64) bool {
	n := len(r)
	if n != len(o) || n == 0 {
		return false
	}
	for start := 0; start < n; start++ {
		if !near(r[0], o[start], tol) {
			continue
		}
		fwd, bwd := true, true
		for i := 0; i < n && (fwd || bwd); i++ {
			if fwd && !near(r[i], o[(start+i)%n], tol) {
				fwd = false
			}
			if bwd && !near(r[i], o[(start-i+n)%n], tol) {
				bwd = false
			}
		}
		if fwd || bwd {
			return true
		}
	}
	return false
}

// InteriorPoint returns a point strictly inside the ring. It scans the
// horizontal line halfway between the two lowest distinct vertex heights of the
// widest span, which always crosses the interior of a simple ring.
func (r Ring) InteriorPoint() (r2.Vec, bool) {
	if len(r) < 3 || r.Area() <= Epsilon {
		return r2.Vec{}, false
	}
	ys := make([]float64, 0, len(r))
	for _, p := range r {
		ys = append(ys, p.Y)
	}
	sort.Float64s(ys)
	var best r2.Vec
	bestSpan := 0.0
	for i := 1; i < len(ys); i++ {
		if ys[i]-ys[i-1] <= Epsilon {
			continue
		}
		y := (ys[i] + ys[i-1]) / 2
		xs := r.crossingsAt(y)
		for k := 0; k+1 < len(xs); k += 2 {
			if span := xs[k+1] - xs[k]; span > bestSpan {
				bestSpan = span
				best = r2.Vec{X: (xs[k] + xs[k+1]) / 2, Y: y}
			}
		}
	}
	return best, bestSpan > 0
}

func (r Ring) crossingsAt(y float64) []float64 {
	var xs []float64
	n := len(r)
	for i := 0; i < n; i++ {
		a, b := r[i], r[(i+1)%n]
		if (a.Y > y) != (b.Y > y) {
			xs = append(xs, a.X+(y-a.Y)*(b.X-a.X)/(b.Y-a.Y))
		}
	}
	sort.Float64s(xs)
	return xs
}

// IsValid reports whether the ring is a simple polygon with a non-zero area:
// at least three distinct vertices, no repeated vertex and no two non-adjacent
// edges touching.
func (r Ring) IsValid() bool {
	n := len(r)
	if n < 3 || r.Area() <= Epsilon {
		return false
	}
	seen := make(map[r2.Vec]struct{}, n)
	for _, p := range r {
		if _, dup := seen[p]; dup {
			return false
		}
		seen[p] = struct{}{}
	}
	segs := r.Segments()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			adjacent := j == i+1 || (i == 0 && j == n-1)
			pts := intersect(segs[i], segs[j])
			if adjacent {
				// Neighbours share exactly one vertex; anything more is a spike.
				if len(pts) > 1 {
					return false
				}
				continue
			}
			if len(pts) > 0 {
				return false
			}
		}
	}
	return true
}

// Largest returns the ring with the biggest area, or nil for an empty slice.
func Largest(rings []Ring) Ring {
	var best Ring
	bestArea := -1.0
	for _, r := range rings {
		if a := r.Area(); a > bestArea {
			best, bestArea = r, a
		}
	}
	return best
}

func near(a, b r2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func midpoint(s Segment) r2.Vec {
	return r2.Scale(0.5, r2.Add(s.A, s.B))
}

// distToSegment returns the distance between p and the closest point of s.
func distToSegment(p r2.Vec, s Segment) float64 {
	return r2.Norm(r2.Sub(p, closestPoint(p, s)))
}

func closestPoint(p r2.Vec, s Segment) r2.Vec {
	d := r2.Sub(s.B, s.A)
	l2 := r2.Norm2(d)
	if l2 == 0 {
		return s.A
	}
	t := r2.Dot(r2.Sub(p, s.A), d) / l2
	t = math.Max(0, math.Min(1, t))
	return r2.Add(s.A, r2.Scale(t, d))
}

// orient returns the sign of the turn a->b->c, with a small dead zone.
func orient(a, b, c r2.Vec) int {
	v := r2.Cross(r2.Sub(b, a), r2.Sub(c, a))
	switch {
	case v > Epsilon:
		return 1
	case v < -Epsilon:
		return -1
	}
	return 0
}

// properlyCross reports whether s and t cross at a single point interior to
// both segments.
func properlyCross(s, t Segment) bool {
	o1 := orient(s.A, s.B, t.A)
	o2 := orient(s.A, s.B, t.B)
	o3 := orient(t.A, t.B, s.A)
	o4 := orient(t.A, t.B, s.B)
	return o1*o2 < 0 && o3*o4 < 0
}

// intersect returns the points shared by two segments: none, the single
// crossing or touching point, or the two ends of a collinear overlap.
func intersect(s, t Segment) []r2.Vec {
	if !boxesTouch(s.Bounds(), t.Bounds()) {
		return nil
	}
	d1 := r2.Sub(s.B, s.A)
	d2 := r2.Sub(t.B, t.A)
	denom := r2.Cross(d1, d2)
	w := r2.Sub(t.A, s.A)

	if math.Abs(denom) <= Epsilon*math.Max(1, r2.Norm(d1)*r2.Norm(d2)) {
		if math.Abs(r2.Cross(w, d1)) > Epsilon*math.Max(1, r2.Norm(d1)) {
			return nil // parallel, not collinear
		}
		return collinearOverlap(s, t)
	}

	u := r2.Cross(w, d2) / denom
	v := r2.Cross(w, d1) / denom
	const slack = 1e-9
	if u < -slack || u > 1+slack || v < -slack || v > 1+slack {
		return nil
	}
	u = math.Max(0, math.Min(1, u))
	return []r2.Vec{r2.Add(s.A, r2.Scale(u, d1))}
}

func collinearOverlap(s, t Segment) []r2.Vec {
	d := r2.Sub(s.B, s.A)
	l2 := r2.Norm2(d)
	if l2 == 0 {
		return nil
	}
	param := func(p r2.Vec) float64 { return r2.Dot(r2.Sub(p, s.A), d) / l2 }
	t0, t1 := param(t.A), param(t.B)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	lo, hi := math.Max(0, t0), math.Min(1, t1)
	if lo > hi+Epsilon {
		return nil
	}
	p := r2.Add(s.A, r2.Scale(lo, d))
	if hi-lo <= Epsilon {
		return []r2.Vec{p}
	}
	return []r2.Vec{p, r2.Add(s.A, r2.Scale(hi, d))}
}

func boxesTouch(a, b Box) bool {
	return !(a.MaxX < b.MinX-Epsilon || b.MaxX < a.MinX-Epsilon ||
		a.MaxY < b.MinY-Epsilon || b.MaxY < a.MinY-Epsilon)
}
