package geom

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// MinFaceArea is the area under which a traced face is treated as a sliver.
	MinFaceArea = 1e-9
	// DefaultSnapTol closes the gaps left by imprecise vector drawing.
	DefaultSnapTol = 1.0
)

// Polygonize builds the planar arrangement of segs and returns every bounded
// face as a simple ring. Endpoints within snapTol are joined first. Faces are
// returned counter-clockwise in the algebraic sense (positive SignedArea) and
// in no particular order.
func Polygonize(segs []Segment, snapTol float64) []Ring {
	noded := Node(Snap(segs, snapTol))
	if len(noded) < 3 {
		return nil
	}

	g := newGraph(noded)
	g.pruneDangles()
	for {
		g.trace()
		if !g.removeCutEdges() {
			break
		}
		g.pruneDangles()
	}
	return g.rings()
}

type halfEdge struct {
	from, to int
	angle    float64
	dead     bool
	face     int
}

// graph is a half-edge structure; edges 2k and 2k+1 are twins.
type graph struct {
	pts   []r2.Vec
	edges []halfEdge
	out   [][]int
	faces [][]int
}

func newGraph(segs []Segment) *graph {
	g := &graph{}
	ids := make(map[r2.Vec]int)
	node := func(p r2.Vec) int {
		if id, ok := ids[p]; ok {
			return id
		}
		id := len(g.pts)
		ids[p] = id
		g.pts = append(g.pts, p)
		g.out = append(g.out, nil)
		return id
	}
	for _, s := range segs {
		a, b := node(s.A), node(s.B)
		if a == b {
			continue
		}
		h := len(g.edges)
		g.edges = append(g.edges,
			halfEdge{from: a, to: b, angle: angleOf(s.A, s.B), face: -1},
			halfEdge{from: b, to: a, angle: angleOf(s.B, s.A), face: -1},
		)
		g.out[a] = append(g.out[a], h)
		g.out[b] = append(g.out[b], h+1)
	}
	for v := range g.out {
		g.sortOut(v)
	}
	return g
}

func (g *graph) sortOut(v int) {
	out := g.out[v]
	sort.Slice(out, func(i, j int) bool {
		return g.edges[out[i]].angle < g.edges[out[j]].angle
	})
}

func twin(h int) int {
	return h ^ 1
}

func (g *graph) kill(h int) {
	g.edges[h].dead = true
	g.edges[twin(h)].dead = true
}

// compact drops dead half-edges from the outgoing lists.
func (g *graph) compact() {
	for v, out := range g.out {
		alive := out[:0]
		for _, h := range out {
			if !g.edges[h].dead {
				alive = append(alive, h)
			}
		}
		g.out[v] = alive
	}
}

// pruneDangles removes edges ending in a degree-one node until none are left.
func (g *graph) pruneDangles() {
	g.compact()
	degree := make([]int, len(g.pts))
	var queue []int
	for v, out := range g.out {
		degree[v] = len(out)
		if degree[v] == 1 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if degree[v] != 1 {
			continue
		}
		for _, h := range g.out[v] {
			if g.edges[h].dead {
				continue
			}
			g.kill(h)
			degree[v]--
			w := g.edges[h].to
			degree[w]--
			if degree[w] == 1 {
				queue = append(queue, w)
			}
		}
	}
	g.compact()
}

// next returns the half-edge following h around its face: the outgoing edge at
// h.to that comes immediately clockwise of the twin of h.
func (g *graph) next(h int) int {
	v := g.edges[h].to
	out := g.out[v]
	t := twin(h)
	for i, e := range out {
		if e == t {
			return out[(i-1+len(out))%len(out)]
		}
	}
	return -1
}

func (g *graph) trace() {
	g.faces = g.faces[:0]
	for i := range g.edges {
		g.edges[i].face = -1
	}
	for h := range g.edges {
		if g.edges[h].dead || g.edges[h].face >= 0 {
			continue
		}
		f := len(g.faces)
		var face []int
		for e, steps := h, 0; e >= 0 && g.edges[e].face < 0 && steps <= len(g.edges); steps++ {
			g.edges[e].face = f
			face = append(face, e)
			e = g.next(e)
		}
		g.faces = append(g.faces, face)
	}
}

// removeCutEdges deletes edges that have the same face on both sides.
func (g *graph) removeCutEdges() bool {
	removed := false
	for h := 0; h < len(g.edges); h += 2 {
		e := g.edges[h]
		if !e.dead && e.face == g.edges[h+1].face {
			g.kill(h)
			removed = true
		}
	}
	return removed
}

func (g *graph) rings() []Ring {
	var rings []Ring
	for _, face := range g.faces {
		r := make(Ring, 0, len(face))
		for _, h := range face {
			r = append(r, g.pts[g.edges[h].from])
		}
		r = dropCollinear(r)
		if r.SignedArea() > MinFaceArea {
			rings = append(rings, r)
		}
	}
	return rings
}

// dropCollinear removes vertices that sit on a straight run between their
// neighbours. Noding leaves such vertices wherever another segment touched.
func dropCollinear(r Ring) Ring {
	for changed := true; changed && len(r) > 3; {
		changed = false
		n := len(r)
		for i := 0; i < n; i++ {
			prev, cur, nxt := r[(i-1+n)%n], r[i], r[(i+1)%n]
			if orient(prev, cur, nxt) == 0 && r2.Dot(r2.Sub(cur, prev), r2.Sub(nxt, cur)) > 0 {
				r = append(r[:i:i], r[i+1:]...)
				changed = true
				break
			}
		}
	}
	return r
}
