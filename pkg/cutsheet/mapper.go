package cutsheet

import (
	"github.com/explosionLink/stone-control/pkg/geom"
)

// Mapper converts page coordinates to panel millimetres. Page Y grows
// downward and panel Y grows upward, so the mapping flips vertically. Mirrored
// panels are also reflected horizontally.
type Mapper struct {
	Outer    geom.Box
	WidthMM  float64
	HeightMM float64
	Mirrored bool
}

// NewMapper maps the outline bbox onto a panel of the given size.
func NewMapper(outer geom.Box, widthMM, heightMM float64, mirrored bool) Mapper {
	return Mapper{Outer: outer, WidthMM: widthMM, HeightMM: heightMM, Mirrored: mirrored}
}

// Point maps a page point. The outline's top-left corner lands on
// (0, HeightMM) and its bottom-right corner on (WidthMM, 0).
func (m Mapper) Point(x, y float64) (float64, float64) {
	ow, oh := m.Outer.Width(), m.Outer.Height()
	tx := ((x - m.Outer.MinX) / ow) * m.WidthMM
	ty := (1 - (y-m.Outer.MinY)/oh) * m.HeightMM
	if m.Mirrored {
		tx = m.WidthMM - tx
	}
	return tx, ty
}

// Ring maps every vertex of r.
func (m Mapper) Ring(r geom.Ring) [][2]float64 {
	out := make([][2]float64, len(r))
	for i, p := range r {
		x, y := m.Point(p.X, p.Y)
		out[i] = [2]float64{x, y}
	}
	return out
}

// Hole maps a hole bbox to a rectangular hole anchored at its lower-left
// corner in panel space.
func (m Mapper) Hole(box geom.Box, typ string) Hole {
	ow, oh := m.Outer.Width(), m.Outer.Height()
	w := (box.Width() / ow) * m.WidthMM
	h := (box.Height() / oh) * m.HeightMM
	x := ((box.MinX - m.Outer.MinX) / ow) * m.WidthMM
	y := (1-(box.MinY-m.Outer.MinY)/oh)*m.HeightMM - h
	if m.Mirrored {
		x = m.WidthMM - x - w
	}
	return Hole{Type: typ, XMM: x, YMM: y, WidthMM: w, HeightMM: h}
}

// Mirror reflects an already mapped hole across the vertical centre line of a
// panel widthMM wide. Mirroring twice gives back the original hole.
func Mirror(h Hole, widthMM float64) Hole {
	if h.IsCircular() {
		h.XMM = widthMM - h.XMM
		return h
	}
	h.XMM = widthMM - h.XMM - h.WidthMM
	return h
}

// MirrorAll mirrors every hole.
func MirrorAll(holes []Hole, widthMM float64) []Hole {
	out := make([]Hole, len(holes))
	for i, h := range holes {
		out[i] = Mirror(h, widthMM)
	}
	return out
}
