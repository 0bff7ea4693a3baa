package cutsheet

import "strings"

// FastenerSpec describes the drillings placed around a sink cutout on the
// machining template.
type FastenerSpec struct {
	DiameterMM float64
	DepthMM    float64
	OffsetMM   float64
	Type       string
}

// DefaultFastenerSpec is the standard bushing drilling.
func DefaultFastenerSpec() FastenerSpec {
	return FastenerSpec{DiameterMM: 12, DepthMM: 15, OffsetMM: 20, Type: HoleTypeFastener}
}

// GenerateFasteners returns four drillings for every sink hole, one beyond
// each corner of its bounding box, pushed outward by spec.OffsetMM.
func GenerateFasteners(holes []Hole, spec FastenerSpec) []Hole {
	var out []Hole
	for _, h := range holes {
		if !strings.Contains(h.Type, "lavello") {
			continue
		}
		o := spec.OffsetMM
		corners := [4][2]float64{
			{h.XMM - o, h.YMM - o},
			{h.XMM + h.WidthMM + o, h.YMM - o},
			{h.XMM - o, h.YMM + h.HeightMM + o},
			{h.XMM + h.WidthMM + o, h.YMM + h.HeightMM + o},
		}
		for _, c := range corners {
			out = append(out, Hole{
				Type:       spec.Type,
				XMM:        c[0],
				YMM:        c[1],
				DiameterMM: spec.DiameterMM,
				DepthMM:    spec.DepthMM,
			})
		}
	}
	return out
}
