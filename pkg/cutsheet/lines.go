package cutsheet

import (
	"github.com/explosionLink/stone-control/pkg/geom"
	"github.com/explosionLink/stone-control/pkg/pdf"
)

// DefaultMinEdgeLen drops tick marks and dimension arrowheads.
const DefaultMinEdgeLen = 20.0

// ExtractLines converts page edges into segments, dropping edges shorter than
// minLen.
func ExtractLines(edges []pdf.Edge, minLen float64) []geom.Segment {
	kept := pdf.FilterShortEdges(edges, minLen)
	segs := make([]geom.Segment, 0, len(kept))
	for _, e := range kept {
		segs = append(segs, geom.Seg(e.X0, e.Y0, e.X1, e.Y1))
	}
	return segs
}
