package cutsheet

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/explosionLink/stone-control/pkg/geom"
)

// Classifier defaults
const (
	DefaultBorderMargin    = 6.0
	DefaultMaxPageFillFrac = 0.95
	DefaultMinHoleAreaFrac = 0.001
	DefaultMaxHoleAreaFrac = 0.60
)

// scoreTolerance is the score difference under which two outer candidates tie.
const scoreTolerance = 1e-9

// Classifier picks the panel outline and its holes among candidate rings.
type Classifier struct {
	BorderMargin    float64
	MaxPageFillFrac float64
	MinHoleAreaFrac float64
	MaxHoleAreaFrac float64
	Logger          zerolog.Logger
}

// NewClassifier returns a classifier with the default thresholds.
func NewClassifier(logger zerolog.Logger) *Classifier {
	return &Classifier{
		BorderMargin:    DefaultBorderMargin,
		MaxPageFillFrac: DefaultMaxPageFillFrac,
		MinHoleAreaFrac: DefaultMinHoleAreaFrac,
		MaxHoleAreaFrac: DefaultMaxHoleAreaFrac,
		Logger:          logger,
	}
}

type outerCandidate struct {
	ring   geom.Ring
	area   float64
	score  float64
	border bool
}

// PickOuter selects the ring whose aspect ratio is closest to expectedAspect,
// ignoring rings that cover too much of the page or come within the border
// margin of any page edge. Ties go to the larger ring. When every ring touches
// the border the largest ring that does not overfill the page is returned.
func (c *Classifier) PickOuter(polys []geom.Ring, pageW, pageH, expectedAspect float64) (geom.Ring, bool) {
	pageArea := pageW * pageH
	if pageArea <= 0 {
		return nil, false
	}

	var candidates []outerCandidate
	for _, p := range polys {
		b := p.Bounds()
		w, h := b.Width(), b.Height()
		if w <= 0 || h <= 0 {
			continue
		}
		if b.Area()/pageArea > c.MaxPageFillFrac {
			continue
		}
		cand := outerCandidate{
			ring:   p,
			area:   p.Area(),
			border: c.touchesBorder(b, pageW, pageH),
		}
		if expectedAspect > 0 {
			cand.score = math.Abs(math.Log((w / h) / expectedAspect))
		}
		candidates = append(candidates, cand)
	}
	if len(candidates) == 0 {
		return nil, false
	}

	var best *outerCandidate
	for i := range candidates {
		cand := &candidates[i]
		if cand.border {
			continue
		}
		if best == nil || cand.score < best.score-scoreTolerance ||
			(math.Abs(cand.score-best.score) <= scoreTolerance && cand.area > best.area) {
			best = cand
		}
	}
	if best != nil {
		return best.ring, true
	}

	for i := range candidates {
		if best == nil || candidates[i].area > best.area {
			best = &candidates[i]
		}
	}
	c.Logger.Warn().
		Int("candidates", len(candidates)).
		Float64("area", best.area).
		Msg("every outline candidate touches the page border, using the largest")
	return best.ring, true
}

// touchesBorder reports whether b reaches into the margin band. A side lying
// exactly on the band edge counts as touching.
func (c *Classifier) touchesBorder(b geom.Box, pageW, pageH float64) bool {
	m := c.BorderMargin
	return b.MinX <= m || b.MinY <= m || b.MaxX >= pageW-m || b.MaxY >= pageH-m
}

// PickHoles returns the rings inside outer whose share of the outer area is
// within the hole range, largest first. A ring inside an already accepted
// hole is dropped.
func (c *Classifier) PickHoles(polys []geom.Ring, outer geom.Ring) []geom.Ring {
	outerArea := outer.Area()
	if outerArea <= 0 {
		return nil
	}

	var holes []geom.Ring
	for _, p := range polys {
		if p.Equal(outer, geom.Epsilon) {
			continue
		}
		frac := p.Area() / outerArea
		if frac < c.MinHoleAreaFrac || frac > c.MaxHoleAreaFrac {
			continue
		}
		if !p.Within(outer) {
			continue
		}
		holes = append(holes, p)
	}

	sort.SliceStable(holes, func(i, j int) bool {
		return holes[i].Area() > holes[j].Area()
	})

	kept := make([]geom.Ring, 0, len(holes))
	for _, h := range holes {
		nested := false
		for _, k := range kept {
			if h.Within(k) {
				nested = true
				break
			}
		}
		if !nested {
			kept = append(kept, h)
		}
	}
	return kept
}
