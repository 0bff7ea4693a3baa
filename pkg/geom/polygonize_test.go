package geom

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxSegs(x0, y0, x1, y1 float64) []Segment {
	return []Segment{
		Seg(x0, y0, x1, y0),
		Seg(x1, y0, x1, y1),
		Seg(x1, y1, x0, y1),
		Seg(x0, y1, x0, y0),
	}
}

func areas(rings []Ring) []float64 {
	out := make([]float64, len(rings))
	for i, r := range rings {
		out[i] = r.Area()
	}
	sort.Float64s(out)
	return out
}

func TestPolygonizeEmpty(t *testing.T) {
	assert.Empty(t, Polygonize(nil, 1))
	assert.Empty(t, Polygonize([]Segment{Seg(0, 0, 10, 0)}, 1))
	assert.Empty(t, Polygonize([]Segment{Seg(0, 0, 10, 0), Seg(0, 5, 10, 5), Seg(0, 10, 10, 10)}, 1))
}

func TestPolygonizeSquare(t *testing.T) {
	rings := Polygonize(boxSegs(0, 0, 100, 50), 1)
	require.Len(t, rings, 1)
	assert.InDelta(t, 5000, rings[0].Area(), 1e-9)
	assert.Greater(t, rings[0].SignedArea(), 0.0)
	assert.Len(t, rings[0], 4)
	assert.True(t, rings[0].IsValid())
}

func TestPolygonizeSnapsGaps(t *testing.T) {
	segs := []Segment{
		Seg(0, 0, 99.6, 0),
		Seg(100, 0.4, 100, 50),
		Seg(100.3, 50, 0, 50),
		Seg(0, 49.5, 0, 0.2),
	}
	rings := Polygonize(segs, 1)
	require.Len(t, rings, 1)
	assert.InDelta(t, 5000, rings[0].Area(), 100)

	assert.Empty(t, Polygonize(segs, 0), "gaps stay open without snapping")
}

func TestPolygonizeOvershootingLines(t *testing.T) {
	// Construction lines that run past the corners still close the panel.
	segs := []Segment{
		Seg(-10, 0, 110, 0),
		Seg(100, -10, 100, 60),
		Seg(110, 50, -10, 50),
		Seg(0, 60, 0, -10),
	}
	rings := Polygonize(segs, 1)
	require.Len(t, rings, 1)
	assert.InDelta(t, 5000, rings[0].Area(), 1e-9)
}

func TestPolygonizeNestedAndAdjacent(t *testing.T) {
	var segs []Segment
	segs = append(segs, boxSegs(0, 0, 100, 50)...)
	segs = append(segs, boxSegs(20, 10, 40, 30)...)
	// A divider splits the panel into two faces.
	segs = append(segs, Seg(60, 0, 60, 50))

	rings := Polygonize(segs, 1)
	require.Len(t, rings, 3)
	assert.InDeltaSlice(t, []float64{400, 2000, 3000}, areas(rings), 1e-9)
}

func TestPolygonizeDropsDanglesAndBridges(t *testing.T) {
	var segs []Segment
	segs = append(segs, boxSegs(0, 0, 100, 50)...)
	segs = append(segs, boxSegs(20, 10, 40, 30)...)
	// Dimension tick hanging off the panel and a bridge joining the hole to the border.
	segs = append(segs, Seg(100, 25, 130, 25), Seg(40, 20, 100, 20))

	rings := Polygonize(segs, 1)
	require.Len(t, rings, 2)
	for _, r := range rings {
		assert.True(t, r.IsValid(), "ring %v", r)
	}
	assert.InDeltaSlice(t, []float64{400, 5000}, areas(rings), 1e-9)
}

func TestPolygonizeCrossingLines(t *testing.T) {
	segs := []Segment{
		Seg(0, 0, 10, 10), Seg(0, 10, 10, 0),
		Seg(0, 0, 10, 0), Seg(0, 10, 10, 10),
	}
	rings := Polygonize(segs, 0.5)
	require.Len(t, rings, 2)
	assert.InDeltaSlice(t, []float64{25, 25}, areas(rings), 1e-9)
}

func TestNodeRemovesDuplicates(t *testing.T) {
	segs := []Segment{Seg(0, 0, 10, 0), Seg(10, 0, 0, 0), Seg(5, 0, 15, 0)}
	noded := Node(segs)
	assert.Len(t, noded, 3)
	var total float64
	for _, s := range noded {
		total += s.Length()
	}
	assert.InDelta(t, 15, total, 1e-9)
}

func TestSnap(t *testing.T) {
	segs := []Segment{Seg(0, 0, 10, 0), Seg(10.5, 0.3, 10.5, 10), Seg(0, 0, 0.2, 0.1)}
	snapped := Snap(segs, 1)
	require.Len(t, snapped, 2)
	assert.Equal(t, snapped[0].B, snapped[1].A)
}

func TestSnapProjectsDanglingEnd(t *testing.T) {
	segs := []Segment{Seg(0, 0, 100, 0), Seg(50, 0.6, 50, 40)}
	snapped := Snap(segs, 1)
	require.Len(t, snapped, 2)
	assert.InDelta(t, 0, snapped[1].A.Y, 1e-12)
	assert.InDelta(t, 50, snapped[1].A.X, 1e-12)
}

func TestRepair(t *testing.T) {
	valid := rect(0, 0, 10, 10)
	assert.Equal(t, valid, Repair(valid))

	bowtie := Ring{{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 2}}
	fixed := Repair(bowtie)
	require.NotNil(t, fixed)
	assert.True(t, fixed.IsValid())
	assert.InDelta(t, 1, fixed.Area(), 1e-9)

	dup := Ring{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}, {X: 0, Y: 0}}
	fixed = Repair(dup)
	require.NotNil(t, fixed)
	assert.True(t, fixed.IsValid())
	assert.InDelta(t, 16, fixed.Area(), 1e-9)

	assert.Nil(t, Repair(Ring{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}))
}

func TestRepairAll(t *testing.T) {
	rings := []Ring{rect(0, 0, 1, 1), {{X: 0, Y: 0}, {X: 1, Y: 1}}}
	assert.Len(t, RepairAll(rings), 1)
}

// BenchmarkPolygonize runs a grid of 20x20 cells, roughly the line count of a
// busy cut sheet.
func BenchmarkPolygonize(b *testing.B) {
	var segs []Segment
	for i := 0; i <= 20; i++ {
		f := float64(i) * 10
		segs = append(segs, Seg(0, f, 200, f), Seg(f, 0, f, 200))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Polygonize(segs, DefaultSnapTol)
	}
}
