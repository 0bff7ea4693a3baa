package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, content string) []Edge {
	t.Helper()
	return NewContentStreamParser(nil, 0).Parse([]byte(content), nil)
}

func TestParseRectangle(t *testing.T) {
	edges := parse(t, "10 20 100 50 re S")
	require.Len(t, edges, 4)
	for _, e := range edges {
		assert.Equal(t, EdgeSourceRect, e.Source)
	}
	assert.Equal(t, Edge{X0: 10, Y0: 20, X1: 110, Y1: 20, Width: 1, Source: EdgeSourceRect}, edges[0])
	assert.Equal(t, Edge{X0: 10, Y0: 70, X1: 10, Y1: 20, Width: 1, Source: EdgeSourceRect}, edges[3])
}

func TestParsePaintingOperators(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"stroke open path", "0 0 m 100 0 l 100 100 l S", 2},
		{"close and stroke", "0 0 m 100 0 l 100 100 l s", 3},
		{"explicit close", "0 0 m 100 0 l 100 100 l h S", 3},
		{"fill closes implicitly", "0 0 m 100 0 l 100 100 l f", 3},
		{"end path paints nothing", "0 0 m 100 0 l 100 100 l n", 0},
		{"clip then end path", "0 0 100 100 re W n", 0},
		{"two subpaths", "0 0 m 50 0 l 0 10 m 50 10 l S", 2},
		{"lineto without moveto", "100 0 l S", 0},
		{"fill and stroke once", "0 0 10 10 re B", 4},
		{"unpainted path dropped", "0 0 m 10 0 l 20 20 m 30 30 l", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, parse(t, tt.content), tt.want)
		})
	}
}

func TestParseTransformations(t *testing.T) {
	edges := parse(t, "q 2 0 0 2 10 10 cm 0 0 m 5 0 l S Q 0 0 m 5 0 l S")
	require.Len(t, edges, 2)
	assert.Equal(t, 10.0, edges[0].X0)
	assert.Equal(t, 10.0, edges[0].Y0)
	assert.Equal(t, 20.0, edges[0].X1)
	// Q restores the identity CTM.
	assert.Equal(t, 0.0, edges[1].X0)
	assert.Equal(t, 5.0, edges[1].X1)
}

func TestParseLineWidth(t *testing.T) {
	edges := parse(t, "0.5 w 0 0 m 10 0 l S")
	require.Len(t, edges, 1)
	assert.Equal(t, 0.5, edges[0].Width)
}

func TestParseCurves(t *testing.T) {
	edges := NewContentStreamParser(nil, 10).Parse([]byte("0 0 m 0 50 50 100 100 100 c S"), nil)
	require.NotEmpty(t, edges)
	last := edges[len(edges)-1]
	assert.InDelta(t, 100, last.X1, 1e-9)
	assert.InDelta(t, 100, last.Y1, 1e-9)
	for _, e := range edges {
		assert.Equal(t, EdgeSourceCurve, e.Source)
	}

	// v and y variants end at their last point too.
	edges = parse(t, "0 0 m 50 100 100 100 v S")
	require.NotEmpty(t, edges)
	assert.InDelta(t, 100, edges[len(edges)-1].X1, 1e-9)
	edges = parse(t, "0 0 m 50 100 100 100 y S")
	require.NotEmpty(t, edges)
	assert.InDelta(t, 100, edges[len(edges)-1].Y1, 1e-9)
}

func TestParseIgnoresTextAndInlineImages(t *testing.T) {
	content := `BT /F1 12 Tf 100 700 Td (Ordine 3CAD 123 re S) Tj ET
BI /W 2 /H 2 /CS /G /BPC 8 ID ` + "\x00\xff re S m l\x01" + ` EI
% comment 0 0 m 10 10 l S
0 0 m 30 0 l S`
	edges := parse(t, content)
	require.Len(t, edges, 1)
	assert.Equal(t, 30.0, edges[0].X1)
}

type fakeForms map[string]string

func (f fakeForms) Form(_ any, name string) ([]byte, Matrix, any, bool) {
	content, ok := f[name]
	if !ok {
		return nil, Matrix{}, nil, false
	}
	return []byte(content), Matrix{A: 1, D: 1, E: 100, F: 0}, nil, true
}

func TestParseFormXObject(t *testing.T) {
	forms := fakeForms{
		"Fm1":  "0 0 m 10 0 l S",
		"Loop": "/Loop Do 0 0 m 1 0 l S",
	}
	p := NewContentStreamParser(forms, 0)
	edges := p.Parse([]byte("q 1 0 0 1 0 50 cm /Fm1 Do Q /Im0 Do 0 0 m 5 5 l S"), nil)
	require.Len(t, edges, 2)
	assert.Equal(t, Edge{X0: 100, Y0: 50, X1: 110, Y1: 50, Width: 1, Source: EdgeSourceLine}, edges[0])
	assert.Equal(t, 5.0, edges[1].X1)

	// Self-referencing forms stop at the recursion limit.
	edges = NewContentStreamParser(forms, 0).Parse([]byte("/Loop Do"), nil)
	assert.Len(t, edges, maxFormDepth)
}

func TestTokenize(t *testing.T) {
	tokens := tokenize([]byte("/Name 1.5 -.25 (a (nested) \\) str) <48656C> [1 2] <</K 1>> re"))
	assert.Equal(t, []string{
		"/Name", "1.5", "-.25", "(a (nested) \\) str)", "<48656C>",
		"[", "1", "2", "]", "<<", "/K", "1", ">>", "re",
	}, tokens)
}

func TestToPageSpace(t *testing.T) {
	edges := toPageSpace([]Edge{{X0: 10, Y0: 780, X1: 50, Y1: 700}}, 0, 792)
	assert.Equal(t, Edge{X0: 10, Y0: 12, X1: 50, Y1: 92}, edges[0])
}
