package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicateEdges(t *testing.T) {
	tests := []struct {
		name  string
		input []Edge
		want  int
	}{
		{"empty", nil, 0},
		{"distinct", []Edge{{X0: 0, Y0: 0, X1: 10, Y1: 0}, {X0: 0, Y0: 5, X1: 10, Y1: 5}}, 2},
		{"exact duplicate", []Edge{{X0: 0, Y0: 0, X1: 10, Y1: 0}, {X0: 0, Y0: 0, X1: 10, Y1: 0}}, 1},
		{"reversed duplicate", []Edge{{X0: 0, Y0: 0, X1: 10, Y1: 0}, {X0: 10, Y0: 0, X1: 0, Y1: 0}}, 1},
		{"within tolerance", []Edge{{X0: 0, Y0: 0, X1: 10, Y1: 0}, {X0: 0.05, Y0: 0.02, X1: 10.01, Y1: 0}}, 1},
		{"just outside tolerance", []Edge{{X0: 0, Y0: 0, X1: 10, Y1: 0}, {X0: 0, Y0: 0.5, X1: 10, Y1: 0.5}}, 2},
		{"vertical reversed", []Edge{{X0: 5, Y0: 20, X1: 5, Y1: 0}, {X0: 5, Y0: 0, X1: 5, Y1: 20}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, DeduplicateEdges(tt.input), tt.want)
		})
	}
}

func TestFilterShortEdges(t *testing.T) {
	edges := []Edge{
		{X0: 0, Y0: 0, X1: 19.9, Y1: 0},
		{X0: 0, Y0: 0, X1: 20, Y1: 0},
		{X0: 0, Y0: 0, X1: 30, Y1: 40},
	}
	got := FilterShortEdges(edges, 20)
	assert.Len(t, got, 2)
	assert.Equal(t, 50.0, got[1].Length())
	assert.Empty(t, FilterShortEdges(nil, 20))
}

func TestAssembleText(t *testing.T) {
	items := []TextItem{
		{X: 300, Y: 700, W: 40, S: "3CAD"},
		{X: 100, Y: 700, W: 60, S: "Ordine"},
		{X: 161, Y: 701, W: 5, S: ":"},
		{X: 100, Y: 650, W: 100, S: "2155 x 20 x 638"},
		{X: 100, Y: 600, W: 10, S: "   "},
	}
	assert.Equal(t, "Ordine: 3CAD\n2155 x 20 x 638", AssembleText(items))
	assert.Equal(t, "", AssembleText(nil))
}
