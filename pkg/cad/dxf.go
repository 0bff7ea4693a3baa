// Package cad writes panel geometry as DXF drawings and page previews as PNG.
package cad

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/explosionLink/stone-control/pkg/cutsheet"
)

// Default layer names
const (
	DefaultOutlineLayer   = "PERIMETRO"
	DefaultMachiningLayer = "LAVORAZIONE"
)

// Layers names the two layers every drawing carries: the panel boundary and
// the machining features.
type Layers struct {
	Outline   string
	Machining string
}

// DefaultLayers returns the layer names used by the cut-sheet workflow.
func DefaultLayers() Layers {
	return Layers{Outline: DefaultOutlineLayer, Machining: DefaultMachiningLayer}
}

func (l Layers) withDefaults() Layers {
	if l.Outline == "" {
		l.Outline = DefaultOutlineLayer
	}
	if l.Machining == "" {
		l.Machining = DefaultMachiningLayer
	}
	return l
}

// Drawing is a DXF document in millimetres. Polylines are written as
// LWPOLYLINE entities. The first failing call is remembered and returned by
// Save.
type Drawing struct {
	doc *drawing.Drawing
	err error
}

// NewDrawing creates a drawing with the boundary (white) and machining (red)
// layers.
func NewDrawing(layers Layers) *Drawing {
	layers = layers.withDefaults()
	d := &Drawing{doc: dxf.NewDrawing()}
	if _, err := d.doc.AddLayer(layers.Outline, color.White, dxf.DefaultLineType, false); err != nil {
		d.err = fmt.Errorf("add layer %s: %w", layers.Outline, err)
		return d
	}
	if _, err := d.doc.AddLayer(layers.Machining, color.Red, dxf.DefaultLineType, false); err != nil {
		d.err = fmt.Errorf("add layer %s: %w", layers.Machining, err)
	}
	return d
}

func (d *Drawing) use(layer string) bool {
	if d.err != nil {
		return false
	}
	if err := d.doc.ChangeLayer(layer); err != nil {
		d.err = fmt.Errorf("select layer %s: %w", layer, err)
		return false
	}
	return true
}

// AddPolyline adds a polyline on layer. Fewer than two points are ignored.
func (d *Drawing) AddPolyline(layer string, pts [][2]float64, closed bool) {
	if len(pts) < 2 || !d.use(layer) {
		return
	}
	vertices := make([][]float64, len(pts))
	for i, p := range pts {
		vertices[i] = []float64{p[0], p[1]}
	}
	if _, err := d.doc.LwPolyline(closed, vertices...); err != nil {
		d.err = fmt.Errorf("add polyline: %w", err)
	}
}

// AddRect adds a closed axis-aligned rectangle with its lower-left corner at
// (x, y).
func (d *Drawing) AddRect(layer string, x, y, w, h float64) {
	d.AddPolyline(layer, [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}, true)
}

// AddCircle adds a circle centred at (cx, cy).
func (d *Drawing) AddCircle(layer string, cx, cy, r float64) {
	if !d.use(layer) {
		return
	}
	if _, err := d.doc.Circle(cx, cy, 0, r); err != nil {
		d.err = fmt.Errorf("add circle: %w", err)
	}
}

// Save writes the drawing to path.
func (d *Drawing) Save(path string) error {
	if d.err != nil {
		return d.err
	}
	if err := d.doc.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write DXF: %w", err)
	}
	return nil
}

// PanelDrawing builds the drawing of one panel: the outline on the boundary
// layer, each hole on the machining layer as a circle (drillings) or a closed
// rectangle.
func PanelDrawing(outline [][2]float64, holes []cutsheet.Hole, layers Layers) *Drawing {
	layers = layers.withDefaults()
	d := NewDrawing(layers)
	d.AddPolyline(layers.Outline, outline, true)
	for _, h := range holes {
		if h.IsCircular() {
			d.AddCircle(layers.Machining, h.XMM, h.YMM, h.DiameterMM/2)
			continue
		}
		d.AddRect(layers.Machining, h.XMM, h.YMM, h.WidthMM, h.HeightMM)
	}
	return d
}

// WriteDXF writes the panel drawing to path.
func WriteDXF(path string, outline [][2]float64, holes []cutsheet.Hole, layers Layers) error {
	return PanelDrawing(outline, holes, layers).Save(path)
}
