package pdf

import (
	"math"
)

// EdgeSource tells which kind of path an edge came from
type EdgeSource string

const (
	EdgeSourceLine  EdgeSource = "line"
	EdgeSourceRect  EdgeSource = "rect"
	EdgeSourceCurve EdgeSource = "curve"
)

// Edge is one painted straight segment of a page, in page space with the
// origin at the top-left corner and Y growing downward. (X0, Y0) is where the
// segment starts and (X1, Y1) where it ends.
type Edge struct {
	X0     float64
	Y0     float64
	X1     float64
	Y1     float64
	Width  float64 // line width in effect when the path was painted
	Source EdgeSource
}

// Length returns the distance between the two endpoints
func (e Edge) Length() float64 {
	return math.Hypot(e.X1-e.X0, e.Y1-e.Y0)
}

// GetBBox returns the edge's bounding box
func (e Edge) GetBBox() BoundingBox {
	return BoundingBox{
		X0: math.Min(e.X0, e.X1),
		Y0: math.Min(e.Y0, e.Y1),
		X1: math.Max(e.X0, e.X1),
		Y1: math.Max(e.Y0, e.Y1),
	}
}

// BoundingBox represents a rectangular area with coordinates
type BoundingBox struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// Width returns the width of the bounding box
func (b BoundingBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the height of the bounding box
func (b BoundingBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Contains checks if a point is within the bounding box
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Y0 && y <= b.Y1
}

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// Matrix is a PDF transformation matrix [a b c d e f]
type Matrix struct {
	A, B, C, D, E, F float64
}

// IdentityMatrix returns the identity transformation
func IdentityMatrix() Matrix {
	return Matrix{A: 1, D: 1}
}

// MultiplyMatrix returns m1 x m2, i.e. m1 applied first.
func MultiplyMatrix(m1, m2 Matrix) Matrix {
	return Matrix{
		A: m1.A*m2.A + m1.B*m2.C,
		B: m1.A*m2.B + m1.B*m2.D,
		C: m1.C*m2.A + m1.D*m2.C,
		D: m1.C*m2.B + m1.D*m2.D,
		E: m1.E*m2.A + m1.F*m2.C + m2.E,
		F: m1.E*m2.B + m1.F*m2.D + m2.F,
	}
}

// Apply transforms a point
func (m Matrix) Apply(x, y float64) Point {
	return Point{X: m.A*x + m.C*y + m.E, Y: m.B*x + m.D*y + m.F}
}

// Options configures how a document is opened
type Options struct {
	// Password for encrypted documents
	Password string
	// TextLayer selects the text backend: "ledongthuc", "dslipak" or "auto"
	// (ledongthuc first, dslipak when it yields nothing).
	TextLayer string
	// CurveStep is the approximate length of the straight pieces Bézier
	// curves are flattened into.
	CurveStep float64
	// OCR, when set, is asked for the text of pages without a text layer.
	OCR OCR
	// Renderer supplies the page raster OCR works on.
	Renderer Renderer
}

// Option modifies Options
type Option func(*Options)

// WithPassword opens an encrypted document
func WithPassword(pw string) Option {
	return func(o *Options) {
		o.Password = pw
	}
}

// WithTextLayer selects the text backend
func WithTextLayer(name string) Option {
	return func(o *Options) {
		o.TextLayer = name
	}
}

// WithCurveStep sets the Bézier flattening step
func WithCurveStep(step float64) Option {
	return func(o *Options) {
		o.CurveStep = step
	}
}

// WithOCR enables the OCR fallback for pages without extractable text. The
// renderer provides the page image.
func WithOCR(ocr OCR, renderer Renderer) Option {
	return func(o *Options) {
		o.OCR = ocr
		o.Renderer = renderer
	}
}

func defaultOptions() *Options {
	return &Options{
		TextLayer: TextLayerAuto,
		CurveStep: DefaultCurveStep,
	}
}

// DefaultCurveStep is the default Bézier flattening step in page units.
const DefaultCurveStep = 24.0
