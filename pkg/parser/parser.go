// Package parser turns vendor cut-sheet PDFs into panels. Every vendor layout
// is a Parser selected by its client code through a Registry.
package parser

import (
	"context"
	"errors"

	"github.com/explosionLink/stone-control/pkg/cad"
	"github.com/explosionLink/stone-control/pkg/cutsheet"
	"github.com/explosionLink/stone-control/pkg/geom"
	"github.com/explosionLink/stone-control/pkg/pdf"
)

var (
	// ErrNoDrawings is returned when no page of a document produced a panel.
	ErrNoDrawings = errors.New("no valid dimensional drawing found in PDF")
	// ErrUnknownClient is returned for a client code nobody registered.
	ErrUnknownClient = errors.New("unknown client code")
)

// Parser extracts the panels of one vendor's cut sheets.
type Parser interface {
	// ClientCode returns the code the parser is registered under
	ClientCode() string

	// Parse reads the PDF at pdfPath, writes the DXF and preview files of
	// every panel and returns the panels in page order. orderCode prefixes
	// the output file names.
	Parse(ctx context.Context, pdfPath, orderCode string) ([]cutsheet.Panel, error)
}

// Inspector is implemented by parsers that can report what their detection
// stages find on each page of an opened document.
type Inspector interface {
	// Inspect reports on an already opened document
	Inspect(ctx context.Context, doc pdf.Document) ([]PageReport, error)
	// InspectFile opens pdfPath with the parser's own settings first
	InspectFile(ctx context.Context, pdfPath string) ([]PageReport, error)
}

// Options tunes the extraction pipeline
type Options struct {
	// OutputDir receives the DXF and PNG files.
	OutputDir string
	// Workers bounds how many pages of one document run at once.
	Workers int

	MinEdgeLen      float64
	SnapTol         float64
	BorderMargin    float64
	MaxPageFillFrac float64
	MinHoleAreaFrac float64
	MaxHoleAreaFrac float64

	Fastener cutsheet.FastenerSpec
	Layers   cad.Layers

	// Preview enables PNG rendering of every page that yields a panel.
	Preview    bool
	PreviewDPI float64

	// TextLayer selects the pdf text backend.
	TextLayer string
	// CurveStep is the Bézier flattening step in page units.
	CurveStep float64
	// OCR reads pages without a text layer. Nil disables it.
	OCR pdf.OCR
	// OpenRenderer opens the page renderer used for previews and OCR. Nil
	// means MuPDF through go-fitz.
	OpenRenderer func(path string) (pdf.Renderer, error)
}

// DefaultOptions returns the settings the cut-sheet layout was tuned with.
func DefaultOptions(outputDir string) Options {
	return Options{
		OutputDir:       outputDir,
		Workers:         1,
		MinEdgeLen:      cutsheet.DefaultMinEdgeLen,
		SnapTol:         geom.DefaultSnapTol,
		BorderMargin:    cutsheet.DefaultBorderMargin,
		MaxPageFillFrac: cutsheet.DefaultMaxPageFillFrac,
		MinHoleAreaFrac: cutsheet.DefaultMinHoleAreaFrac,
		MaxHoleAreaFrac: cutsheet.DefaultMaxHoleAreaFrac,
		Fastener:        cutsheet.DefaultFastenerSpec(),
		Layers:          cad.DefaultLayers(),
		Preview:         true,
		PreviewDPI:      pdf.PreviewDPI,
		TextLayer:       pdf.TextLayerAuto,
		CurveStep:       pdf.DefaultCurveStep,
	}
}
