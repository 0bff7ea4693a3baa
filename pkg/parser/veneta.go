package parser

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/explosionLink/stone-control/pkg/cad"
	"github.com/explosionLink/stone-control/pkg/cutsheet"
	"github.com/explosionLink/stone-control/pkg/geom"
	"github.com/explosionLink/stone-control/pkg/pdf"
)

// ClientVenetaCucine is the client code of the Veneta Cucine layout.
const ClientVenetaCucine = "VENETA_CUCINE"

// Reasons a page yields no panel
const (
	skipNoDimensions = "no dimensions"
	skipNoEdges      = "no edges"
	skipNoFaces      = "no faces"
	skipNoOuter      = "no outer"
)

// VenetaCucine parses Veneta Cucine countertop cut sheets: one panel drawing
// per page, with the panel size and order in the title block. Pages marked
// "sotto top" also get a mirrored machining template with fastener drillings.
type VenetaCucine struct {
	opts   Options
	logger zerolog.Logger
}

// NewVenetaCucine creates the parser. Zero option values fall back to the
// defaults.
func NewVenetaCucine(opts Options, logger zerolog.Logger) *VenetaCucine {
	def := DefaultOptions(opts.OutputDir)
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.MinEdgeLen <= 0 {
		opts.MinEdgeLen = def.MinEdgeLen
	}
	if opts.SnapTol <= 0 {
		opts.SnapTol = def.SnapTol
	}
	if opts.BorderMargin <= 0 {
		opts.BorderMargin = def.BorderMargin
	}
	if opts.MaxPageFillFrac <= 0 {
		opts.MaxPageFillFrac = def.MaxPageFillFrac
	}
	if opts.MinHoleAreaFrac <= 0 {
		opts.MinHoleAreaFrac = def.MinHoleAreaFrac
	}
	if opts.MaxHoleAreaFrac <= 0 {
		opts.MaxHoleAreaFrac = def.MaxHoleAreaFrac
	}
	if opts.Fastener == (cutsheet.FastenerSpec{}) {
		opts.Fastener = def.Fastener
	}
	if opts.PreviewDPI <= 0 {
		opts.PreviewDPI = def.PreviewDPI
	}
	if opts.TextLayer == "" {
		opts.TextLayer = def.TextLayer
	}
	if opts.CurveStep <= 0 {
		opts.CurveStep = def.CurveStep
	}
	return &VenetaCucine{
		opts:   opts,
		logger: logger.With().Str("client", ClientVenetaCucine).Logger(),
	}
}

// ClientCode implements Parser
func (v *VenetaCucine) ClientCode() string {
	return ClientVenetaCucine
}

// Parse implements Parser
func (v *VenetaCucine) Parse(ctx context.Context, pdfPath, orderCode string) ([]cutsheet.Panel, error) {
	doc, renderer, closeAll, err := v.open(pdfPath, v.opts.Preview)
	if err != nil {
		return nil, err
	}
	defer closeAll()

	return v.ParseDocument(ctx, doc, renderer, orderCode)
}

// InspectFile opens the PDF the same way Parse does, OCR fallback included,
// and reports what the detection stages find on every page.
func (v *VenetaCucine) InspectFile(ctx context.Context, pdfPath string) ([]PageReport, error) {
	doc, _, closeAll, err := v.open(pdfPath, false)
	if err != nil {
		return nil, err
	}
	defer closeAll()

	return v.Inspect(ctx, doc)
}

// open opens the document and, when previews or OCR need one, a page
// renderer. The returned func closes both.
func (v *VenetaCucine) open(pdfPath string, preview bool) (pdf.Document, pdf.Renderer, func(), error) {
	var renderer pdf.Renderer
	if preview || v.opts.OCR != nil {
		openRenderer := v.opts.OpenRenderer
		if openRenderer == nil {
			openRenderer = openFitzRenderer
		}
		r, err := openRenderer(pdfPath)
		if err != nil {
			v.logger.Warn().Err(err).Str("pdf", pdfPath).Msg("page rendering unavailable, previews and OCR disabled")
		} else {
			renderer = r
		}
	}

	openOpts := []pdf.Option{
		pdf.WithTextLayer(v.opts.TextLayer),
		pdf.WithCurveStep(v.opts.CurveStep),
	}
	if v.opts.OCR != nil && renderer != nil {
		openOpts = append(openOpts, pdf.WithOCR(v.opts.OCR, renderer))
	}
	doc, err := pdf.Open(pdfPath, openOpts...)
	if err != nil {
		if renderer != nil {
			renderer.Close()
		}
		return nil, nil, nil, fmt.Errorf("failed to open PDF %s: %w", pdfPath, err)
	}

	closeAll := func() {
		doc.Close()
		if renderer != nil {
			renderer.Close()
		}
	}
	return doc, renderer, closeAll, nil
}

func openFitzRenderer(path string) (pdf.Renderer, error) {
	return pdf.NewFitzRenderer(path)
}

// ParseDocument runs the pipeline over an already opened document. renderer
// may be nil, in which case no previews are written.
func (v *VenetaCucine) ParseDocument(ctx context.Context, doc pdf.Document, renderer pdf.Renderer, orderCode string) ([]cutsheet.Panel, error) {
	if err := os.MkdirAll(v.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	pages := doc.GetPages()
	slots := make([][]cutsheet.Panel, len(pages))

	var g errgroup.Group
	g.SetLimit(v.opts.Workers)
	for i, page := range pages {
		if ctx.Err() != nil {
			break
		}
		i, page := i, page
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i] = v.runPage(page, renderer, orderCode)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var panels []cutsheet.Panel
	for _, s := range slots {
		panels = append(panels, s...)
	}
	if len(panels) == 0 {
		return nil, ErrNoDrawings
	}
	return panels, nil
}

// runPage processes one page and turns any failure into an empty result.
func (v *VenetaCucine) runPage(page pdf.Page, renderer pdf.Renderer, orderCode string) (panels []cutsheet.Panel) {
	n := page.GetPageNumber()
	log := v.logger.With().Str("order", orderCode).Int("page", n).Logger()

	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("panic while processing page %d: %v", n, r)
			log.Error().Stack().Err(err).Msg("page skipped")
			panels = nil
		}
	}()

	panels, err := v.processPage(page, renderer, orderCode, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("page skipped")
		return nil
	}
	return panels
}

// drawing is what one page contributes before it is mapped to millimetres
type drawing struct {
	page    int
	meta    cutsheet.Metadata
	outer   geom.Ring
	holes   []geom.Ring
	preview image.Image
}

func (v *VenetaCucine) processPage(page pdf.Page, renderer pdf.Renderer, orderCode string, log zerolog.Logger) ([]cutsheet.Panel, error) {
	d, _ := v.analyze(page, log)
	if d == nil {
		return nil, nil
	}
	if v.opts.Preview && renderer != nil {
		img, err := renderer.RenderPage(d.page-1, v.opts.PreviewDPI)
		if err != nil {
			log.Warn().Err(err).Msg("preview not rendered")
		} else {
			d.preview = img
		}
	}

	primary, err := v.buildPanel(orderCode, *d, false)
	if err != nil {
		return nil, err
	}
	panels := []cutsheet.Panel{primary}

	if d.meta.MirrorRequired {
		mirrored, err := v.buildPanel(orderCode, *d, true)
		if err != nil {
			return nil, err
		}
		panels = append(panels, mirrored)
	}
	return panels, nil
}

// PageReport describes how far the pipeline got on one page
type PageReport struct {
	Page     int               `json:"page"`
	Width    float64           `json:"width"`
	Height   float64           `json:"height"`
	Text     string            `json:"text,omitempty"`
	Metadata cutsheet.Metadata `json:"metadata"`
	Edges    int               `json:"edges"`
	Segments int               `json:"segments"`
	Faces    int               `json:"faces"`
	Outer    *geom.Box         `json:"outer,omitempty"`
	Holes    int               `json:"holes"`
	Skipped  string            `json:"skipped,omitempty"`
}

// Inspect runs the detection stages over every page of doc and reports what
// each found. Nothing is written to disk.
func (v *VenetaCucine) Inspect(ctx context.Context, doc pdf.Document) ([]PageReport, error) {
	pages := doc.GetPages()
	reports := make([]PageReport, 0, len(pages))
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reports = append(reports, v.inspectPage(page))
	}
	return reports, nil
}

func (v *VenetaCucine) inspectPage(page pdf.Page) (rep PageReport) {
	n := page.GetPageNumber()
	defer func() {
		if r := recover(); r != nil {
			rep = PageReport{Page: n, Skipped: fmt.Sprintf("panic: %v", r)}
		}
	}()
	_, rep = v.analyze(page, v.logger.With().Int("page", n).Logger())
	return rep
}

// analyze finds the panel outline and cut-outs of a page. A nil drawing
// means the page holds no panel; the report says why.
func (v *VenetaCucine) analyze(page pdf.Page, log zerolog.Logger) (*drawing, PageReport) {
	rep := PageReport{Page: page.GetPageNumber(), Width: page.GetWidth(), Height: page.GetHeight()}
	skip := func(reason string) (*drawing, PageReport) {
		rep.Skipped = reason
		log.Debug().Str("reason", reason).Msg("page skipped")
		return nil, rep
	}

	rep.Text = page.ExtractText()
	md := cutsheet.ExtractMetadata(rep.Text)
	rep.Metadata = md
	if !md.Valid() {
		return skip(skipNoDimensions)
	}

	edges := pdf.DeduplicateEdges(page.GetEdges())
	rep.Edges = len(edges)
	segs := cutsheet.ExtractLines(edges, v.opts.MinEdgeLen)
	rep.Segments = len(segs)
	if len(segs) == 0 {
		return skip(skipNoEdges)
	}
	polys := geom.Polygonize(segs, v.opts.SnapTol)
	rep.Faces = len(polys)
	if len(polys) == 0 {
		return skip(skipNoFaces)
	}

	classifier := v.classifier(log)
	outer, ok := classifier.PickOuter(polys, page.GetWidth(), page.GetHeight(), md.AspectRatio())
	if !ok {
		return skip(skipNoOuter)
	}
	outer = geom.Repair(outer)
	if len(outer) < 3 {
		return skip(skipNoOuter)
	}
	holes := geom.RepairAll(classifier.PickHoles(polys, outer))
	bounds := outer.Bounds()
	rep.Outer = &bounds
	rep.Holes = len(holes)

	log.Debug().
		Int("segments", len(segs)).
		Int("faces", len(polys)).
		Int("holes", len(holes)).
		Float64("width_mm", md.WidthMM).
		Float64("height_mm", md.HeightMM).
		Bool("mirror", md.MirrorRequired).
		Msg("drawing found")

	return &drawing{page: rep.Page, meta: md, outer: outer, holes: holes}, rep
}

func (v *VenetaCucine) classifier(log zerolog.Logger) *cutsheet.Classifier {
	c := cutsheet.NewClassifier(log)
	c.BorderMargin = v.opts.BorderMargin
	c.MaxPageFillFrac = v.opts.MaxPageFillFrac
	c.MinHoleAreaFrac = v.opts.MinHoleAreaFrac
	c.MaxHoleAreaFrac = v.opts.MaxHoleAreaFrac
	return c
}

// buildPanel maps the drawing to millimetres and writes its files. The
// mirrored variant is the machining template: reflected geometry plus the
// fastener drillings around every sink.
func (v *VenetaCucine) buildPanel(orderCode string, d drawing, mirrored bool) (cutsheet.Panel, error) {
	md := d.meta
	label := fmt.Sprintf("Pezzo %d", d.page)
	base := fmt.Sprintf("%s_%d", orderCode, d.page)
	if mirrored {
		label += " (Specchiato)"
		base += "_mirrored"
	}

	m := cutsheet.NewMapper(d.outer.Bounds(), md.WidthMM, md.HeightMM, false)
	holes := make([]cutsheet.Hole, 0, len(d.holes))
	for _, h := range d.holes {
		holes = append(holes, m.Hole(h.Bounds(), md.HoleType()))
	}
	if mirrored {
		m.Mirrored = true
		holes = cutsheet.MirrorAll(holes, md.WidthMM)
		holes = append(holes, cutsheet.GenerateFasteners(holes, v.opts.Fastener)...)
	}

	panel := cutsheet.Panel{
		Label:       label,
		Page:        d.page,
		WidthMM:     md.WidthMM,
		HeightMM:    md.HeightMM,
		Material:    md.Material,
		ThicknessMM: md.ThicknessMM,
		IsMirrored:  mirrored,
		IsMachining: mirrored,
		DXFPath:     base + ".dxf",
		Holes:       holes,
	}

	dxfPath := filepath.Join(v.opts.OutputDir, panel.DXFPath)
	if err := cad.WriteDXF(dxfPath, m.Ring(d.outer), holes, v.opts.Layers); err != nil {
		return cutsheet.Panel{}, errors.Wrapf(err, "failed to write %s", panel.DXFPath)
	}

	if d.preview != nil {
		name := base + ".png"
		if err := cad.WritePreview(filepath.Join(v.opts.OutputDir, name), d.preview, mirrored); err != nil {
			return cutsheet.Panel{}, errors.Wrapf(err, "failed to write %s", name)
		}
		panel.PreviewPath = name
	}
	return panel, nil
}
