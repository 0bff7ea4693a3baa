package pdf

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFCPUPage implements the Page interface using pdfcpu for geometry and a
// TextLayer for text
type PDFCPUPage struct {
	ctx        *model.Context
	pageNumber int
	pageDict   types.Dict
	resources  types.Dict
	mediaBox   *types.Rectangle
	width      float64
	height     float64
	rotation   int
	content    []byte
	opts       *Options
	text       TextLayer

	edgesOnce sync.Once
	edges     []Edge
}

// NewPDFCPUPage creates a new page using pdfcpu context
func NewPDFCPUPage(ctx *model.Context, pageNumber int, text TextLayer, opts *Options) (*PDFCPUPage, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is nil")
	}
	if pageNumber < 1 || pageNumber > ctx.PageCount {
		return nil, fmt.Errorf("page number %d out of range [1, %d]", pageNumber, ctx.PageCount)
	}
	if opts == nil {
		opts = defaultOptions()
	}

	pageDict, _, attrs, err := ctx.PageDict(pageNumber, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get page dict: %w", err)
	}

	page := &PDFCPUPage{
		ctx:        ctx,
		pageNumber: pageNumber,
		pageDict:   pageDict,
		opts:       opts,
		text:       text,
	}

	if attrs != nil {
		page.mediaBox = attrs.MediaBox
		page.rotation = attrs.Rotate
		page.resources = attrs.Resources
	}
	if page.mediaBox == nil {
		// US Letter
		page.mediaBox = types.NewRectangle(0, 0, 612, 792)
	}
	page.width = page.mediaBox.Width()
	page.height = page.mediaBox.Height()

	if page.resources == nil {
		if res, err := ctx.DereferenceDict(pageDict["Resources"]); err == nil {
			page.resources = res
		}
	}

	if err := page.extractContent(); err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}
	return page, nil
}

// extractContent decodes and joins the page content streams
func (p *PDFCPUPage) extractContent() error {
	contents := p.pageDict["Contents"]
	if contents == nil {
		return nil
	}

	var streams [][]byte
	switch v := contents.(type) {
	case types.IndirectRef, *types.IndirectRef:
		obj, err := p.ctx.Dereference(derefable(v))
		if err != nil {
			return fmt.Errorf("failed to dereference content: %w", err)
		}
		if arr, ok := obj.(types.Array); ok {
			streams = p.decodeAll(arr)
			break
		}
		data, err := p.decodeStream(v)
		if err != nil {
			return err
		}
		streams = append(streams, data)
	case types.Array:
		streams = p.decodeAll(v)
	}

	p.content = combineContentStreams(streams)
	return nil
}

func (p *PDFCPUPage) decodeAll(arr types.Array) [][]byte {
	var streams [][]byte
	for _, item := range arr {
		data, err := p.decodeStream(item)
		if err != nil {
			continue
		}
		streams = append(streams, data)
	}
	return streams
}

func (p *PDFCPUPage) decodeStream(obj types.Object) ([]byte, error) {
	sd, _, err := p.ctx.DereferenceStreamDict(derefable(obj))
	if err != nil {
		return nil, fmt.Errorf("failed to dereference stream: %w", err)
	}
	if sd == nil {
		return nil, fmt.Errorf("content stream not found")
	}
	return decodeStream(sd)
}

// decodeStream decodes a stream dictionary
func decodeStream(stream *types.StreamDict) ([]byte, error) {
	if len(stream.Content) > 0 {
		return stream.Content, nil
	}
	if err := stream.Decode(); err != nil {
		return nil, fmt.Errorf("failed to decode stream: %w", err)
	}
	return stream.Content, nil
}

// derefable turns a pointer reference into the value form pdfcpu resolves.
func derefable(obj types.Object) types.Object {
	if ref, ok := obj.(*types.IndirectRef); ok && ref != nil {
		return *ref
	}
	return obj
}

// combineContentStreams combines multiple content streams
func combineContentStreams(streams [][]byte) []byte {
	var combined []byte
	for _, stream := range streams {
		combined = append(combined, stream...)
		combined = append(combined, '\n')
	}
	return combined
}

// GetPageNumber returns the page number (1-based)
func (p *PDFCPUPage) GetPageNumber() int {
	return p.pageNumber
}

// GetWidth returns the page width
func (p *PDFCPUPage) GetWidth() float64 {
	return p.width
}

// GetHeight returns the page height
func (p *PDFCPUPage) GetHeight() float64 {
	return p.height
}

// GetRotation returns the page rotation in degrees
func (p *PDFCPUPage) GetRotation() int {
	return p.rotation
}

// GetBBox returns the page bounding box
func (p *PDFCPUPage) GetBBox() BoundingBox {
	return BoundingBox{X0: 0, Y0: 0, X1: p.width, Y1: p.height}
}

// GetEdges returns the painted segments of the page in top-left page space.
// The content stream is parsed on first use.
func (p *PDFCPUPage) GetEdges() []Edge {
	p.edgesOnce.Do(func() {
		if len(p.content) == 0 {
			return
		}
		parser := NewContentStreamParser(&formResolver{ctx: p.ctx}, p.opts.CurveStep)
		raw := parser.Parse(p.content, p.resources)
		p.edges = toPageSpace(raw, p.mediaBox.LL.X, p.mediaBox.UR.Y)
	})
	return p.edges
}

// toPageSpace moves edges from PDF user space into top-left page space.
func toPageSpace(edges []Edge, llx, ury float64) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = Edge{
			X0:     e.X0 - llx,
			Y0:     ury - e.Y0,
			X1:     e.X1 - llx,
			Y1:     ury - e.Y1,
			Width:  e.Width,
			Source: e.Source,
		}
	}
	return out
}

// ExtractText returns the page text. Pages without a text layer are handed to
// OCR when it is configured.
func (p *PDFCPUPage) ExtractText() string {
	var text string
	if p.text != nil {
		if t, err := p.text.PageText(p.pageNumber); err == nil {
			text = t
		}
	}
	if strings.TrimSpace(text) != "" || p.opts.OCR == nil || p.opts.Renderer == nil {
		return text
	}
	img, err := p.opts.Renderer.RenderPage(p.pageNumber-1, OCRDPI)
	if err != nil {
		return text
	}
	ocrText, err := p.opts.OCR.Recognize(context.Background(), img)
	if err != nil {
		return text
	}
	return ocrText
}

// formResolver resolves Form XObjects through the pdfcpu context.
type formResolver struct {
	ctx *model.Context
}

func (r *formResolver) Form(resources any, name string) ([]byte, Matrix, any, bool) {
	res, ok := resources.(types.Dict)
	if !ok || res == nil {
		return nil, Matrix{}, nil, false
	}
	xobjects, err := r.ctx.DereferenceDict(res["XObject"])
	if err != nil || xobjects == nil {
		return nil, Matrix{}, nil, false
	}
	entry, found := xobjects[name]
	if !found {
		return nil, Matrix{}, nil, false
	}
	sd, _, err := r.ctx.DereferenceStreamDict(derefable(entry))
	if err != nil || sd == nil {
		return nil, Matrix{}, nil, false
	}
	if st := sd.NameEntry("Subtype"); st == nil || *st != "Form" {
		return nil, Matrix{}, nil, false
	}
	content, err := decodeStream(sd)
	if err != nil {
		return nil, Matrix{}, nil, false
	}

	matrix := IdentityMatrix()
	if arr, err := r.ctx.DereferenceArray(sd.Dict["Matrix"]); err == nil && len(arr) == 6 {
		var v [6]float64
		for i, o := range arr {
			v[i] = r.number(o)
		}
		matrix = Matrix{A: v[0], B: v[1], C: v[2], D: v[3], E: v[4], F: v[5]}
	}

	var formRes any
	if d, err := r.ctx.DereferenceDict(sd.Dict["Resources"]); err == nil && d != nil {
		formRes = d
	}
	return content, matrix, formRes, true
}

func (r *formResolver) number(o types.Object) float64 {
	if o2, err := r.ctx.Dereference(o); err == nil {
		o = o2
	}
	switch v := o.(type) {
	case types.Integer:
		return float64(v)
	case types.Float:
		return float64(v)
	}
	return 0
}
