package pdf

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFDocument implements the Document interface: pdfcpu for page geometry,
// a TextLayer for page text
type PDFDocument struct {
	ctx      *model.Context
	filepath string
	pages    []Page
	text     TextLayer
}

// Open opens a PDF file and returns a Document
func Open(filepath string, opts ...Option) (Document, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	if options.Password != "" {
		conf.UserPW = options.Password
		conf.OwnerPW = options.Password
	}

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}

	text, err := OpenTextLayer(filepath, options.TextLayer)
	if err != nil {
		// Geometry still works without text; pages just report no text.
		text = nil
	}

	doc := &PDFDocument{
		ctx:      ctx,
		filepath: filepath,
		text:     text,
	}
	if err := doc.initializePages(options); err != nil {
		doc.Close()
		return nil, fmt.Errorf("failed to initialize pages: %w", err)
	}
	return doc, nil
}

// initializePages initializes all pages in the document
func (d *PDFDocument) initializePages(opts *Options) error {
	pageCount := d.ctx.PageCount
	d.pages = make([]Page, pageCount)

	for i := 1; i <= pageCount; i++ {
		page, err := NewPDFCPUPage(d.ctx, i, d.text, opts)
		if err != nil {
			return fmt.Errorf("failed to create page %d: %w", i, err)
		}
		d.pages[i-1] = page
	}
	return nil
}

// GetPages returns all pages in the document
func (d *PDFDocument) GetPages() []Page {
	return d.pages
}

// GetPage returns a specific page by index (0-based)
func (d *PDFDocument) GetPage(index int) (Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(d.pages))
	}
	return d.pages[index], nil
}

// PageCount returns the total number of pages
func (d *PDFDocument) PageCount() int {
	return len(d.pages)
}

// Close releases resources associated with the document
func (d *PDFDocument) Close() error {
	var err error
	if d.text != nil {
		err = d.text.Close()
		d.text = nil
	}
	d.ctx = nil
	d.pages = nil
	return err
}
