package pdf

import (
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// PreviewDPI is the resolution previews are rendered at.
const PreviewDPI = 150.0

// FitzRenderer rasterises pages with MuPDF through go-fitz. A fitz document
// is not safe for concurrent use, so every call holds the mutex.
type FitzRenderer struct {
	mu  sync.Mutex
	doc *fitz.Document
}

// NewFitzRenderer opens path for rendering
func NewFitzRenderer(path string) (*FitzRenderer, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for rendering: %w", err)
	}
	return &FitzRenderer{doc: doc}, nil
}

// RenderPage renders the page at index (0-based) at dpi.
func (r *FitzRenderer) RenderPage(index int, dpi float64) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		return nil, fmt.Errorf("renderer is closed")
	}
	if index < 0 || index >= r.doc.NumPage() {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, r.doc.NumPage())
	}
	img, err := r.doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index+1, err)
	}
	return img, nil
}

// PageCount returns the number of pages
func (r *FitzRenderer) PageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc == nil {
		return 0
	}
	return r.doc.NumPage()
}

// Close releases the MuPDF document
func (r *FitzRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc == nil {
		return nil
	}
	err := r.doc.Close()
	r.doc = nil
	return err
}
