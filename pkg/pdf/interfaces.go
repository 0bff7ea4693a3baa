package pdf

import (
	"context"
	"image"
)

// Document represents an opened PDF document
type Document interface {
	// GetPages returns all pages in the document
	GetPages() []Page

	// GetPage returns a specific page by index (0-based)
	GetPage(index int) (Page, error)

	// PageCount returns the total number of pages
	PageCount() int

	// Close releases resources associated with the document
	Close() error
}

// Page represents a single page in a PDF document
type Page interface {
	// GetPageNumber returns the page number (1-based)
	GetPageNumber() int

	// GetWidth returns the page width
	GetWidth() float64

	// GetHeight returns the page height
	GetHeight() float64

	// GetRotation returns the page rotation in degrees
	GetRotation() int

	// GetBBox returns the page bounding box
	GetBBox() BoundingBox

	// GetEdges returns every painted straight segment of the page
	GetEdges() []Edge

	// ExtractText extracts text from the page
	ExtractText() string
}

// TextLayer reads the text of a page by its 1-based number
type TextLayer interface {
	PageText(pageNumber int) (string, error)
	Close() error
}

// Renderer rasterises a page (0-based index) at the given resolution
type Renderer interface {
	RenderPage(index int, dpi float64) (image.Image, error)
	Close() error
}

// OCR recognises the text in a page image
type OCR interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}
