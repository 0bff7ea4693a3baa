package cad

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// FlipHorizontal returns a copy of img reflected left to right.
func FlipHorizontal(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	// x' = (minX + maxX) - x maps each column onto its mirror.
	m := f64.Aff3{
		-1, 0, float64(b.Min.X + b.Max.X),
		0, 1, 0,
	}
	draw.NearestNeighbor.Transform(dst, m, img, b, draw.Src, nil)
	return dst
}

// WritePreview encodes img as PNG at path, flipped horizontally when the
// panel is mirrored.
func WritePreview(path string, img image.Image, mirrored bool) error {
	if img == nil {
		return fmt.Errorf("no image to write")
	}
	if mirrored {
		img = FlipHorizontal(img)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return f.Close()
}
