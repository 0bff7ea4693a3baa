package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// OCRDPI is the resolution pages are rendered at before recognition.
const OCRDPI = 300.0

// TesseractOCR recognises text with Tesseract through gosseract. The client
// is shared, so calls are serialised.
type TesseractOCR struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractOCR creates a client for the given languages, e.g. "ita+eng".
func NewTesseractOCR(languages string) (*TesseractOCR, error) {
	client := gosseract.NewClient()
	if languages != "" {
		if err := client.SetLanguage(strings.Split(languages, "+")...); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set OCR language: %w", err)
		}
	}
	return &TesseractOCR{client: client}, nil
}

// Recognize returns the text found in img
func (t *TesseractOCR) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Close releases OCR resources
func (t *TesseractOCR) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}
