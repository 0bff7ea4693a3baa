package pdf

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	gopdf "github.com/dslipak/pdf"
	lpdf "github.com/ledongthuc/pdf"
)

// Text layer backends
const (
	TextLayerAuto       = "auto"
	TextLayerLedongthuc = "ledongthuc"
	TextLayerDslipak    = "dslipak"
)

// Grouping tolerances for turning positioned text runs into lines
const (
	lineYTolerance = 3.0
	wordXTolerance = 3.0
)

// TextItem is a positioned run of text in PDF user space (origin bottom-left)
type TextItem struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// OpenTextLayer opens the text backend named by layer.
func OpenTextLayer(path, layer string) (TextLayer, error) {
	switch layer {
	case TextLayerLedongthuc:
		return openLedongthuc(path)
	case TextLayerDslipak:
		return openDslipak(path)
	case TextLayerAuto, "":
		primary, perr := openLedongthuc(path)
		fallback, ferr := openDslipak(path)
		switch {
		case perr != nil && ferr != nil:
			return nil, errors.Join(perr, ferr)
		case perr != nil:
			return fallback, nil
		case ferr != nil:
			return primary, nil
		}
		return &chainTextLayer{layers: []TextLayer{primary, fallback}}, nil
	}
	return nil, fmt.Errorf("unknown text layer %q", layer)
}

// chainTextLayer returns the first non-empty text among its layers.
type chainTextLayer struct {
	layers []TextLayer
}

func (c *chainTextLayer) PageText(pageNumber int) (string, error) {
	var errs []error
	for _, l := range c.layers {
		text, err := l.PageText(pageNumber)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}
	return "", errors.Join(errs...)
}

func (c *chainTextLayer) Close() error {
	var errs []error
	for _, l := range c.layers {
		errs = append(errs, l.Close())
	}
	return errors.Join(errs...)
}

// ledongthucText reads text with github.com/ledongthuc/pdf
type ledongthucText struct {
	file   io.Closer
	reader *lpdf.Reader
}

func openLedongthuc(path string) (*ledongthucText, error) {
	f, r, err := lpdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with ledongthuc: %w", err)
	}
	return &ledongthucText{file: f, reader: r}, nil
}

func (l *ledongthucText) PageText(pageNumber int) (text string, err error) {
	if pageNumber < 1 || pageNumber > l.reader.NumPage() {
		return "", fmt.Errorf("invalid page number: %d", pageNumber)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ledongthuc: page %d: %v", pageNumber, r)
		}
	}()

	page := l.reader.Page(pageNumber)
	if page.V.IsNull() {
		return "", nil
	}
	content := page.Content()
	items := make([]TextItem, 0, len(content.Text))
	for _, t := range content.Text {
		items = append(items, TextItem{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return AssembleText(items), nil
}

func (l *ledongthucText) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// dslipakText reads text with github.com/dslipak/pdf
type dslipakText struct {
	reader *gopdf.Reader
}

func openDslipak(path string) (*dslipakText, error) {
	r, err := gopdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF with dslipak: %w", err)
	}
	return &dslipakText{reader: r}, nil
}

func (d *dslipakText) PageText(pageNumber int) (text string, err error) {
	if pageNumber < 1 || pageNumber > d.reader.NumPage() {
		return "", fmt.Errorf("invalid page number: %d", pageNumber)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dslipak: page %d: %v", pageNumber, r)
		}
	}()

	page := d.reader.Page(pageNumber)
	if page.V.IsNull() {
		return "", nil
	}
	content := page.Content()
	items := make([]TextItem, 0, len(content.Text))
	for _, t := range content.Text {
		items = append(items, TextItem{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return AssembleText(items), nil
}

func (d *dslipakText) Close() error {
	d.reader = nil
	return nil
}

// AssembleText orders text runs top-to-bottom, left-to-right and joins them
// into lines. Runs on the same baseline separated by more than a small gap
// get a space between them.
func AssembleText(items []TextItem) string {
	if len(items) == 0 {
		return ""
	}
	sorted := make([]TextItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var rows [][]TextItem
	for _, it := range sorted {
		if n := len(rows); n > 0 && math.Abs(rows[n-1][0].Y-it.Y) <= lineYTolerance {
			rows[n-1] = append(rows[n-1], it)
			continue
		}
		rows = append(rows, []TextItem{it})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool {
			return row[i].X < row[j].X
		})
		var line strings.Builder
		lastX1 := math.Inf(-1)
		for _, it := range row {
			if line.Len() > 0 && it.X-lastX1 > wordXTolerance {
				line.WriteByte(' ')
			}
			line.WriteString(it.S)
			lastX1 = math.Max(lastX1, it.X+it.W)
		}
		if l := strings.TrimSpace(line.String()); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}
