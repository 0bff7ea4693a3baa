// Package stonecontrol turns vendor cut-sheet PDFs into the panel outlines and
// machining holes of stone countertops, exported as DXF drawings and PNG
// previews.
//
// Basic usage:
//
//	cfg, err := stonecontrol.LoadConfig("stonecontrol.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	proc, err := stonecontrol.New(cfg, zerolog.Nop())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer proc.Close()
//
//	panels, err := proc.Process(ctx, "order.pdf", "306230147", "")
package stonecontrol

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/explosionLink/stone-control/internal/config"
	"github.com/explosionLink/stone-control/pkg/cutsheet"
	"github.com/explosionLink/stone-control/pkg/parser"
	"github.com/explosionLink/stone-control/pkg/pdf"
)

// Re-export main types for convenience
type (
	Config     = config.Config
	Panel      = cutsheet.Panel
	Hole       = cutsheet.Hole
	Metadata   = cutsheet.Metadata
	Parser     = parser.Parser
	Registry   = parser.Registry
	PageReport = parser.PageReport
)

// Re-export errors
var (
	ErrNoDrawings    = parser.ErrNoDrawings
	ErrUnknownClient = parser.ErrUnknownClient
)

// LoadConfig reads the configuration file at path. An empty path gives the
// defaults with environment overrides applied.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// Processor dispatches documents to the parser registered for their client.
type Processor struct {
	cfg      *Config
	logger   zerolog.Logger
	registry *parser.Registry
	ocr      *pdf.TesseractOCR
}

// New creates a processor with every built-in parser registered.
func New(cfg *Config, logger zerolog.Logger) (*Processor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := cfg.ParserOptions()
	var ocr *pdf.TesseractOCR
	if cfg.OCR.Enabled {
		t, err := pdf.NewTesseractOCR(cfg.OCR.Language)
		if err != nil {
			logger.Warn().Err(err).Msg("OCR unavailable, scanned pages will be skipped")
		} else {
			ocr = t
			opts.OCR = t
		}
	}

	registry, err := parser.NewRegistry(parser.NewVenetaCucine(opts, logger))
	if err != nil {
		if ocr != nil {
			ocr.Close()
		}
		return nil, err
	}

	p, err := NewWithRegistry(cfg, logger, registry)
	if err != nil {
		if ocr != nil {
			ocr.Close()
		}
		return nil, err
	}
	p.ocr = ocr
	return p, nil
}

// NewWithRegistry creates a processor that dispatches to the parsers of
// registry.
func NewWithRegistry(cfg *Config, logger zerolog.Logger, registry *Registry) (*Processor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if registry == nil {
		return nil, fmt.Errorf("nil registry")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Processor{cfg: cfg, logger: logger, registry: registry}, nil
}

// Clients returns the client codes the processor can handle
func (p *Processor) Clients() []string {
	return p.registry.Codes()
}

// Process parses the PDF at pdfPath with the parser of clientCode, or of the
// configured default client when clientCode is empty. Output files are named
// after orderCode.
func (p *Processor) Process(ctx context.Context, pdfPath, orderCode, clientCode string) ([]Panel, error) {
	orderCode = strings.TrimSpace(orderCode)
	if orderCode == "" {
		return nil, fmt.Errorf("order code is required")
	}
	if strings.ContainsAny(orderCode, `/\`) || orderCode == "." || orderCode == ".." {
		return nil, fmt.Errorf("invalid order code %q", orderCode)
	}
	if clientCode == "" {
		clientCode = p.cfg.Parser.DefaultClient
	}

	prs, err := p.registry.Get(clientCode)
	if err != nil {
		return nil, err
	}

	logger := p.logger.With().
		Str("order", orderCode).
		Str("client", prs.ClientCode()).
		Str("pdf", pdfPath).
		Logger()
	logger.Info().Msg("processing document")

	start := time.Now()
	panels, err := prs.Parse(ctx, pdfPath, orderCode)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("processing failed")
		return nil, err
	}
	logger.Info().
		Int("panels", len(panels)).
		Dur("elapsed", time.Since(start)).
		Msg("document processed")
	return panels, nil
}

// Inspect reports what the detection stages of the client's parser find on
// every page of the PDF, reading it with the same text layer and OCR settings
// as Process. No file is written.
func (p *Processor) Inspect(ctx context.Context, pdfPath, clientCode string) ([]PageReport, error) {
	if clientCode == "" {
		clientCode = p.cfg.Parser.DefaultClient
	}
	prs, err := p.registry.Get(clientCode)
	if err != nil {
		return nil, err
	}
	insp, ok := prs.(parser.Inspector)
	if !ok {
		return nil, fmt.Errorf("client %s does not support inspection", prs.ClientCode())
	}
	return insp.InspectFile(ctx, pdfPath)
}

// Close releases the OCR engine, if any
func (p *Processor) Close() error {
	if p.ocr == nil {
		return nil
	}
	err := p.ocr.Close()
	p.ocr = nil
	return err
}
