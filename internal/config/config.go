// Package config loads stone-control settings from YAML, .env files and
// STONECONTROL_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/explosionLink/stone-control/pkg/cad"
	"github.com/explosionLink/stone-control/pkg/cutsheet"
	"github.com/explosionLink/stone-control/pkg/geom"
	"github.com/explosionLink/stone-control/pkg/parser"
	"github.com/explosionLink/stone-control/pkg/pdf"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "STONECONTROL_"

// Config holds all settings
type Config struct {
	OutputDir  string           `yaml:"output_dir"`
	Log        LogConfig        `yaml:"log"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Fastener   FastenerConfig   `yaml:"fastener"`
	DXF        DXFConfig        `yaml:"dxf"`
	Preview    PreviewConfig    `yaml:"preview"`
	OCR        OCRConfig        `yaml:"ocr"`
	Parser     ParserConfig     `yaml:"parser"`
	Store      StoreConfig      `yaml:"store"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// ExtractionConfig holds the geometry thresholds.
type ExtractionConfig struct {
	MinEdgeLen      float64 `yaml:"min_edge_len"`
	SnapTol         float64 `yaml:"snap_tol"`
	BorderMargin    float64 `yaml:"border_margin"`
	MaxPageFillFrac float64 `yaml:"max_page_fill_frac"`
	MinHoleAreaFrac float64 `yaml:"min_hole_area_frac"`
	MaxHoleAreaFrac float64 `yaml:"max_hole_area_frac"`
	CurveStep       float64 `yaml:"curve_step"`
	TextLayer       string  `yaml:"text_layer"`
}

// FastenerConfig describes the drillings added to machining templates.
type FastenerConfig struct {
	DiameterMM float64 `yaml:"diameter_mm"`
	DepthMM    float64 `yaml:"depth_mm"`
	OffsetMM   float64 `yaml:"offset_mm"`
	Type       string  `yaml:"type"`
}

// DXFConfig names the drawing layers.
type DXFConfig struct {
	OuterLayer string `yaml:"outer_layer"`
	HoleLayer  string `yaml:"hole_layer"`
}

// PreviewConfig controls PNG previews.
type PreviewConfig struct {
	Enabled bool    `yaml:"enabled"`
	DPI     float64 `yaml:"dpi"`
}

// OCRConfig controls the Tesseract fallback for pages without text.
type OCRConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
}

// ParserConfig holds dispatch settings.
type ParserConfig struct {
	Workers       int    `yaml:"workers"`
	DefaultClient string `yaml:"default_client"`
}

// StoreConfig locates the results database. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Load reads the .env file (when present), the YAML file at path (when not
// empty), then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the defaults the cut-sheet pipeline was tuned with.
func DefaultConfig() *Config {
	fs := cutsheet.DefaultFastenerSpec()
	return &Config{
		OutputDir: "outputs",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Extraction: ExtractionConfig{
			MinEdgeLen:      cutsheet.DefaultMinEdgeLen,
			SnapTol:         geom.DefaultSnapTol,
			BorderMargin:    cutsheet.DefaultBorderMargin,
			MaxPageFillFrac: cutsheet.DefaultMaxPageFillFrac,
			MinHoleAreaFrac: cutsheet.DefaultMinHoleAreaFrac,
			MaxHoleAreaFrac: cutsheet.DefaultMaxHoleAreaFrac,
			CurveStep:       pdf.DefaultCurveStep,
			TextLayer:       pdf.TextLayerAuto,
		},
		Fastener: FastenerConfig{
			DiameterMM: fs.DiameterMM,
			DepthMM:    fs.DepthMM,
			OffsetMM:   fs.OffsetMM,
			Type:       fs.Type,
		},
		DXF: DXFConfig{
			OuterLayer: cad.DefaultOutlineLayer,
			HoleLayer:  cad.DefaultMachiningLayer,
		},
		Preview: PreviewConfig{
			Enabled: true,
			DPI:     pdf.PreviewDPI,
		},
		OCR: OCRConfig{
			Enabled:  false,
			Language: "ita+eng",
		},
		Parser: ParserConfig{
			Workers:       1,
			DefaultClient: parser.ClientVenetaCucine,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	e := c.Extraction
	if e.MinEdgeLen <= 0 || e.SnapTol <= 0 || e.BorderMargin <= 0 || e.CurveStep <= 0 {
		return fmt.Errorf("extraction lengths must be positive")
	}
	if e.MaxPageFillFrac <= 0 || e.MaxPageFillFrac > 1 {
		return fmt.Errorf("max_page_fill_frac must be in (0, 1]")
	}
	if e.MinHoleAreaFrac <= 0 || e.MaxHoleAreaFrac <= e.MinHoleAreaFrac || e.MaxHoleAreaFrac > 1 {
		return fmt.Errorf("hole area fractions must satisfy 0 < min < max <= 1")
	}
	switch e.TextLayer {
	case pdf.TextLayerAuto, pdf.TextLayerLedongthuc, pdf.TextLayerDslipak:
	default:
		return fmt.Errorf("invalid text layer: %s", e.TextLayer)
	}

	if c.Fastener.DiameterMM <= 0 || c.Fastener.DepthMM <= 0 {
		return fmt.Errorf("fastener diameter and depth must be positive")
	}
	if c.Fastener.Type == "" {
		return fmt.Errorf("fastener type must not be empty")
	}
	if c.DXF.OuterLayer == "" || c.DXF.HoleLayer == "" {
		return fmt.Errorf("dxf layer names must not be empty")
	}
	if c.DXF.OuterLayer == c.DXF.HoleLayer {
		return fmt.Errorf("dxf outer and hole layers must differ")
	}
	if c.Preview.Enabled && c.Preview.DPI <= 0 {
		return fmt.Errorf("preview dpi must be positive")
	}
	if c.OCR.Enabled && c.OCR.Language == "" {
		return fmt.Errorf("ocr language must not be empty")
	}
	if c.Parser.Workers < 1 {
		return fmt.Errorf("parser workers must be at least 1")
	}
	if c.Parser.DefaultClient == "" {
		return fmt.Errorf("parser default_client must not be empty")
	}
	return nil
}

// ParserOptions converts the settings into parser options.
func (c *Config) ParserOptions() parser.Options {
	return parser.Options{
		OutputDir:       c.OutputDir,
		Workers:         c.Parser.Workers,
		MinEdgeLen:      c.Extraction.MinEdgeLen,
		SnapTol:         c.Extraction.SnapTol,
		BorderMargin:    c.Extraction.BorderMargin,
		MaxPageFillFrac: c.Extraction.MaxPageFillFrac,
		MinHoleAreaFrac: c.Extraction.MinHoleAreaFrac,
		MaxHoleAreaFrac: c.Extraction.MaxHoleAreaFrac,
		Fastener: cutsheet.FastenerSpec{
			DiameterMM: c.Fastener.DiameterMM,
			DepthMM:    c.Fastener.DepthMM,
			OffsetMM:   c.Fastener.OffsetMM,
			Type:       c.Fastener.Type,
		},
		Layers: cad.Layers{
			Outline:   c.DXF.OuterLayer,
			Machining: c.DXF.HoleLayer,
		},
		Preview:    c.Preview.Enabled,
		PreviewDPI: c.Preview.DPI,
		TextLayer:  c.Extraction.TextLayer,
		CurveStep:  c.Extraction.CurveStep,
	}
}

// applyEnvOverrides applies STONECONTROL_* variables to cfg.
func applyEnvOverrides(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *float64) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = f
		return nil
	}
	flag := func(name string, dst *bool) error {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("OUTPUT_DIR", &cfg.OutputDir)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("TEXT_LAYER", &cfg.Extraction.TextLayer)
	str("OCR_LANGUAGE", &cfg.OCR.Language)
	str("DEFAULT_CLIENT", &cfg.Parser.DefaultClient)
	str("DB_PATH", &cfg.Store.Path)
	str("DXF_OUTER_LAYER", &cfg.DXF.OuterLayer)
	str("DXF_HOLE_LAYER", &cfg.DXF.HoleLayer)

	for _, o := range []struct {
		name string
		dst  *float64
	}{
		{"MIN_EDGE_LEN", &cfg.Extraction.MinEdgeLen},
		{"SNAP_TOL", &cfg.Extraction.SnapTol},
		{"BORDER_MARGIN", &cfg.Extraction.BorderMargin},
		{"PREVIEW_DPI", &cfg.Preview.DPI},
		{"FASTENER_DIAMETER_MM", &cfg.Fastener.DiameterMM},
		{"FASTENER_DEPTH_MM", &cfg.Fastener.DepthMM},
		{"FASTENER_OFFSET_MM", &cfg.Fastener.OffsetMM},
	} {
		if err := num(o.name, o.dst); err != nil {
			return err
		}
	}

	if err := flag("PREVIEW_ENABLED", &cfg.Preview.Enabled); err != nil {
		return err
	}
	if err := flag("OCR_ENABLED", &cfg.OCR.Enabled); err != nil {
		return err
	}

	if v, ok := os.LookupEnv(EnvPrefix + "WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sWORKERS: %w", EnvPrefix, err)
		}
		cfg.Parser.Workers = n
	}
	return nil
}
