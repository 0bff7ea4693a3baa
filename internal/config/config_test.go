package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explosionLink/stone-control/pkg/parser"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, parser.ClientVenetaCucine, cfg.Parser.DefaultClient)
	assert.Equal(t, "PERIMETRO", cfg.DXF.OuterLayer)
	assert.Equal(t, "LAVORAZIONE", cfg.DXF.HoleLayer)
	assert.Equal(t, 20.0, cfg.Extraction.MinEdgeLen)
	assert.Equal(t, 1.0, cfg.Extraction.SnapTol)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stonecontrol.yaml")
	yml := `
output_dir: /srv/outputs
log:
  level: debug
  format: json
extraction:
  border_margin: 10
fastener:
  diameter_mm: 8
  type: bussola_m6
dxf:
  outer_layer: OUTER
  hole_layer: INNER
parser:
  workers: 4
store:
  path: /srv/stone.db
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/outputs", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10.0, cfg.Extraction.BorderMargin)
	assert.Equal(t, 20.0, cfg.Extraction.MinEdgeLen, "unset keys keep their defaults")
	assert.Equal(t, 8.0, cfg.Fastener.DiameterMM)
	assert.Equal(t, 15.0, cfg.Fastener.DepthMM)
	assert.Equal(t, 4, cfg.Parser.Workers)
	assert.Equal(t, "/srv/stone.db", cfg.Store.Path)

	opts := cfg.ParserOptions()
	assert.Equal(t, "OUTER", opts.Layers.Outline)
	assert.Equal(t, "INNER", opts.Layers.Machining)
	assert.Equal(t, "bussola_m6", opts.Fastener.Type)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, "/srv/outputs", opts.OutputDir)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("output_dir: [unclosed"), 0o644))
	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("parser:\n  workers: 0\n"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.yaml")},
		{"malformed yaml", bad},
		{"invalid values", invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STONECONTROL_OUTPUT_DIR", "/tmp/out")
	t.Setenv("STONECONTROL_LOG_LEVEL", "warn")
	t.Setenv("STONECONTROL_SNAP_TOL", "2.5")
	t.Setenv("STONECONTROL_WORKERS", "3")
	t.Setenv("STONECONTROL_PREVIEW_ENABLED", "false")
	t.Setenv("STONECONTROL_OCR_ENABLED", "true")
	t.Setenv("STONECONTROL_DB_PATH", "/tmp/stone.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2.5, cfg.Extraction.SnapTol)
	assert.Equal(t, 3, cfg.Parser.Workers)
	assert.False(t, cfg.Preview.Enabled)
	assert.True(t, cfg.OCR.Enabled)
	assert.Equal(t, "/tmp/stone.db", cfg.Store.Path)
}

func TestLoadRejectsZeroExtraction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zero.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extraction:\n  border_margin: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive")
}

// Every value that passes validation reaches the parser unchanged.
func TestParserOptionsMatchValidatedConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extraction.BorderMargin = 0.5
	cfg.Extraction.MinEdgeLen = 3
	cfg.Extraction.SnapTol = 0.25
	cfg.Extraction.MinHoleAreaFrac = 0.0001
	require.NoError(t, cfg.Validate())

	opts := cfg.ParserOptions()
	assert.Equal(t, 0.5, opts.BorderMargin)
	assert.Equal(t, 3.0, opts.MinEdgeLen)
	assert.Equal(t, 0.25, opts.SnapTol)
	assert.Equal(t, 0.0001, opts.MinHoleAreaFrac)
}

func TestEnvOverridesInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"float", "STONECONTROL_SNAP_TOL", "wide"},
		{"bool", "STONECONTROL_PREVIEW_ENABLED", "maybe"},
		{"int", "STONECONTROL_WORKERS", "many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.OutputDir = " " }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
		{"negative snap", func(c *Config) { c.Extraction.SnapTol = -1 }},
		{"zero snap", func(c *Config) { c.Extraction.SnapTol = 0 }},
		{"zero min edge", func(c *Config) { c.Extraction.MinEdgeLen = 0 }},
		{"zero border margin", func(c *Config) { c.Extraction.BorderMargin = 0 }},
		{"zero curve step", func(c *Config) { c.Extraction.CurveStep = 0 }},
		{"zero min hole fraction", func(c *Config) { c.Extraction.MinHoleAreaFrac = 0 }},
		{"page fill", func(c *Config) { c.Extraction.MaxPageFillFrac = 1.5 }},
		{"hole fractions", func(c *Config) { c.Extraction.MinHoleAreaFrac = 0.7 }},
		{"text layer", func(c *Config) { c.Extraction.TextLayer = "poppler" }},
		{"fastener diameter", func(c *Config) { c.Fastener.DiameterMM = 0 }},
		{"fastener type", func(c *Config) { c.Fastener.Type = "" }},
		{"empty layer", func(c *Config) { c.DXF.HoleLayer = "" }},
		{"same layers", func(c *Config) { c.DXF.HoleLayer = c.DXF.OuterLayer }},
		{"preview dpi", func(c *Config) { c.Preview.DPI = 0 }},
		{"ocr language", func(c *Config) { c.OCR = OCRConfig{Enabled: true} }},
		{"workers", func(c *Config) { c.Parser.Workers = 0 }},
		{"default client", func(c *Config) { c.Parser.DefaultClient = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := DefaultConfig()
	cfg.Preview.Enabled = false
	cfg.Preview.DPI = 0
	assert.NoError(t, cfg.Validate(), "dpi is irrelevant without previews")
}
