// Package cutsheet turns the line-work and text of one cut-sheet page into a
// panel description in millimetres.
package cutsheet

// Hole type tags
const (
	HoleTypeRect     = "foro"
	HoleTypeSink     = "foro_lavello"
	HoleTypeFastener = "bussola"
)

// DefaultThicknessMM is used when the page text does not state a thickness.
const DefaultThicknessMM = 20.0

// Metadata is what the page text says about the panel
type Metadata struct {
	OrderCode      *string `json:"order_code,omitempty"`
	WidthMM        float64 `json:"width_mm"`
	HeightMM       float64 `json:"height_mm"`
	ThicknessMM    float64 `json:"thickness_mm"`
	Material       *string `json:"material,omitempty"`
	MirrorRequired bool    `json:"mirror_required"`
}

// Valid reports whether both panel dimensions were found
func (m Metadata) Valid() bool {
	return m.WidthMM > 0 && m.HeightMM > 0
}

// AspectRatio returns width over height, or 0 when the metadata is not valid
func (m Metadata) AspectRatio() float64 {
	if !m.Valid() {
		return 0
	}
	return m.WidthMM / m.HeightMM
}

// Hole is a cutout or drilling in panel millimetres. Rectangular holes carry
// a lower-left corner and a size; circular holes carry a centre, a diameter and
// a depth.
type Hole struct {
	Type       string  `json:"type"`
	XMM        float64 `json:"x_mm"`
	YMM        float64 `json:"y_mm"`
	WidthMM    float64 `json:"width_mm,omitempty"`
	HeightMM   float64 `json:"height_mm,omitempty"`
	DiameterMM float64 `json:"diameter_mm,omitempty"`
	DepthMM    float64 `json:"depth_mm,omitempty"`
}

// IsCircular reports whether the hole is a drilling
func (h Hole) IsCircular() bool {
	return h.DiameterMM > 0
}

// Panel is one exported panel
type Panel struct {
	Label       string  `json:"label"`
	Page        int     `json:"page"`
	WidthMM     float64 `json:"width_mm"`
	HeightMM    float64 `json:"height_mm"`
	Material    *string `json:"material,omitempty"`
	ThicknessMM float64 `json:"thickness_mm"`
	IsMirrored  bool    `json:"is_mirrored"`
	IsMachining bool    `json:"is_machining"`
	DXFPath     string  `json:"dxf_path"`
	PreviewPath string  `json:"preview_path,omitempty"`
	Holes       []Hole  `json:"holes"`
}
