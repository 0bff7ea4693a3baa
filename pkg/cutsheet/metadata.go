package cutsheet

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	// Width x thickness x height, as printed in the title block.
	dimensionsRe = regexp.MustCompile(`(\d{3,5})\s*[xX×]\s*(\d{1,3})\s*[xX×]\s*(\d{3,5})`)
	orderCodeRe  = regexp.MustCompile(`Ordine\s+3CAD\s+(\d+)`)
	materialRe   = regexp.MustCompile(`Top\s+(.*?)\s+Sp\.\d+`)

	mirrorMarkers = []string{"SOTTO TOP VEDI DIMA", "SOTTOTOP"}
)

// ExtractMetadata reads the panel metadata out of free page text. Fields that
// cannot be found keep their defaults; it never fails.
func ExtractMetadata(text string) Metadata {
	text = norm.NFKC.String(text)
	md := Metadata{ThicknessMM: DefaultThicknessMM}

	if m := dimensionsRe.FindStringSubmatch(text); m != nil {
		md.WidthMM = parseMM(m[1])
		if t := parseMM(m[2]); t > 0 {
			md.ThicknessMM = t
		}
		md.HeightMM = parseMM(m[3])
	}

	if m := orderCodeRe.FindStringSubmatch(text); m != nil {
		code := m[1]
		md.OrderCode = &code
	}

	upper := cases.Upper(language.Und).String(text)
	for _, marker := range mirrorMarkers {
		if strings.Contains(upper, marker) {
			md.MirrorRequired = true
			break
		}
	}

	if m := materialRe.FindStringSubmatch(text); m != nil {
		if mat := strings.TrimSpace(m[1]); mat != "" {
			md.Material = &mat
		}
	}
	return md
}

// HoleType returns the tag given to traced holes on a page.
func (m Metadata) HoleType() string {
	if m.MirrorRequired {
		return HoleTypeSink
	}
	return HoleTypeRect
}

func parseMM(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
