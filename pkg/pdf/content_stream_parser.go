package pdf

import (
	"bytes"
	"math"
	"strconv"
)

// maxFormDepth bounds Form XObject recursion.
const maxFormDepth = 8

// FormResolver looks up Form XObjects by resource name.
type FormResolver interface {
	// Form returns the decoded content, the form matrix and the resources of
	// the named Form XObject. ok is false for image XObjects and unknown names.
	Form(resources any, name string) (content []byte, matrix Matrix, formResources any, ok bool)
}

// ContentStreamParser walks a content stream and collects every painted path
// segment in default user space (origin bottom-left).
type ContentStreamParser struct {
	forms     FormResolver
	curveStep float64

	graphicsState *GraphicsState
	stateStack    []*GraphicsState

	currentPath []subpath
	current     Point
	hasCurrent  bool

	edges []Edge
	depth int
}

// GraphicsState holds the parts of the PDF graphics state that affect geometry
type GraphicsState struct {
	CTM       Matrix
	LineWidth float64
}

type subpath struct {
	points []Point
	closed bool
	source EdgeSource
}

// NewContentStreamParser creates a parser. forms may be nil, in which case
// Do operators are ignored.
func NewContentStreamParser(forms FormResolver, curveStep float64) *ContentStreamParser {
	if curveStep <= 0 {
		curveStep = DefaultCurveStep
	}
	return &ContentStreamParser{
		forms:     forms,
		curveStep: curveStep,
		graphicsState: &GraphicsState{
			CTM:       IdentityMatrix(),
			LineWidth: 1.0,
		},
	}
}

// Parse walks content with the given resources and returns the painted edges.
func (p *ContentStreamParser) Parse(content []byte, resources any) []Edge {
	p.run(content, resources)
	return p.edges
}

func (p *ContentStreamParser) run(content []byte, resources any) {
	var operands []string
	for _, token := range tokenize(content) {
		if !isOperator(token) {
			operands = append(operands, token)
			continue
		}
		p.processOperator(token, operands, resources)
		operands = operands[:0]
	}
}

func (p *ContentStreamParser) processOperator(operator string, operands []string, resources any) {
	switch operator {
	case "q":
		p.saveGraphicsState()
	case "Q":
		p.restoreGraphicsState()
	case "cm":
		p.concatenateMatrix(operands)
	case "w":
		if len(operands) > 0 {
			p.graphicsState.LineWidth = parseFloat(operands[len(operands)-1])
		}

	case "m":
		p.moveTo(operands)
	case "l":
		p.lineTo(operands)
	case "c":
		p.curveTo(operands, 6)
	case "v":
		p.curveTo(operands, 4)
	case "y":
		p.curveTo(operands, -4)
	case "h":
		p.closePath()
	case "re":
		p.rectangle(operands)

	case "S":
		p.paint(false)
	case "s":
		p.closePath()
		p.paint(false)
	case "f", "F", "f*", "B", "B*":
		p.paint(true)
	case "b", "b*":
		p.closePath()
		p.paint(true)
	case "n":
		p.endPath()

	case "Do":
		if len(operands) > 0 {
			p.invokeXObject(operands[len(operands)-1], resources)
		}
	}
}

func (p *ContentStreamParser) saveGraphicsState() {
	stateCopy := *p.graphicsState
	p.stateStack = append(p.stateStack, &stateCopy)
}

func (p *ContentStreamParser) restoreGraphicsState() {
	if len(p.stateStack) > 0 {
		p.graphicsState = p.stateStack[len(p.stateStack)-1]
		p.stateStack = p.stateStack[:len(p.stateStack)-1]
	}
}

func (p *ContentStreamParser) concatenateMatrix(operands []string) {
	v, ok := lastFloats(operands, 6)
	if !ok {
		return
	}
	m := Matrix{A: v[0], B: v[1], C: v[2], D: v[3], E: v[4], F: v[5]}
	p.graphicsState.CTM = MultiplyMatrix(m, p.graphicsState.CTM)
}

// Path construction. Points are stored already transformed by the CTM.

func (p *ContentStreamParser) transformPoint(x, y float64) Point {
	return p.graphicsState.CTM.Apply(x, y)
}

func (p *ContentStreamParser) moveTo(operands []string) {
	v, ok := lastFloats(operands, 2)
	if !ok {
		return
	}
	pt := p.transformPoint(v[0], v[1])
	p.currentPath = append(p.currentPath, subpath{points: []Point{pt}, source: EdgeSourceLine})
	p.current, p.hasCurrent = pt, true
}

func (p *ContentStreamParser) lineTo(operands []string) {
	v, ok := lastFloats(operands, 2)
	if !ok || !p.hasCurrent {
		return
	}
	pt := p.transformPoint(v[0], v[1])
	sp := p.openSubpath()
	sp.points = append(sp.points, pt)
	p.current = pt
}

// curveTo handles c (n=6), v (n=4, first control point is the current point)
// and y (n=-4, second control point is the end point).
func (p *ContentStreamParser) curveTo(operands []string, n int) {
	count := n
	if count < 0 {
		count = -count
	}
	v, ok := lastFloats(operands, count)
	if !ok || !p.hasCurrent {
		return
	}
	var c1, c2, end Point
	switch n {
	case 6:
		c1 = p.transformPoint(v[0], v[1])
		c2 = p.transformPoint(v[2], v[3])
		end = p.transformPoint(v[4], v[5])
	case 4:
		c1 = p.current
		c2 = p.transformPoint(v[0], v[1])
		end = p.transformPoint(v[2], v[3])
	default:
		c1 = p.transformPoint(v[0], v[1])
		end = p.transformPoint(v[2], v[3])
		c2 = end
	}
	sp := p.openSubpath()
	sp.points = append(sp.points, flattenBezier(p.current, c1, c2, end, p.curveStep)...)
	sp.source = EdgeSourceCurve
	p.current = end
}

// openSubpath returns the subpath being built, starting a new one at the
// current point after a close.
func (p *ContentStreamParser) openSubpath() *subpath {
	if n := len(p.currentPath); n > 0 && !p.currentPath[n-1].closed {
		return &p.currentPath[n-1]
	}
	p.currentPath = append(p.currentPath, subpath{points: []Point{p.current}, source: EdgeSourceLine})
	return &p.currentPath[len(p.currentPath)-1]
}

func (p *ContentStreamParser) closePath() {
	n := len(p.currentPath)
	if n == 0 || p.currentPath[n-1].closed {
		return
	}
	sp := &p.currentPath[n-1]
	sp.closed = true
	p.current = sp.points[0]
}

func (p *ContentStreamParser) rectangle(operands []string) {
	v, ok := lastFloats(operands, 4)
	if !ok {
		return
	}
	x, y, w, h := v[0], v[1], v[2], v[3]
	pts := []Point{
		p.transformPoint(x, y),
		p.transformPoint(x+w, y),
		p.transformPoint(x+w, y+h),
		p.transformPoint(x, y+h),
	}
	p.currentPath = append(p.currentPath, subpath{points: pts, closed: true, source: EdgeSourceRect})
	p.current, p.hasCurrent = pts[0], true
}

// Path painting

// paint turns the current path into edges. Filled subpaths are implicitly
// closed.
func (p *ContentStreamParser) paint(fill bool) {
	for _, sp := range p.currentPath {
		pts := sp.points
		if len(pts) < 2 {
			continue
		}
		source := sp.source
		if source == EdgeSourceLine && len(pts) > 2 {
			source = EdgeSourceCurve
		}
		for i := 1; i < len(pts); i++ {
			p.addEdge(pts[i-1], pts[i], source)
		}
		if (sp.closed || fill) && len(pts) > 2 {
			p.addEdge(pts[len(pts)-1], pts[0], source)
		}
	}
	p.endPath()
}

func (p *ContentStreamParser) addEdge(a, b Point, source EdgeSource) {
	if a == b {
		return
	}
	p.edges = append(p.edges, Edge{
		X0: a.X, Y0: a.Y, X1: b.X, Y1: b.Y,
		Width:  p.graphicsState.LineWidth,
		Source: source,
	})
}

func (p *ContentStreamParser) endPath() {
	p.currentPath = nil
	p.hasCurrent = false
}

func (p *ContentStreamParser) invokeXObject(name string, resources any) {
	if p.forms == nil || p.depth >= maxFormDepth || len(name) < 2 || name[0] != '/' {
		return
	}
	content, matrix, formRes, ok := p.forms.Form(resources, name[1:])
	if !ok {
		return
	}
	if formRes == nil {
		formRes = resources
	}

	p.saveGraphicsState()
	p.graphicsState.CTM = MultiplyMatrix(matrix, p.graphicsState.CTM)
	saved := p.currentPath
	p.currentPath = nil
	p.depth++
	p.run(content, formRes)
	p.depth--
	p.currentPath = saved
	p.restoreGraphicsState()
}

// flattenBezier returns points along the cubic curve p0..p3, excluding p0.
func flattenBezier(p0, p1, p2, p3 Point, step float64) []Point {
	hull := math.Hypot(p1.X-p0.X, p1.Y-p0.Y) +
		math.Hypot(p2.X-p1.X, p2.Y-p1.Y) +
		math.Hypot(p3.X-p2.X, p3.Y-p2.Y)
	n := int(hull / step)
	if n < 1 {
		n = 1
	}
	if n > 32 {
		n = 32
	}
	pts := make([]Point, 0, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		u := 1 - t
		a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
		pts = append(pts, Point{
			X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
			Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
		})
	}
	return pts
}

// Tokenizer

// tokenize splits a content stream into operand and operator tokens. Inline
// image data between ID and EI is dropped.
func tokenize(content []byte) []string {
	var tokens []string
	reader := bytes.NewReader(content)

	for reader.Len() > 0 {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		if isWhitespace(b) {
			continue
		}

		switch b {
		case '(':
			tokens = append(tokens, "("+readStringLiteral(reader)+")")
		case '<':
			next, _ := reader.ReadByte()
			if next == '<' {
				tokens = append(tokens, "<<")
			} else {
				_ = reader.UnreadByte()
				tokens = append(tokens, "<"+readUntil(reader, '>')+">")
			}
		case '>':
			next, _ := reader.ReadByte()
			if next == '>' {
				tokens = append(tokens, ">>")
			} else {
				_ = reader.UnreadByte()
			}
		case '[', ']', '{', '}':
			tokens = append(tokens, string(b))
		case '/':
			tokens = append(tokens, "/"+readToken(reader))
		case '%':
			skipComment(reader)
		default:
			_ = reader.UnreadByte()
			token := readToken(reader)
			if token == "" {
				// Stray delimiter such as ')'.
				_, _ = reader.ReadByte()
				continue
			}
			tokens = append(tokens, token)
			if token == "ID" {
				skipInlineImage(reader)
				tokens = append(tokens, "EI")
			}
		}
	}
	return tokens
}

func readStringLiteral(reader *bytes.Reader) string {
	var result []byte
	depth := 1
	for reader.Len() > 0 {
		b, _ := reader.ReadByte()
		switch b {
		case '\\':
			next, _ := reader.ReadByte()
			result = append(result, '\\', next)
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return string(result)
			}
		}
		result = append(result, b)
	}
	return string(result)
}

func readUntil(reader *bytes.Reader, end byte) string {
	var result []byte
	for reader.Len() > 0 {
		b, _ := reader.ReadByte()
		if b == end {
			break
		}
		if !isWhitespace(b) {
			result = append(result, b)
		}
	}
	return string(result)
}

func readToken(reader *bytes.Reader) string {
	var result []byte
	for reader.Len() > 0 {
		b, _ := reader.ReadByte()
		if isDelimiter(b) || isWhitespace(b) {
			_ = reader.UnreadByte()
			break
		}
		result = append(result, b)
	}
	return string(result)
}

func skipComment(reader *bytes.Reader) {
	for reader.Len() > 0 {
		b, _ := reader.ReadByte()
		if b == '\n' || b == '\r' {
			break
		}
	}
}

// skipInlineImage consumes binary data up to and including the EI operator.
func skipInlineImage(reader *bytes.Reader) {
	prev := byte(' ')
	for reader.Len() > 0 {
		b, _ := reader.ReadByte()
		if b == 'E' && isWhitespace(prev) {
			next, err := reader.ReadByte()
			if err != nil {
				return
			}
			if next == 'I' {
				after, err := reader.ReadByte()
				if err != nil || isWhitespace(after) || isDelimiter(after) {
					if err == nil {
						_ = reader.UnreadByte()
					}
					return
				}
			}
			_ = reader.UnreadByte()
		}
		prev = b
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' || b == '[' || b == ']' ||
		b == '{' || b == '}' || b == '/' || b == '%'
}

var operators = map[string]struct{}{}

func init() {
	for _, op := range []string{
		// Text
		"BT", "ET", "Td", "TD", "Tm", "T*", "Tj", "TJ", "'", "\"",
		"Tc", "Tw", "Tz", "TL", "Tf", "Tr", "Ts", "d0", "d1",
		// Graphics state
		"q", "Q", "cm", "w", "J", "j", "M", "d", "ri", "i", "gs",
		// Path construction
		"m", "l", "c", "v", "y", "h", "re",
		// Path painting
		"S", "s", "f", "F", "f*", "B", "B*", "b", "b*", "n",
		// Colour
		"CS", "cs", "SC", "SCN", "sc", "scn", "G", "g", "RG", "rg", "K", "k",
		// Other
		"W", "W*", "BX", "EX", "Do", "sh", "MP", "DP", "BMC", "BDC", "EMC", "BI", "ID", "EI",
	} {
		operators[op] = struct{}{}
	}
}

func isOperator(token string) bool {
	_, ok := operators[token]
	return ok
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// lastFloats parses the last n operands as numbers.
func lastFloats(operands []string, n int) ([]float64, bool) {
	if len(operands) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i, s := range operands[len(operands)-n:] {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
