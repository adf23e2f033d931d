package sink

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
	"seehuhn.de/go/geom/matrix"

	"github.com/matzehuels/rmrender/pkg/core/load"
	"github.com/matzehuels/rmrender/pkg/core/render"
)

// ErrFinished is returned when a finished page is finished again.
var ErrFinished = errors.New("page already finished")

// SVGOption configures an [SVG] surface.
type SVGOption func(*SVG)

// WithTitle sets the document's <title>.
func WithTitle(title string) SVGOption { return func(s *SVG) { s.title = title } }

// WithPrecision sets the number of decimals written for coordinates.
func WithPrecision(n int) SVGOption {
	return func(s *SVG) {
		if n >= 0 {
			s.precision = n
		}
	}
}

type svgState struct {
	ctm       matrix.Matrix
	fill      colorful.Color
	fillAlpha float64
}

// SVG is a [render.Surface] producing a single-page SVG document.
type SVG struct {
	buf       bytes.Buffer
	state     svgState
	stack     []svgState
	title     string
	precision int
	finished  bool
}

// flip maps the y-up page space onto SVG's y-down space.
var flip = matrix.Matrix{1, 0, 0, -1, 0, render.PageHeight}

// NewSVG starts a page document.
func NewSVG(opts ...SVGOption) *SVG {
	s := &SVG{
		state:     svgState{ctm: flip, fillAlpha: 1},
		precision: 3,
	}
	for _, opt := range opts {
		opt(s)
	}

	w, h := s.num(render.PageWidth), s.num(render.PageHeight)
	fmt.Fprintf(&s.buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%spt" height="%spt" viewBox="0 0 %s %s">`+"\n",
		w, h, w, h)
	if s.title != "" {
		fmt.Fprintf(&s.buf, "  <title>%s</title>\n", html.EscapeString(s.title))
	}
	return s
}

// Bytes returns the finished document, or nil before [SVG.FinishPage].
func (s *SVG) Bytes() []byte {
	if !s.finished {
		return nil
	}
	return s.buf.Bytes()
}

// DrawBackground embeds the template with its top-left corner at the page's
// top-left corner.
func (s *SVG) DrawBackground(t *load.Template, scale float64) error {
	if s.finished {
		return ErrFinished
	}
	if t == nil || len(t.Data) == 0 {
		return fmt.Errorf("template has no image data")
	}
	w, h := t.Width*scale, t.Height*scale
	x0, y0, x1, y1 := s.bounds(0, render.PageHeight-h, w, h)
	fmt.Fprintf(&s.buf, `  <image x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none" xlink:href="data:image/svg+xml;base64,%s"/>`+"\n",
		s.num(x0), s.num(y0), s.num(x1-x0), s.num(y1-y0), base64.StdEncoding.EncodeToString(t.Data))
	return nil
}

func (s *SVG) SaveState() {
	s.stack = append(s.stack, s.state)
}

// RestoreState pops the last saved state. Unbalanced calls are ignored.
func (s *SVG) RestoreState() {
	if n := len(s.stack); n > 0 {
		s.state = s.stack[n-1]
		s.stack = s.stack[:n-1]
	}
}

func (s *SVG) SetFill(c colorful.Color, alpha float64) {
	s.state.fill = c
	s.state.fillAlpha = alpha
}

// FillRect fills a rectangle in user units with the current fill.
func (s *SVG) FillRect(x, y, w, h float64) {
	if s.finished {
		return
	}
	x0, y0, x1, y1 := s.bounds(x, y, w, h)
	fmt.Fprintf(&s.buf, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"%s/>`+"\n",
		s.num(x0), s.num(y0), s.num(x1-x0), s.num(y1-y0), s.state.fill.Hex(), s.opacity("fill-opacity", s.state.fillAlpha))
}

func (s *SVG) Translate(dx, dy float64) {
	s.state.ctm = matrix.Translate(dx, dy).Mul(s.state.ctm)
}

func (s *SVG) Scale(sx, sy float64) {
	s.state.ctm = matrix.Scale(sx, sy).Mul(s.state.ctm)
}

// StrokePolyline writes pts as one path. A single point is drawn as a dot.
func (s *SVG) StrokePolyline(pts []render.Point, style render.LineStyle) {
	if s.finished || len(pts) == 0 {
		return
	}
	if len(pts) == 1 {
		pts = []render.Point{pts[0], pts[0]}
	}

	var d bytes.Buffer
	for i, p := range pts {
		x, y := s.apply(p.X, p.Y)
		if i == 0 {
			d.WriteString("M")
		} else {
			d.WriteString(" L")
		}
		d.WriteString(s.num(x))
		d.WriteByte(' ')
		d.WriteString(s.num(y))
	}

	fmt.Fprintf(&s.buf, `  <path d="%s" fill="none" stroke="%s" stroke-width="%s" stroke-linecap="%s" stroke-linejoin="round"%s/>`+"\n",
		d.String(), style.Color.Hex(), s.num(style.Width*s.lineScale()), capName(style.Cap), s.opacity("stroke-opacity", style.Alpha))
}

// FinishPage closes the document.
func (s *SVG) FinishPage() error {
	if s.finished {
		return ErrFinished
	}
	s.buf.WriteString("</svg>\n")
	s.finished = true
	return nil
}

func (s *SVG) apply(x, y float64) (float64, float64) {
	m := s.state.ctm
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// bounds transforms a user-space rectangle and returns its output extent.
// The surface has no rotation, so the result is exact.
func (s *SVG) bounds(x, y, w, h float64) (x0, y0, x1, y1 float64) {
	ax, ay := s.apply(x, y)
	bx, by := s.apply(x+w, y+h)
	return min(ax, bx), min(ay, by), max(ax, bx), max(ay, by)
}

// lineScale is the factor by which the current transform scales lengths.
func (s *SVG) lineScale() float64 {
	m := s.state.ctm
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

func (s *SVG) opacity(attr string, alpha float64) string {
	if alpha >= 1 {
		return ""
	}
	return fmt.Sprintf(` %s="%s"`, attr, trimZeros(strconv.FormatFloat(math.Max(alpha, 0), 'f', 3, 64)))
}

func (s *SVG) num(v float64) string {
	if v == 0 || math.Abs(v) < math.Pow10(-s.precision)/2 {
		return "0"
	}
	out := strconv.FormatFloat(v, 'f', s.precision, 64)
	if s.precision > 0 {
		out = trimZeros(out)
	}
	return out
}

func trimZeros(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}

func capName(c render.LineCap) string {
	switch c {
	case render.CapSquare:
		return "square"
	case render.CapButt:
		return "butt"
	default:
		return "round"
	}
}

var _ render.Surface = (*SVG)(nil)
