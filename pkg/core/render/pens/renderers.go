package pens

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/render"
	"github.com/matzehuels/rmrender/pkg/core/render/annot"
)

// Generic strokes the whole path at the stroke's mean sample width.
type Generic struct{}

func (Generic) Paint(s render.Surface, _ *render.Layer, c colorful.Color, st ink.Stroke) {
	s.StrokePolyline(points(st), render.LineStyle{
		Color: c, Alpha: 1, Width: meanWidth(st), Cap: render.CapRound,
	})
}

// Fineliner draws a constant-width line.
type Fineliner struct{}

func (Fineliner) Paint(s render.Surface, _ *render.Layer, c colorful.Color, st ink.Stroke) {
	s.StrokePolyline(points(st), render.LineStyle{
		Color: c, Alpha: 1, Width: meanWidth(st) * 0.9, Cap: render.CapRound,
	})
}

// Ballpoint varies width with pressure.
type Ballpoint struct{}

func (Ballpoint) Paint(s render.Surface, _ *render.Layer, c colorful.Color, st ink.Stroke) {
	paintSegments(s, st, func(seg ink.Segment) render.LineStyle {
		return render.LineStyle{
			Color: c, Alpha: 1, Cap: render.CapRound,
			Width: sampleWidth(st, seg) * (0.5 + 0.5*clamp01(seg.Pressure)),
		}
	})
}

// Marker is a wide, slightly translucent line.
type Marker struct{}

func (Marker) Paint(s render.Surface, _ *render.Layer, c colorful.Color, st ink.Stroke) {
	paintSegments(s, st, func(seg ink.Segment) render.LineStyle {
		return render.LineStyle{
			Color: c, Alpha: 0.9, Cap: render.CapRound,
			Width: sampleWidth(st, seg) * 1.1,
		}
	})
}

// Pencil varies opacity with pressure.
type Pencil struct{}

func (Pencil) Paint(s render.Surface, _ *render.Layer, c colorful.Color, st ink.Stroke) {
	paintSegments(s, st, func(seg ink.Segment) render.LineStyle {
		return render.LineStyle{
			Color: c, Cap: render.CapRound,
			Alpha: 0.1 + 0.9*clamp01(seg.Pressure),
			Width: sampleWidth(st, seg) * 0.7,
		}
	})
}

// MechanicalPencil is a thinner, lighter pencil.
type MechanicalPencil struct{}

func (MechanicalPencil) Paint(s render.Surface, _ *render.Layer, c colorful.Color, st ink.Stroke) {
	paintSegments(s, st, func(seg ink.Segment) render.LineStyle {
		return render.LineStyle{
			Color: c, Cap: render.CapRound,
			Alpha: 0.1 + 0.7*clamp01(seg.Pressure),
			Width: sampleWidth(st, seg) * 0.6,
		}
	})
}

// Brush widens with pressure and thins with speed.
type Brush struct{}

func (Brush) Paint(s render.Surface, _ *render.Layer, c colorful.Color, st ink.Stroke) {
	paintSegments(s, st, func(seg ink.Segment) render.LineStyle {
		w := sampleWidth(st, seg) * (0.4 + clamp01(seg.Pressure)) / (1 + seg.Speed/80)
		return render.LineStyle{Color: c, Alpha: 1, Cap: render.CapRound, Width: w}
	})
}

// Calligraphy widens across a 45° nib.
type Calligraphy struct{}

func (Calligraphy) Paint(s render.Surface, _ *render.Layer, c colorful.Color, st ink.Stroke) {
	paintSegments(s, st, func(seg ink.Segment) render.LineStyle {
		nib := math.Abs(math.Sin(seg.Direction - math.Pi/4))
		return render.LineStyle{
			Color: c, Alpha: 1, Cap: render.CapRound,
			Width: sampleWidth(st, seg) * (0.3 + 0.7*nib),
		}
	})
}

// Highlighter paints a translucent square-capped band and records a
// highlight annotation covering it.
type Highlighter struct{}

func (Highlighter) Highlights() bool { return true }

func (Highlighter) Paint(s render.Surface, l *render.Layer, c colorful.Color, st ink.Stroke) {
	w := meanWidth(st)
	s.StrokePolyline(points(st), render.LineStyle{
		Color: c, Alpha: 0.4, Width: w, Cap: render.CapSquare,
	})
	if l == nil || l.Shapes == nil {
		return
	}
	minX, minY, maxX, maxY := st.Bounds()
	l.Shapes.Add(annot.Shape{
		Kind:  annot.KindHighlight,
		Color: c.Hex(),
		Rect:  annot.RectFromBounds(minX-w/2, minY-w/2, maxX+w/2, maxY+w/2),
	})
}

// Eraser draws nothing; erasing is already applied to the stored strokes.
type Eraser struct{}

func (Eraser) Paint(render.Surface, *render.Layer, colorful.Color, ink.Stroke) {}

func points(st ink.Stroke) []render.Point {
	segs := st.Segments()
	pts := make([]render.Point, len(segs))
	for i, seg := range segs {
		pts[i] = render.Point{X: seg.X, Y: seg.Y}
	}
	return pts
}

// sampleWidth is the drawn width of one sample. The stroke's width scale
// stands in when the sample carries none.
func sampleWidth(st ink.Stroke, seg ink.Segment) float64 {
	if seg.Width > 0 {
		return seg.Width
	}
	if st.WidthScale > 0 {
		return st.WidthScale
	}
	return 1
}

func meanWidth(st ink.Stroke) float64 {
	segs := st.Segments()
	if len(segs) == 0 {
		return 1
	}
	var sum float64
	for _, seg := range segs {
		sum += sampleWidth(st, seg)
	}
	return sum / float64(len(segs))
}

// paintSegments strokes each consecutive sample pair with its own style,
// taken from the pair's end sample. A single-sample stroke is a dot.
func paintSegments(s render.Surface, st ink.Stroke, style func(ink.Segment) render.LineStyle) {
	segs := st.Segments()
	if len(segs) == 1 {
		p := render.Point{X: segs[0].X, Y: segs[0].Y}
		s.StrokePolyline([]render.Point{p, p}, style(segs[0]))
		return
	}
	for i := 1; i < len(segs); i++ {
		a, b := segs[i-1], segs[i]
		s.StrokePolyline([]render.Point{{X: a.X, Y: a.Y}, {X: b.X, Y: b.Y}}, style(b))
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
