package render

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/rmrender/pkg/core/load"
)

// Page geometry in output points.
const (
	PointsPerPixel = 72.0 / 226.0
	PageWidth      = 1404 * PointsPerPixel
	PageHeight     = 1872 * PointsPerPixel
)

// LineCap selects the end style of stroked lines.
type LineCap int

const (
	CapRound LineCap = iota
	CapSquare
	CapButt
)

// LineStyle describes how a line is stroked.
type LineStyle struct {
	Color colorful.Color
	Alpha float64 // 0 transparent, 1 opaque
	Width float64 // in current user units
	Cap   LineCap
}

// Point is a position in current user units.
type Point struct{ X, Y float64 }

// Surface is a page-at-a-time drawing target. Calls are order-sensitive and
// apply to the current page. A Surface is not safe for concurrent use; each
// page rendered in parallel needs its own.
type Surface interface {
	// DrawBackground draws a template at the origin, scaled uniformly.
	DrawBackground(t *load.Template, scale float64) error

	SaveState()
	RestoreState()

	SetFill(c colorful.Color, alpha float64)
	FillRect(x, y, w, h float64)

	Translate(dx, dy float64)
	Scale(sx, sy float64)

	// StrokePolyline strokes a connected path through pts.
	StrokePolyline(pts []Point, style LineStyle)

	// FinishPage seals the page. No drawing call is valid afterwards.
	FinishPage() error
}
