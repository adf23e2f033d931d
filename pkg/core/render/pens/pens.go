// Package pens draws strokes with per-tool appearance.
//
// Every documented pen code maps to a [Renderer]; codes that share a tool
// (first- and second-generation variants) share a renderer. Unknown codes fall
// back to [Generic] and are logged once per stroke. The mapping is total: the
// [Dispatcher] always finds a renderer.
//
// Colour resolution depends on the renderer's category. Highlighters index
// [HighlightColors], where some codes have no colour and the stroke is not
// painted. All other pens index [StandardColors]. A code outside either table
// is a FORMAT_MISMATCH error.
package pens

import (
	"io"

	"github.com/charmbracelet/log"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/render"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// Renderer draws one stroke in a resolved colour.
type Renderer interface {
	Paint(s render.Surface, l *render.Layer, c colorful.Color, st ink.Stroke)
}

// Highlighting is implemented by renderers that use the highlight colour
// table.
type Highlighting interface {
	Highlights() bool
}

func isHighlighter(r Renderer) bool {
	h, ok := r.(Highlighting)
	return ok && h.Highlights()
}

// Registry maps pen codes to renderers.
type Registry map[ink.PenKind]Renderer

// DefaultRegistry returns the standard pen mapping.
func DefaultRegistry() Registry {
	return Registry{
		ink.PenBrush1:            Brush{},
		ink.PenBrush2:            Brush{},
		ink.PenPencil1:           Pencil{},
		ink.PenPencil2:           Pencil{},
		ink.PenBallpoint1:        Ballpoint{},
		ink.PenBallpoint2:        Ballpoint{},
		ink.PenMarker1:           Marker{},
		ink.PenMarker2:           Marker{},
		ink.PenFineliner1:        Fineliner{},
		ink.PenFineliner2:        Fineliner{},
		ink.PenHighlighter1:      Highlighter{},
		ink.PenHighlighter2:      Highlighter{},
		ink.PenEraser:            Eraser{},
		ink.PenEraseArea:         Eraser{},
		ink.PenMechanicalPencil1: MechanicalPencil{},
		ink.PenMechanicalPencil2: MechanicalPencil{},
		ink.PenCalligraphy:       Calligraphy{},
	}
}

// Dispatcher resolves a renderer and colour for each stroke and paints it.
// It implements [render.StrokePainter].
type Dispatcher struct {
	Registry Registry
	Fallback Renderer
	Logger   *log.Logger
}

// NewDispatcher returns a dispatcher over the default registry. A nil logger
// discards warnings.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Dispatcher{Registry: DefaultRegistry(), Fallback: Generic{}, Logger: logger}
}

// Resolve returns the renderer for pen and whether the code was known.
func (d *Dispatcher) Resolve(pen ink.PenKind) (Renderer, bool) {
	if r, ok := d.Registry[pen]; ok && r != nil {
		return r, true
	}
	if d.Fallback != nil {
		return d.Fallback, false
	}
	return Generic{}, false
}

// PaintStroke implements [render.StrokePainter].
func (d *Dispatcher) PaintStroke(s render.Surface, l *render.Layer, st ink.Stroke) error {
	r, known := d.Resolve(st.Pen)
	if !known {
		d.Logger.Warn("unknown pen, drawing with generic pen",
			"pen", int(st.Pen), "layer", l.Name, "code", rmerrors.ErrCodeUnknownPenKind)
	}
	c, ok, err := resolveColor(isHighlighter(r), st.Color)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	r.Paint(s, l, c, st)
	return nil
}

var _ render.StrokePainter = (*Dispatcher)(nil)
