package render

import (
	"context"
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/load"
	"github.com/matzehuels/rmrender/pkg/core/render/annot"
)

// Layer is the drawing context of one layer. Pens record annotation shapes
// into it.
type Layer struct {
	Name   string
	Shapes *annot.Collector
}

// StrokePainter draws one stroke of a layer.
type StrokePainter interface {
	PaintStroke(s Surface, l *Layer, st ink.Stroke) error
}

// Options control page rendering.
type Options struct {
	// TemplateAlpha is the template's opacity; 0 skips the template.
	TemplateAlpha float64
}

// Result is what rendering a page produces besides the drawing itself.
type Result struct {
	Annotations []annot.LayerGroups
	Strokes     int
}

var white = colorful.Color{R: 1, G: 1, B: 1}

// RenderPage draws page onto s. tmpl may be nil. The returned annotation
// groups are clustered per layer, in layer order.
//
// A stroke that fails to paint aborts the page; the surface is left
// unfinished.
func RenderPage(ctx context.Context, s Surface, page *ink.Page, tmpl *load.Template, painter StrokePainter, opts Options) (*Result, error) {
	// Template
	if tmpl != nil && opts.TemplateAlpha > 0 {
		w := tmpl.Width
		if w <= 0 {
			w = ink.DeviceWidth
		}
		if err := s.DrawBackground(tmpl, PageWidth/w); err != nil {
			return nil, fmt.Errorf("draw template %q: %w", tmpl.Name, err)
		}
		if opts.TemplateAlpha < 1 {
			s.SaveState()
			s.SetFill(white, 1-opts.TemplateAlpha)
			s.FillRect(0, 0, PageWidth, PageHeight)
			s.RestoreState()
		}
	}

	// Frame
	s.Translate(0, PageHeight)
	s.Scale(PointsPerPixel, -PointsPerPixel)

	// Layers
	res := &Result{Annotations: make([]annot.LayerGroups, 0, len(page.Layers))}
	for _, l := range page.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		layer := &Layer{Name: l.Name, Shapes: &annot.Collector{}}
		for i, st := range l.Strokes {
			if err := painter.PaintStroke(s, layer, st); err != nil {
				return nil, fmt.Errorf("layer %q stroke %d: %w", l.Name, i+1, err)
			}
			res.Strokes++
		}
		res.Annotations = append(res.Annotations, annot.LayerGroups{
			Layer:  l.Name,
			Groups: annot.Cluster(layer.Shapes.Shapes()),
		})
	}

	// Finish
	if err := s.FinishPage(); err != nil {
		return nil, err
	}
	return res, nil
}
