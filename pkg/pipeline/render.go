package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/load"
	"github.com/matzehuels/rmrender/pkg/core/render"
	"github.com/matzehuels/rmrender/pkg/core/render/pens"
	"github.com/matzehuels/rmrender/pkg/core/render/sink"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// Rendered holds the outputs of one rendered page.
type Rendered struct {
	Artifacts   map[string][]byte
	Annotations sink.AnnotationPage
	Strokes     int
}

// Render draws a decoded page and converts it into the requested formats.
// title labels the SVG document.
func Render(ctx context.Context, title string, page *ink.Page, opts Options) (*Rendered, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return renderWith(ctx, title, page, resolveTemplate(page.Template, opts), opts)
}

// renderWith is Render with the template already resolved.
func renderWith(ctx context.Context, title string, page *ink.Page, tmpl *load.Template, opts Options) (*Rendered, error) {
	svg := sink.NewSVG(sink.WithTitle(title))
	res, err := render.RenderPage(ctx, svg, page, tmpl,
		pens.NewDispatcher(opts.Logger), render.Options{TemplateAlpha: opts.Alpha()})
	if err != nil {
		return nil, err
	}

	out := &Rendered{
		Artifacts:   make(map[string][]byte, len(opts.Formats)),
		Annotations: sink.NewAnnotationPage(page.Number, page.ID, res.Annotations),
		Strokes:     res.Strokes,
	}
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = svg.Bytes()
		case FormatPDF:
			data, err = render.ToPDF(ctx, svg.Bytes())
		case FormatPNG:
			data, err = render.ToPNG(ctx, svg.Bytes(), opts.DPI)
		case FormatJSON:
			data, err = sink.RenderAnnotationsJSON([]sink.AnnotationPage{out.Annotations})
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		out.Artifacts[format] = data
	}
	return out, nil
}

// resolveTemplate looks up the page's template. A missing template is not an
// error; the page renders without a background.
func resolveTemplate(name string, opts Options) *load.Template {
	if opts.Alpha() == 0 || name == "" || name == load.BlankTemplate {
		return nil
	}
	tmpl := load.TemplateResolver{Dir: opts.TemplateDir}.Resolve(name)
	if tmpl == nil {
		opts.Logger.Debug("template not found, rendering without background",
			"template", name, "dir", opts.TemplateDir, "code", rmerrors.ErrCodeTemplateUnresolved)
	}
	return tmpl
}
