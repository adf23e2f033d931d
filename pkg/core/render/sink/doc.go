// Package sink provides output formats for rendered pages.
//
// # Overview
//
// A "sink" is where a page's drawing calls end up. This package provides:
//
//   - SVG: a [render.Surface] that writes one standalone SVG document per page
//   - Annotations: JSON export of the clustered annotation groups
//
// PDF and PNG output are produced from the SVG with [render.ToPDF] and
// [render.ToPNG].
//
// # SVG Output
//
// [NewSVG] returns a surface sized to the page in points. Drawing calls use
// PDF conventions (origin bottom-left, y up); the surface flips them into SVG
// space, so a page renders the right way up without the caller knowing about
// the output's coordinate system:
//
//	svg := sink.NewSVG(sink.WithTitle("Notebook p.3"))
//	res, err := render.RenderPage(ctx, svg, page, tmpl, pens.NewDispatcher(logger), opts)
//	data := svg.Bytes()
//
// Templates are embedded as base64 data URIs, so the output has no external
// references.
//
// # Annotation Output
//
// [NewAnnotationPage] converts a page's [annot.LayerGroups] from page pixels
// to points with the y-axis pointing up, the convention PDF annotation tools
// expect. [RenderAnnotationsJSON] writes a list of pages:
//
//	[{"page": 0, "layers": [{"name": "Layer 1", "groups": [
//	    {"kind": "highlight", "rect": [x1, y1, x2, y2], "color": "#f8f124"}
//	]}]}]
//
// [render.Surface]: github.com/matzehuels/rmrender/pkg/core/render.Surface
// [render.ToPDF]: github.com/matzehuels/rmrender/pkg/core/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/rmrender/pkg/core/render.ToPNG
// [annot.LayerGroups]: github.com/matzehuels/rmrender/pkg/core/render/annot.LayerGroups
package sink
