// Package render draws loaded pages onto a drawing surface.
//
// # Overview
//
// [RenderPage] runs four phases in a fixed order:
//
//  1. Template: draw the page's background template at page width. When the
//     template alpha is below one, a white page-sized rectangle at
//     1 − alpha coverage fades it.
//  2. Frame: translate by the page height and scale by
//     ([PointsPerPixel], −[PointsPerPixel]) so that device pixels with a
//     downward y axis map onto output points with an upward y axis.
//  3. Layers: every layer in order, every stroke in order, through a
//     [StrokePainter].
//  4. Finish: seal the page on the surface.
//
// The template is drawn before the frame is set up because it lives in raw
// output coordinates while strokes live in device pixels.
//
// # Surfaces
//
// [Surface] is the drawing backend. The SVG implementation lives in
// [sink]; PDF and PNG are produced from the SVG with [ToPDF] and [ToPNG],
// which require rsvg-convert (librsvg):
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// # Pens
//
// Stroke drawing is delegated to a [StrokePainter]. The pen dispatcher in
// [pens] is the standard implementation; it is injected rather than imported
// so that pens can depend on this package's [Surface].
//
// [sink]: github.com/matzehuels/rmrender/pkg/core/render/sink
// [pens]: github.com/matzehuels/rmrender/pkg/core/render/pens
package render
