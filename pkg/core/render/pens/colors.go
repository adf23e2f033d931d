package pens

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

func rgb255(r, g, b float64) colorful.Color {
	return colorful.Color{R: r / 255, G: g / 255, B: b / 255}
}

// StandardColors maps colour codes of ordinary pens to rendered colours.
var StandardColors = [8]colorful.Color{
	rgb255(56, 57, 56),       // black, rendered very dark grey
	{R: 0.5, G: 0.5, B: 0.5}, // grey
	{R: 1, G: 1, B: 1},       // white
	{R: 1, G: 1, B: 0},       // yellow
	{R: 0, G: 1, B: 0},       // green
	{R: 1, G: 0, B: 1},       // pink
	rgb255(52, 120, 247),     // blue
	rgb255(228, 95, 89),      // red
}

// HighlightColors maps colour codes of highlighters. Codes 0 and 2 have no
// highlight colour and are not painted.
var HighlightColors = [6]*colorful.Color{
	nil,
	ptr(rgb255(248, 241, 36)), // yellow
	nil,
	ptr(rgb255(248, 241, 36)), // yellow
	ptr(rgb255(183, 248, 73)), // green
	ptr(rgb255(248, 79, 145)), // pink
}

func ptr(c colorful.Color) *colorful.Color { return &c }

// resolveColor picks the colour table for a renderer category. ok is false
// when the code maps to the no-colour sentinel.
func resolveColor(highlighter bool, code ink.ColorCode) (c colorful.Color, ok bool, err error) {
	if highlighter {
		if code < 0 || int(code) >= len(HighlightColors) {
			return colorful.Color{}, false, rmerrors.New(rmerrors.ErrCodeFormatMismatch,
				"highlight colour %d out of range [0,%d)", code, len(HighlightColors))
		}
		if HighlightColors[code] == nil {
			return colorful.Color{}, false, nil
		}
		return *HighlightColors[code], true, nil
	}
	if code < 0 || int(code) >= len(StandardColors) {
		return colorful.Color{}, false, rmerrors.New(rmerrors.ErrCodeFormatMismatch,
			"colour %d out of range [0,%d)", code, len(StandardColors))
	}
	return StandardColors[code], true, nil
}
