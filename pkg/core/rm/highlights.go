package rm

import (
	"encoding/json"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// HighlightFile is the smart-highlight sidecar of one page.
type HighlightFile struct {
	Highlights [][]Highlight `json:"highlights"`
}

// Highlight is one highlighted text range.
type Highlight struct {
	Color  int             `json:"color"`
	Rects  []HighlightRect `json:"rects"`
	Text   string          `json:"text,omitempty"`
	Start  int             `json:"start,omitempty"`
	Length int             `json:"length,omitempty"`
}

// HighlightRect is one line-box of a highlighted range.
type HighlightRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ParseHighlights decodes a highlight sidecar.
func ParseHighlights(data []byte) (*HighlightFile, error) {
	var f HighlightFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, rmerrors.Wrap(rmerrors.ErrCodeFormatMismatch, err, "decode highlights")
	}
	return &f, nil
}

// ReadHighlights converts a highlight sidecar into one stroke list per layer.
// Each rectangle becomes a two-sample highlighter stroke through its vertical
// centre, as wide as the rectangle is tall. A sidecar without a highlights
// list yields nil.
func ReadHighlights(f *HighlightFile) [][]ink.Stroke {
	if f == nil || f.Highlights == nil {
		return nil
	}
	layers := make([][]ink.Stroke, len(f.Highlights))
	for i, layer := range f.Highlights {
		strokes := []ink.Stroke{}
		for _, h := range layer {
			for _, r := range h.Rects {
				if r.Width <= 0 || r.Height <= 0 {
					continue
				}
				y := r.Y + r.Height/2
				segs := []ink.Segment{
					{X: r.X, Y: y, Width: r.Height, Pressure: 1},
					{X: r.X + r.Width, Y: y, Width: r.Height, Pressure: 1},
				}
				s, _ := ink.NewStroke(ink.PenHighlighter2, ink.ColorCode(h.Color), 1, segs)
				strokes = append(strokes, s)
			}
		}
		layers[i] = strokes
	}
	return layers
}
