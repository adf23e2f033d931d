package sink

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/rmrender/pkg/core/render"
	"github.com/matzehuels/rmrender/pkg/core/render/annot"
)

// AnnotationPage is the annotation export of one page.
type AnnotationPage struct {
	Page   int               `json:"page"`
	ID     string            `json:"id,omitempty"`
	Layers []AnnotationLayer `json:"layers"`
}

// AnnotationLayer holds the groups of one layer, in layer order.
type AnnotationLayer struct {
	Name   string       `json:"name"`
	Groups []Annotation `json:"groups"`
}

// Annotation is one merged group. Rect is (x1, y1, x2, y2) in points with
// the origin at the bottom-left of the page, x1 <= x2 and y1 <= y2.
type Annotation struct {
	Kind  string     `json:"kind"`
	Rect  [4]float64 `json:"rect"`
	Color string     `json:"color"`
}

// NewAnnotationPage converts clustered groups of a page for export. Every
// layer is listed, including those without groups.
func NewAnnotationPage(index int, id string, layers []annot.LayerGroups) AnnotationPage {
	p := AnnotationPage{Page: index, ID: id, Layers: make([]AnnotationLayer, 0, len(layers))}
	for _, l := range layers {
		al := AnnotationLayer{Name: l.Layer, Groups: make([]Annotation, 0, len(l.Groups))}
		for _, g := range l.Groups {
			al.Groups = append(al.Groups, Annotation{
				Kind:  string(g.Kind),
				Rect:  ToPoints(g.Box()),
				Color: g.Color,
			})
		}
		p.Layers = append(p.Layers, al)
	}
	return p
}

// ToPoints converts a (minX, minY, maxX, maxY) box in page pixels to points
// with the y-axis flipped.
func ToPoints(box [4]float64) [4]float64 {
	x1, x2 := box[0]*render.PointsPerPixel, box[2]*render.PointsPerPixel
	y1 := render.PageHeight - box[3]*render.PointsPerPixel
	y2 := render.PageHeight - box[1]*render.PointsPerPixel
	return [4]float64{round(x1), round(y1), round(x2), round(y2)}
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// RenderAnnotationsJSON encodes pages as an indented JSON list.
func RenderAnnotationsJSON(pages []AnnotationPage) ([]byte, error) {
	if pages == nil {
		pages = []AnnotationPage{}
	}
	return json.MarshalIndent(pages, "", "  ")
}

// ParseAnnotationsJSON decodes output of [RenderAnnotationsJSON].
func ParseAnnotationsJSON(data []byte) ([]AnnotationPage, error) {
	var pages []AnnotationPage
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}
