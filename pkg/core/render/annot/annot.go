// Package annot groups annotation shapes drawn on a page layer.
//
// Pens that mark text (the highlighter) record a [Shape] for every stroke
// they paint. After a layer is drawn, [Cluster] merges shapes of the same
// kind whose geometry touches into a single [Group], so that one highlighted
// passage becomes one annotation regardless of how many strokes made it.
//
// # Algorithm
//
// Clustering is a fixed-point iteration. Each pass walks the current list and
// unions every entry into the first earlier group of the same kind it
// intersects, otherwise it starts a new group. Passes repeat while the group
// count keeps shrinking. Geometry is an axis-aligned rectangle ([r2.Rect]),
// and intersection is closed: rectangles that share an edge merge.
//
// When no pass merges anything, every pair of remaining groups was tested,
// so groups of the same kind never intersect and running [Cluster] on its own
// output returns it unchanged.
package annot

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Kind names a category of annotation. Only shapes of the same kind merge.
type Kind string

// Annotation kinds.
const (
	KindHighlight Kind = "highlight"
)

// Shape is one annotation mark in page pixel coordinates.
type Shape struct {
	Kind  Kind
	Color string // hex colour of the mark, e.g. "#f8f124"
	Rect  r2.Rect
}

// Group is a merged set of shapes. Its colour is that of the first shape.
type Group struct {
	Kind  Kind
	Color string
	Rect  r2.Rect
}

// Box returns the group's bounds as (minX, minY, maxX, maxY).
func (g Group) Box() [4]float64 {
	return [4]float64{g.Rect.X.Lo, g.Rect.Y.Lo, g.Rect.X.Hi, g.Rect.Y.Hi}
}

// RectFromBounds builds a rectangle from two corners in any order.
func RectFromBounds(x1, y1, x2, y2 float64) r2.Rect {
	return r2.Rect{
		X: r1.Interval{Lo: min(x1, x2), Hi: max(x1, x2)},
		Y: r1.Interval{Lo: min(y1, y2), Hi: max(y1, y2)},
	}
}

// Cluster merges intersecting shapes of the same kind. The input is not
// modified. An empty input yields an empty result.
func Cluster(shapes []Shape) []Group {
	groups := make([]Group, len(shapes))
	for i, s := range shapes {
		groups[i] = Group(s)
	}
	for {
		next := pass(groups)
		if len(next) >= len(groups) {
			return next
		}
		groups = next
	}
}

func pass(in []Group) []Group {
	out := make([]Group, 0, len(in))
	for _, g := range in {
		merged := false
		for i := range out {
			if out[i].Kind != g.Kind || !out[i].Rect.Intersects(g.Rect) {
				continue
			}
			out[i].Rect = out[i].Rect.Union(g.Rect)
			merged = true
			break
		}
		if !merged {
			out = append(out, g)
		}
	}
	return out
}

// Collector accumulates the shapes painted on one layer.
type Collector struct {
	shapes []Shape
}

// Add records a shape. Empty rectangles are ignored.
func (c *Collector) Add(s Shape) {
	if s.Rect.IsEmpty() {
		return
	}
	c.shapes = append(c.shapes, s)
}

// Shapes returns the recorded shapes in paint order.
func (c *Collector) Shapes() []Shape { return c.shapes }

// Len returns the number of recorded shapes.
func (c *Collector) Len() int { return len(c.shapes) }

// LayerGroups is the clustered annotation output of one layer.
type LayerGroups struct {
	Layer  string
	Groups []Group
}
