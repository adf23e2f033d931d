package annot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func square(x, y float64) Shape {
	return Shape{Kind: KindHighlight, Rect: RectFromBounds(x, y, x+1, y+1)}
}

func boxes(groups []Group) [][4]float64 {
	var out [][4]float64
	for _, g := range groups {
		out = append(out, g.Box())
	}
	return out
}

func TestCluster(t *testing.T) {
	const other Kind = "underline"
	tests := []struct {
		name   string
		shapes []Shape
		want   [][4]float64
	}{
		{
			name: "empty",
		},
		{
			name:   "overlapping pair and a loner",
			shapes: []Shape{square(0, 0), square(0.5, 0.5), square(5, 5)},
			want:   [][4]float64{{0, 0, 1.5, 1.5}, {5, 5, 6, 6}},
		},
		{
			name:   "touching edges merge",
			shapes: []Shape{square(0, 0), square(1, 0)},
			want:   [][4]float64{{0, 0, 2, 1}},
		},
		{
			name: "chain needs a second pass",
			// the bridge joins the first group, which only then reaches the second
			shapes: []Shape{square(0, 0), square(2, 0), {Kind: KindHighlight, Rect: RectFromBounds(0.8, 0, 2.1, 1)}},
			want:   [][4]float64{{0, 0, 3, 1}},
		},
		{
			name:   "kinds never merge",
			shapes: []Shape{square(0, 0), {Kind: other, Rect: RectFromBounds(0, 0, 1, 1)}},
			want:   [][4]float64{{0, 0, 1, 1}, {0, 0, 1, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cluster(tt.shapes)
			if diff := cmp.Diff(tt.want, boxes(got)); diff != "" {
				t.Errorf("Cluster() boxes (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClusterNoOverlapAfterConvergence(t *testing.T) {
	var shapes []Shape
	for i := 0; i < 40; i++ {
		x := float64((i * 37) % 23)
		y := float64((i * 11) % 17)
		shapes = append(shapes, square(x*0.8, y*0.9))
	}
	groups := Cluster(shapes)
	for i := range groups {
		for j := i + 1; j < len(groups); j++ {
			if groups[i].Kind == groups[j].Kind && groups[i].Rect.Intersects(groups[j].Rect) {
				t.Errorf("groups %d and %d intersect: %v %v", i, j, groups[i].Box(), groups[j].Box())
			}
		}
	}
}

func TestClusterIdempotent(t *testing.T) {
	shapes := []Shape{square(0, 0), square(0.5, 0.5), square(5, 5), square(5.5, 6), square(9, 0)}
	once := Cluster(shapes)

	again := make([]Shape, len(once))
	for i, g := range once {
		again[i] = Shape(g)
	}
	twice := Cluster(again)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Cluster(Cluster(x)) != Cluster(x) (-once +twice):\n%s", diff)
	}
}

func TestClusterKeepsFirstColor(t *testing.T) {
	a := square(0, 0)
	a.Color = "#f8f124"
	b := square(0.5, 0)
	b.Color = "#b7f849"
	got := Cluster([]Shape{a, b})
	if len(got) != 1 || got[0].Color != "#f8f124" {
		t.Errorf("Cluster() = %+v, want one group coloured #f8f124", got)
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	c.Add(square(0, 0))
	c.Add(Shape{Kind: KindHighlight, Rect: RectFromBounds(2, 2, 1, 1)})
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if got := c.Shapes()[1].Rect.X.Lo; got != 1 {
		t.Errorf("RectFromBounds did not normalise corners: Lo = %v", got)
	}
}
