package ink

import (
	"fmt"
	"slices"
)

// Device geometry of the tablet screen.
const (
	DeviceWidth  = 1404.0 // screen width in pixels
	DeviceHeight = 1872.0 // screen height in pixels
	DeviceDPI    = 226.0  // screen resolution
)

// Schema versions found in the file header.
const (
	VersionUnknown = 0
	Version3       = 3
	Version5       = 5
	Version6       = 6
)

// IsLegacy reports whether v is one of the "lines" schema versions.
func IsLegacy(v int) bool {
	return v == Version3 || v == Version5
}

// Point is a raw stroke sample in device space.
type Point struct {
	X, Y      float64
	Pressure  float64
	Width     float64
	Speed     float64
	Direction float64
}

// Segment is a stroke sample in page space.
type Segment struct {
	X, Y      float64
	Pressure  float64
	Width     float64
	Speed     float64
	Direction float64
}

// Scene transform applied to version 6 points.
const (
	sceneScale    = 0.7
	sceneOffsetX  = DeviceWidth/2 - 40
	sceneWidthDiv = 4.0
)

// ToSegment maps a version 6 device point onto the page.
func ToSegment(p Point) Segment {
	return Segment{
		X:         p.X*sceneScale + sceneOffsetX,
		Y:         p.Y * sceneScale,
		Pressure:  p.Pressure,
		Width:     p.Width / sceneWidthDiv,
		Speed:     p.Speed,
		Direction: p.Direction,
	}
}

// ToSegments maps a point list with [ToSegment], preserving order.
func ToSegments(points []Point) []Segment {
	segs := make([]Segment, len(points))
	for i, p := range points {
		segs[i] = ToSegment(p)
	}
	return segs
}

// Stroke is one pen gesture. The zero value is not a valid stroke; use
// [NewStroke].
type Stroke struct {
	Pen        PenKind
	Color      ColorCode
	WidthScale float64

	segments []Segment
}

// NewStroke builds a stroke from its raw codes and segments. The segment slice
// is copied. A stroke needs at least one segment.
func NewStroke(pen PenKind, color ColorCode, widthScale float64, segments []Segment) (Stroke, error) {
	if len(segments) == 0 {
		return Stroke{}, fmt.Errorf("stroke has no segments")
	}
	return Stroke{
		Pen:        pen,
		Color:      color,
		WidthScale: widthScale,
		segments:   slices.Clone(segments),
	}, nil
}

// Segments returns the stroke's samples in drawing order. The returned slice
// must not be modified.
func (s Stroke) Segments() []Segment { return s.segments }

// Len returns the number of samples.
func (s Stroke) Len() int { return len(s.segments) }

// Bounds returns the extent of the stroke's sample positions.
func (s Stroke) Bounds() (minX, minY, maxX, maxY float64) {
	if len(s.segments) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = s.segments[0].X, s.segments[0].Y
	maxX, maxY = minX, minY
	for _, seg := range s.segments[1:] {
		minX = min(minX, seg.X)
		minY = min(minY, seg.Y)
		maxX = max(maxX, seg.X)
		maxY = max(maxY, seg.Y)
	}
	return minX, minY, maxX, maxY
}

// Layer is a named, ordered group of strokes painted as one unit.
type Layer struct {
	Name    string
	Strokes []Stroke
}

// DefaultLayerName returns the name used when no metadata names layer i.
func DefaultLayerName(i int) string {
	return fmt.Sprintf("Layer %d", i+1)
}

// StrokeCount returns the number of strokes in the layer.
func (l Layer) StrokeCount() int { return len(l.Strokes) }

// Page is one loaded page of a document.
type Page struct {
	Number   int    // 0-based page index
	ID       string // page identifier from the content file
	Version  int    // schema version that produced Layers
	Template string // template name; empty when the page has none
	Layers   []Layer
}

// NewPage creates a page with a fixed schema version and its layers.
func NewPage(number int, id string, version int, template string, layers []Layer) *Page {
	return &Page{
		Number:   number,
		ID:       id,
		Version:  version,
		Template: template,
		Layers:   layers,
	}
}

// StrokeCount returns the number of strokes across all layers.
func (p *Page) StrokeCount() int {
	n := 0
	for _, l := range p.Layers {
		n += len(l.Strokes)
	}
	return n
}
