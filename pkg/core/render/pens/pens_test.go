package pens

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/render"
	"github.com/matzehuels/rmrender/pkg/core/render/annot"
	"github.com/matzehuels/rmrender/pkg/core/render/rendertest"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

func stroke(t *testing.T, pen ink.PenKind, color ink.ColorCode) ink.Stroke {
	t.Helper()
	s, err := ink.NewStroke(pen, color, 2, []ink.Segment{
		{X: 10, Y: 10, Width: 4, Pressure: 0.5},
		{X: 20, Y: 12, Width: 4, Pressure: 0.8},
		{X: 30, Y: 10, Width: 4, Pressure: 0.9},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newLayer() *render.Layer {
	return &render.Layer{Name: "Layer 1", Shapes: &annot.Collector{}}
}

func TestDefaultRegistryCoversKnownPens(t *testing.T) {
	d := NewDispatcher(nil)
	for code := ink.PenKind(0); code <= 30; code++ {
		_, known := d.Resolve(code)
		if known != code.Known() {
			t.Errorf("Resolve(%d) known = %v, want %v", int(code), known, code.Known())
		}
	}
}

func TestUnknownPenFallsBackWithOneWarning(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(log.NewWithOptions(&buf, log.Options{}))
	rec := &rendertest.Recorder{}

	if err := d.PaintStroke(rec, newLayer(), stroke(t, ink.PenKind(99), ink.ColorBlack)); err != nil {
		t.Fatalf("PaintStroke(unknown pen) error = %v", err)
	}
	if n := rec.Count("stroke"); n != 1 {
		t.Errorf("stroke calls = %d, want 1 (generic polyline)", n)
	}
	out := buf.String()
	if n := strings.Count(out, "WARN"); n != 1 {
		t.Errorf("warnings = %d, want 1:\n%s", n, out)
	}
	if !strings.Contains(out, string(rmerrors.ErrCodeUnknownPenKind)) {
		t.Errorf("warning does not carry %s:\n%s", rmerrors.ErrCodeUnknownPenKind, out)
	}
}

func TestKnownPenDoesNotWarn(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(log.NewWithOptions(&buf, log.Options{}))
	if err := d.PaintStroke(&rendertest.Recorder{}, newLayer(), stroke(t, ink.PenBallpoint2, ink.ColorBlue)); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected log output:\n%s", buf.String())
	}
}

func TestColorResolution(t *testing.T) {
	tests := []struct {
		name       string
		pen        ink.PenKind
		color      ink.ColorCode
		wantErr    bool
		wantStroke bool
		wantHex    string
	}{
		{"standard black", ink.PenFineliner1, ink.ColorBlack, false, true, "#383938"},
		{"standard red", ink.PenFineliner1, ink.ColorRed, false, true, "#e45f59"},
		{"standard out of range", ink.PenFineliner1, 8, true, false, ""},
		{"standard negative", ink.PenFineliner1, -1, true, false, ""},
		{"highlight yellow", ink.PenHighlighter2, 3, false, true, "#f8f124"},
		{"highlight pink", ink.PenHighlighter1, 5, false, true, "#f84f91"},
		{"highlight sentinel", ink.PenHighlighter2, 0, false, false, ""},
		{"highlight out of range", ink.PenHighlighter2, 6, true, false, ""},
		{"unknown pen uses standard table", ink.PenKind(40), 7, false, true, "#e45f59"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &rendertest.Recorder{}
			err := NewDispatcher(nil).PaintStroke(rec, newLayer(), stroke(t, tt.pen, tt.color))
			if (err != nil) != tt.wantErr {
				t.Fatalf("PaintStroke() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !rmerrors.Is(err, rmerrors.ErrCodeFormatMismatch) {
				t.Errorf("PaintStroke() code = %v, want FORMAT_MISMATCH", rmerrors.GetCode(err))
			}
			if got := rec.Count("stroke") > 0; got != tt.wantStroke {
				t.Fatalf("painted = %v, want %v", got, tt.wantStroke)
			}
			if tt.wantHex != "" {
				if got := rec.Calls[0].Style.Color.Hex(); got != tt.wantHex {
					t.Errorf("colour = %s, want %s", got, tt.wantHex)
				}
			}
		})
	}
}

func TestHighlighterRecordsShape(t *testing.T) {
	l := newLayer()
	s, _ := ink.NewStroke(ink.PenHighlighter2, 4, 1, []ink.Segment{
		{X: 10, Y: 50, Width: 20},
		{X: 110, Y: 50, Width: 20},
	})
	if err := NewDispatcher(nil).PaintStroke(&rendertest.Recorder{}, l, s); err != nil {
		t.Fatal(err)
	}
	if l.Shapes.Len() != 1 {
		t.Fatalf("shapes = %d, want 1", l.Shapes.Len())
	}
	sh := l.Shapes.Shapes()[0]
	want := annot.Group{Kind: annot.KindHighlight, Rect: annot.RectFromBounds(0, 40, 120, 60)}.Box()
	if got := (annot.Group{Rect: sh.Rect}).Box(); got != want {
		t.Errorf("shape box = %v, want %v", got, want)
	}
	if sh.Kind != annot.KindHighlight || sh.Color != "#b7f849" {
		t.Errorf("shape = %s %s, want highlight #b7f849", sh.Kind, sh.Color)
	}
}

func TestRendererStyles(t *testing.T) {
	tests := []struct {
		pen         ink.PenKind
		wantCalls   int
		wantCap     render.LineCap
		translucent bool
	}{
		{ink.PenFineliner2, 1, render.CapRound, false},
		{ink.PenBallpoint2, 2, render.CapRound, false},
		{ink.PenMarker2, 2, render.CapRound, true},
		{ink.PenPencil2, 2, render.CapRound, true},
		{ink.PenMechanicalPencil2, 2, render.CapRound, true},
		{ink.PenBrush2, 2, render.CapRound, false},
		{ink.PenCalligraphy, 2, render.CapRound, false},
		{ink.PenHighlighter2, 1, render.CapSquare, true},
		{ink.PenEraser, 0, 0, false},
		{ink.PenEraseArea, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.pen.String(), func(t *testing.T) {
			rec := &rendertest.Recorder{}
			if err := NewDispatcher(nil).PaintStroke(rec, newLayer(), stroke(t, tt.pen, 3)); err != nil {
				t.Fatal(err)
			}
			if n := rec.Count("stroke"); n != tt.wantCalls {
				t.Fatalf("stroke calls = %d, want %d", n, tt.wantCalls)
			}
			for _, c := range rec.Calls {
				if c.Style.Cap != tt.wantCap {
					t.Errorf("cap = %v, want %v", c.Style.Cap, tt.wantCap)
				}
				if c.Style.Width <= 0 {
					t.Errorf("width = %v, want > 0", c.Style.Width)
				}
				if got := c.Style.Alpha < 1; got != tt.translucent {
					t.Errorf("alpha = %v, translucent want %v", c.Style.Alpha, tt.translucent)
				}
			}
		})
	}
}
