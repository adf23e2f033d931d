// Package rendertest provides a recording drawing surface for tests.
package rendertest

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/rmrender/pkg/core/load"
	"github.com/matzehuels/rmrender/pkg/core/render"
)

// Call is one recorded surface call.
type Call struct {
	Op    string
	Args  []float64
	Style render.LineStyle
	Name  string
}

func (c Call) String() string {
	if c.Name != "" {
		return fmt.Sprintf("%s(%s %v)", c.Op, c.Name, c.Args)
	}
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

// Recorder is a [render.Surface] that records every call.
type Recorder struct {
	Calls    []Call
	Finished bool

	// FailBackground makes DrawBackground return this error.
	FailBackground error
}

func (r *Recorder) add(c Call) { r.Calls = append(r.Calls, c) }

// Ops returns the operation names in call order.
func (r *Recorder) Ops() []string {
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (r *Recorder) DrawBackground(t *load.Template, scale float64) error {
	if r.FailBackground != nil {
		return r.FailBackground
	}
	r.add(Call{Op: "background", Name: t.Name, Args: []float64{scale}})
	return nil
}

func (r *Recorder) SaveState()    { r.add(Call{Op: "save"}) }
func (r *Recorder) RestoreState() { r.add(Call{Op: "restore"}) }

func (r *Recorder) SetFill(c colorful.Color, alpha float64) {
	r.add(Call{Op: "fill", Args: []float64{c.R, c.G, c.B, alpha}})
}

func (r *Recorder) FillRect(x, y, w, h float64) {
	r.add(Call{Op: "rect", Args: []float64{x, y, w, h}})
}

func (r *Recorder) Translate(dx, dy float64) {
	r.add(Call{Op: "translate", Args: []float64{dx, dy}})
}

func (r *Recorder) Scale(sx, sy float64) {
	r.add(Call{Op: "scale", Args: []float64{sx, sy}})
}

func (r *Recorder) StrokePolyline(pts []render.Point, style render.LineStyle) {
	args := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		args = append(args, p.X, p.Y)
	}
	r.add(Call{Op: "stroke", Args: args, Style: style})
}

func (r *Recorder) FinishPage() error {
	r.add(Call{Op: "finish"})
	r.Finished = true
	return nil
}

var _ render.Surface = (*Recorder)(nil)
