package rm

import (
	"github.com/matzehuels/rmrender/pkg/core/ink"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// Limits that reject absurd counts before allocating for them.
const (
	maxLayers   = 1024
	maxStrokes  = 1 << 20
	maxSegments = 1 << 20
)

// ReadLines decodes a version 3 or 5 page file into one stroke list per layer.
//
// Legacy samples are already in page space, so no transform is applied.
// Strokes without samples are dropped.
func ReadLines(data []byte) (version int, layers [][]ink.Stroke, err error) {
	version, err = ReadVersion(data)
	if err != nil {
		return version, nil, err
	}
	if !ink.IsLegacy(version) {
		return version, nil, rmerrors.New(rmerrors.ErrCodeUnsupportedVersion,
			"version %d is not a lines file", version)
	}

	c := &cursor{buf: data, off: HeaderSize}
	nlayers, err := c.u32("layer count")
	if err != nil {
		return version, nil, err
	}
	if nlayers > maxLayers {
		return version, nil, malformed("layer count %d exceeds %d", nlayers, maxLayers)
	}

	layers = make([][]ink.Stroke, 0, nlayers)
	for l := uint32(0); l < nlayers; l++ {
		strokes, err := readLegacyLayer(c, version)
		if err != nil {
			return version, nil, rmerrors.Wrap(rmerrors.ErrCodeFormatMismatch, err, "layer %d", l+1)
		}
		layers = append(layers, strokes)
	}
	return version, layers, nil
}

func readLegacyLayer(c *cursor, version int) ([]ink.Stroke, error) {
	nstrokes, err := c.u32("stroke count")
	if err != nil {
		return nil, err
	}
	if nstrokes > maxStrokes {
		return nil, malformed("stroke count %d exceeds %d", nstrokes, maxStrokes)
	}

	strokes := make([]ink.Stroke, 0, nstrokes)
	for i := uint32(0); i < nstrokes; i++ {
		pen, err := c.u32("pen")
		if err != nil {
			return nil, err
		}
		color, err := c.u32("color")
		if err != nil {
			return nil, err
		}
		if _, err := c.u32("stroke flags"); err != nil {
			return nil, err
		}
		width, err := c.f32("width")
		if err != nil {
			return nil, err
		}
		if version == ink.Version5 {
			if _, err := c.f32("stroke reserved"); err != nil {
				return nil, err
			}
		}
		nsegs, err := c.u32("segment count")
		if err != nil {
			return nil, err
		}
		if nsegs > maxSegments || c.remaining() < int(nsegs)*24 {
			return nil, truncated("segments", c.off)
		}

		segs := make([]ink.Segment, nsegs)
		for j := range segs {
			var v [6]float64
			for k := range v {
				if v[k], err = c.f32("segment"); err != nil {
					return nil, err
				}
			}
			segs[j] = ink.Segment{
				X: v[0], Y: v[1],
				Speed: v[2], Direction: v[3],
				Width: v[4], Pressure: v[5],
			}
		}
		if len(segs) == 0 {
			continue
		}
		s, err := ink.NewStroke(ink.PenKind(int32(pen)), ink.ColorCode(int32(color)), width, segs)
		if err != nil {
			return nil, err
		}
		strokes = append(strokes, s)
	}
	return strokes, nil
}
