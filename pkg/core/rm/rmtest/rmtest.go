// Package rmtest builds page files in memory for tests.
package rmtest

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	"github.com/matzehuels/rmrender/pkg/core/rm"
)

// Lines encodes a version 3 or 5 page file. Each argument is one layer.
func Lines(version int, layers ...[]ink.Stroke) []byte {
	var b bytes.Buffer
	b.Write(rm.Header(version))
	putU32(&b, uint32(len(layers)))
	for _, strokes := range layers {
		putU32(&b, uint32(len(strokes)))
		for _, s := range strokes {
			putU32(&b, uint32(s.Pen))
			putU32(&b, uint32(s.Color))
			putU32(&b, 0)
			putF32(&b, s.WidthScale)
			if version == ink.Version5 {
				putF32(&b, 0)
			}
			putU32(&b, uint32(s.Len()))
			for _, seg := range s.Segments() {
				for _, v := range []float64{seg.X, seg.Y, seg.Speed, seg.Direction, seg.Width, seg.Pressure} {
					putF32(&b, v)
				}
			}
		}
	}
	return b.Bytes()
}

// Scene builds a version 6 page file block by block.
type Scene struct {
	blocks bytes.Buffer
	nextID uint64
}

// NewScene starts an empty scene.
func NewScene() *Scene { return &Scene{nextID: 1} }

func (s *Scene) id() uint64 {
	s.nextID++
	return s.nextID
}

// Group appends a tree node block carrying label.
func (s *Scene) Group(label string) *Scene {
	var body bytes.Buffer
	putID(&body, 1, 0, s.id())
	lww := sub(func(w *bytes.Buffer) {
		putID(w, 1, 1, s.id())
		str := sub(func(w *bytes.Buffer) {
			putVaruint(w, uint64(len(label)))
			w.WriteByte(1)
			w.WriteString(label)
		})
		putSub(w, 2, str)
	})
	putSub(&body, 2, lww)
	vis := sub(func(w *bytes.Buffer) {
		putID(w, 1, 1, s.id())
		putTag(w, 2, rm.TagByte1)
		w.WriteByte(1)
	})
	putSub(&body, 3, vis)
	s.block(rm.BlockTreeNode, 1, body.Bytes())
	return s
}

// Line appends a line item block using version 1 (float) point encoding.
func (s *Scene) Line(pen ink.PenKind, color ink.ColorCode, thickness float64, points ...ink.Point) *Scene {
	s.block(rm.BlockSceneLineItem, 1, s.lineBody(pen, color, thickness, 1, points))
	return s
}

// LineV2 appends a line item block using version 2 (packed) point encoding.
// Direction and pressure are given in their packed byte form.
func (s *Scene) LineV2(pen ink.PenKind, color ink.ColorCode, thickness float64, points ...ink.Point) *Scene {
	s.block(rm.BlockSceneLineItem, 2, s.lineBody(pen, color, thickness, 2, points))
	return s
}

// EmptyLine appends a line item with no value.
func (s *Scene) EmptyLine() *Scene {
	var body bytes.Buffer
	s.itemHeader(&body)
	s.block(rm.BlockSceneLineItem, 1, body.Bytes())
	return s
}

// Raw appends an arbitrary block.
func (s *Scene) Raw(typ rm.BlockType, version uint8, body []byte) *Scene {
	s.block(typ, version, body)
	return s
}

// Bytes returns the encoded file.
func (s *Scene) Bytes() []byte {
	var b bytes.Buffer
	b.Write(rm.Header(ink.Version6))
	b.Write(s.blocks.Bytes())
	return b.Bytes()
}

func (s *Scene) itemHeader(w *bytes.Buffer) {
	putID(w, 1, 0, 11)
	putID(w, 2, 1, s.id())
	putID(w, 3, 0, 0)
	putID(w, 4, 0, 0)
	putTag(w, 5, rm.TagByte4)
	putU32(w, 0)
}

func (s *Scene) lineBody(pen ink.PenKind, color ink.ColorCode, thickness float64, version uint8, points []ink.Point) []byte {
	var body bytes.Buffer
	s.itemHeader(&body)
	item := sub(func(w *bytes.Buffer) {
		w.WriteByte(3)
		putTag(w, 1, rm.TagByte4)
		putU32(w, uint32(int32(pen)))
		putTag(w, 2, rm.TagByte4)
		putU32(w, uint32(int32(color)))
		putTag(w, 3, rm.TagByte8)
		binary.Write(w, binary.LittleEndian, thickness)
		putTag(w, 4, rm.TagByte4)
		putF32(w, 0)
		pts := sub(func(w *bytes.Buffer) {
			for _, p := range points {
				putF32(w, p.X)
				putF32(w, p.Y)
				if version < 2 {
					putF32(w, p.Speed)
					putF32(w, p.Direction)
					putF32(w, p.Width)
					putF32(w, p.Pressure)
					continue
				}
				binary.Write(w, binary.LittleEndian, uint16(p.Speed))
				binary.Write(w, binary.LittleEndian, uint16(p.Width))
				w.WriteByte(uint8(p.Direction))
				w.WriteByte(uint8(p.Pressure))
			}
		})
		putSub(w, 5, pts)
		putID(w, 6, 0, 1)
	})
	putSub(&body, 6, item)
	return body.Bytes()
}

func (s *Scene) block(typ rm.BlockType, version uint8, body []byte) {
	putU32(&s.blocks, uint32(len(body)))
	s.blocks.WriteByte(0)
	s.blocks.WriteByte(1)
	s.blocks.WriteByte(version)
	s.blocks.WriteByte(byte(typ))
	s.blocks.Write(body)
}

func sub(fill func(*bytes.Buffer)) []byte {
	var b bytes.Buffer
	fill(&b)
	return b.Bytes()
}

func putSub(w *bytes.Buffer, index int, body []byte) {
	putTag(w, index, rm.TagLength4)
	putU32(w, uint32(len(body)))
	w.Write(body)
}

func putID(w *bytes.Buffer, index int, p1 uint8, p2 uint64) {
	putTag(w, index, rm.TagID)
	w.WriteByte(p1)
	putVaruint(w, p2)
}

func putTag(w *bytes.Buffer, index int, typ rm.TagType) {
	putVaruint(w, uint64(index)<<4|uint64(typ))
}

func putVaruint(w *bytes.Buffer, v uint64) {
	w.Write(binary.AppendUvarint(nil, v))
}

func putU32(w *bytes.Buffer, v uint32) {
	binary.Write(w, binary.LittleEndian, v)
}

func putF32(w *bytes.Buffer, v float64) {
	binary.Write(w, binary.LittleEndian, math.Float32bits(float32(v)))
}
