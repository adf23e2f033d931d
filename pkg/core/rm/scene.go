package rm

import (
	"fmt"
	"math"

	"github.com/matzehuels/rmrender/pkg/core/ink"
	rmerrors "github.com/matzehuels/rmrender/pkg/errors"
)

// BlockType is the type byte of a scene block header.
type BlockType uint8

// Scene block types. Only TreeNode and SceneLineItem are decoded.
const (
	BlockMigrationInfo  BlockType = 0x00
	BlockSceneTree      BlockType = 0x01
	BlockTreeNode       BlockType = 0x02
	BlockSceneGlyphItem BlockType = 0x03
	BlockSceneGroupItem BlockType = 0x04
	BlockSceneLineItem  BlockType = 0x05
	BlockSceneTextItem  BlockType = 0x06
	BlockRootText       BlockType = 0x07
	BlockSceneTombstone BlockType = 0x08
	BlockAuthorIDs      BlockType = 0x09
	BlockPageInfo       BlockType = 0x0A
	BlockSceneInfo      BlockType = 0x0D
)

var blockNames = map[BlockType]string{
	BlockMigrationInfo:  "migration-info",
	BlockSceneTree:      "scene-tree",
	BlockTreeNode:       "tree-node",
	BlockSceneGlyphItem: "glyph-item",
	BlockSceneGroupItem: "group-item",
	BlockSceneLineItem:  "line-item",
	BlockSceneTextItem:  "text-item",
	BlockRootText:       "root-text",
	BlockSceneTombstone: "tombstone",
	BlockAuthorIDs:      "author-ids",
	BlockPageInfo:       "page-info",
	BlockSceneInfo:      "scene-info",
}

func (t BlockType) String() string {
	if n, ok := blockNames[t]; ok {
		return n
	}
	return fmt.Sprintf("block(0x%02x)", uint8(t))
}

// Known reports whether t is a documented block type.
func (t BlockType) Known() bool {
	_, ok := blockNames[t]
	return ok
}

// BlockHeader precedes every block in a version 6 file.
type BlockHeader struct {
	Length         uint32
	MinVersion     uint8
	CurrentVersion uint8
	Type           BlockType
}

// Block is one decoded scene block.
type Block interface {
	BlockHeader() BlockHeader
}

// TreeNodeBlock names a group in the scene tree. Layers are groups.
type TreeNodeBlock struct {
	Header  BlockHeader
	NodeID  CrdtID
	Label   string
	Visible bool
}

// SceneLineItemBlock inserts (or tombstones) one line in a group. Line is nil
// when the item carries no value.
type SceneLineItemBlock struct {
	Header        BlockHeader
	ParentID      CrdtID
	ItemID        CrdtID
	LeftID        CrdtID
	RightID       CrdtID
	DeletedLength int64
	Line          *Line
}

// Line is the payload of a line item.
type Line struct {
	Tool           ink.PenKind
	Color          ink.ColorCode
	ThicknessScale float64
	StartingLength float64
	Points         []ink.Point
}

// UnknownBlock carries the raw bytes of a block that is not decoded.
type UnknownBlock struct {
	Header BlockHeader
	Data   []byte
}

func (b *TreeNodeBlock) BlockHeader() BlockHeader      { return b.Header }
func (b *SceneLineItemBlock) BlockHeader() BlockHeader { return b.Header }
func (b *UnknownBlock) BlockHeader() BlockHeader       { return b.Header }

const blockHeaderSize = 8

// line item payload type for strokes
const itemTypeLine = 3

// ReadBlocks decodes a version 6 page file into its block sequence.
//
// Blocks of other types, and line items holding something other than a line,
// are returned as [UnknownBlock]. A block whose body fails to decode is an
// error; the block framing is never skipped over blindly.
func ReadBlocks(data []byte) ([]Block, error) {
	v, err := ReadVersion(data)
	if err != nil {
		return nil, err
	}
	if v != ink.Version6 {
		return nil, rmerrors.New(rmerrors.ErrCodeUnsupportedVersion, "version %d is not a scene file", v)
	}

	var blocks []Block
	c := &cursor{buf: data, off: HeaderSize}
	for c.remaining() > 0 {
		start := c.off
		h, err := readBlockHeader(c)
		if err != nil {
			return nil, err
		}
		if c.remaining() < int(h.Length) {
			return nil, truncated(h.Type.String()+" block", start)
		}
		end := c.off + int(h.Length)
		body := &taggedReader{cursor: &cursor{buf: data[:end], off: c.off}, end: end}

		b, err := decodeBlock(h, body, data[c.off:end])
		if err != nil {
			return nil, rmerrors.Wrap(rmerrors.ErrCodeFormatMismatch, err, "%s block at offset %d", h.Type, start)
		}
		blocks = append(blocks, b)
		c.off = end
	}
	return blocks, nil
}

func readBlockHeader(c *cursor) (BlockHeader, error) {
	if err := c.need(blockHeaderSize, "block header"); err != nil {
		return BlockHeader{}, err
	}
	length, _ := c.u32("block length")
	_, _ = c.u8("block reserved")
	minV, _ := c.u8("block min version")
	curV, _ := c.u8("block version")
	typ, _ := c.u8("block type")
	return BlockHeader{Length: length, MinVersion: minV, CurrentVersion: curV, Type: BlockType(typ)}, nil
}

func decodeBlock(h BlockHeader, r *taggedReader, raw []byte) (Block, error) {
	switch h.Type {
	case BlockTreeNode:
		return decodeTreeNode(h, r)
	case BlockSceneLineItem:
		b, err := decodeLineItem(h, r)
		if err == errNotALine {
			return &UnknownBlock{Header: h, Data: raw}, nil
		}
		return b, err
	}
	return &UnknownBlock{Header: h, Data: raw}, nil
}

func decodeTreeNode(h BlockHeader, r *taggedReader) (*TreeNodeBlock, error) {
	b := &TreeNodeBlock{Header: h, Visible: true}
	var err error
	if b.NodeID, err = r.readID(1); err != nil {
		return nil, err
	}
	if b.Label, err = r.readLWWString(2); err != nil {
		return nil, err
	}
	if r.hasTag(3, TagLength4) {
		if b.Visible, err = r.readLWWBool(3); err != nil {
			return nil, err
		}
	}
	return b, nil
}

var errNotALine = fmt.Errorf("item is not a line")

func decodeLineItem(h BlockHeader, r *taggedReader) (*SceneLineItemBlock, error) {
	b := &SceneLineItemBlock{Header: h}
	var err error
	if b.ParentID, err = r.readID(1); err != nil {
		return nil, err
	}
	if b.ItemID, err = r.readID(2); err != nil {
		return nil, err
	}
	if b.LeftID, err = r.readID(3); err != nil {
		return nil, err
	}
	if b.RightID, err = r.readID(4); err != nil {
		return nil, err
	}
	if b.DeletedLength, err = r.readInt(5); err != nil {
		return nil, err
	}
	if !r.hasTag(6, TagLength4) {
		return b, nil
	}

	end, err := r.readSubblock(6)
	if err != nil {
		return nil, err
	}
	itemType, err := r.u8("item type")
	if err != nil {
		return nil, err
	}
	if itemType != itemTypeLine {
		return nil, errNotALine
	}
	if b.Line, err = decodeLine(h.CurrentVersion, r); err != nil {
		return nil, err
	}
	r.off = end
	return b, nil
}

func decodeLine(version uint8, r *taggedReader) (*Line, error) {
	tool, err := r.readInt(1)
	if err != nil {
		return nil, err
	}
	color, err := r.readInt(2)
	if err != nil {
		return nil, err
	}
	thickness, err := r.readDouble(3)
	if err != nil {
		return nil, err
	}
	starting, err := r.readFloat(4)
	if err != nil {
		return nil, err
	}

	end, err := r.readSubblock(5)
	if err != nil {
		return nil, err
	}
	size := pointSize(version)
	n := end - r.off
	if n%size != 0 {
		return nil, malformed("points subblock of %d bytes is not a multiple of %d", n, size)
	}
	points := make([]ink.Point, 0, n/size)
	for r.off < end {
		p, err := readPoint(r.cursor, version)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	// timestamp, then an optional move id
	if _, err := r.readID(6); err != nil {
		return nil, err
	}
	if r.hasTag(7, TagID) {
		if _, err := r.readID(7); err != nil {
			return nil, err
		}
	}

	return &Line{
		Tool:           ink.PenKind(tool),
		Color:          ink.ColorCode(color),
		ThicknessScale: thickness,
		StartingLength: starting,
		Points:         points,
	}, nil
}

func pointSize(version uint8) int {
	if version >= 2 {
		return 14
	}
	return 24
}

// readPoint decodes one sample. Version 2 packs speed and width as u16 and
// direction and pressure as u8; direction and pressure are scaled to radians
// and [0,1] to match version 1.
func readPoint(c *cursor, version uint8) (ink.Point, error) {
	var p ink.Point
	var err error
	if p.X, err = c.f32("point"); err != nil {
		return p, err
	}
	if p.Y, err = c.f32("point"); err != nil {
		return p, err
	}
	if version < 2 {
		if p.Speed, err = c.f32("point"); err != nil {
			return p, err
		}
		if p.Direction, err = c.f32("point"); err != nil {
			return p, err
		}
		if p.Width, err = c.f32("point"); err != nil {
			return p, err
		}
		p.Pressure, err = c.f32("point")
		return p, err
	}

	speed, err := c.u16("point")
	if err != nil {
		return p, err
	}
	width, err := c.u16("point")
	if err != nil {
		return p, err
	}
	dir, err := c.u8("point")
	if err != nil {
		return p, err
	}
	pressure, err := c.u8("point")
	if err != nil {
		return p, err
	}
	p.Speed = float64(speed)
	p.Width = float64(width)
	p.Direction = float64(dir) * 2 * math.Pi / 255
	p.Pressure = float64(pressure) / 255
	return p, nil
}
