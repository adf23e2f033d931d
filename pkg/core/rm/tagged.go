package rm

import "fmt"

// TagType is the low nibble of a tagged value's tag.
type TagType uint8

// Tag types of the scene format.
const (
	TagByte1   TagType = 0x1
	TagByte4   TagType = 0x4
	TagByte8   TagType = 0x8
	TagLength4 TagType = 0xC
	TagID      TagType = 0xF
)

// CrdtID identifies an item in the scene's CRDT sequences.
type CrdtID struct {
	Part1 uint8
	Part2 uint64
}

func (id CrdtID) String() string { return fmt.Sprintf("%d:%d", id.Part1, id.Part2) }

// taggedReader reads tagged values inside one block.
type taggedReader struct {
	*cursor
	end int // offset of the end of the enclosing block
}

func (r *taggedReader) peekTag() (index int, typ TagType, ok bool) {
	if r.off >= r.end {
		return 0, 0, false
	}
	save := r.off
	v, err := r.varuint("tag")
	r.off = save
	if err != nil {
		return 0, 0, false
	}
	return int(v >> 4), TagType(v & 0xF), true
}

// hasTag reports whether the next value carries the given index and type.
func (r *taggedReader) hasTag(index int, typ TagType) bool {
	i, t, ok := r.peekTag()
	return ok && i == index && t == typ
}

func (r *taggedReader) expectTag(index int, typ TagType) error {
	at := r.off
	v, err := r.varuint("tag")
	if err != nil {
		return err
	}
	if i, t := int(v>>4), TagType(v&0xF); i != index || t != typ {
		return malformed("at offset %d: tag %d/%#x, want %d/%#x", at, i, uint8(t), index, uint8(typ))
	}
	return nil
}

func (r *taggedReader) readID(index int) (CrdtID, error) {
	if err := r.expectTag(index, TagID); err != nil {
		return CrdtID{}, err
	}
	p1, err := r.u8("id")
	if err != nil {
		return CrdtID{}, err
	}
	p2, err := r.varuint("id")
	if err != nil {
		return CrdtID{}, err
	}
	return CrdtID{Part1: p1, Part2: p2}, nil
}

func (r *taggedReader) readInt(index int) (int64, error) {
	if err := r.expectTag(index, TagByte4); err != nil {
		return 0, err
	}
	v, err := r.u32("int")
	return int64(int32(v)), err
}

func (r *taggedReader) readFloat(index int) (float64, error) {
	if err := r.expectTag(index, TagByte4); err != nil {
		return 0, err
	}
	return r.f32("float")
}

func (r *taggedReader) readDouble(index int) (float64, error) {
	if err := r.expectTag(index, TagByte8); err != nil {
		return 0, err
	}
	return r.f64("double")
}

func (r *taggedReader) readBool(index int) (bool, error) {
	if err := r.expectTag(index, TagByte1); err != nil {
		return false, err
	}
	v, err := r.u8("bool")
	return v != 0, err
}

// readSubblock consumes a Length4 tag and returns the end offset of the
// subblock it introduces.
func (r *taggedReader) readSubblock(index int) (int, error) {
	if err := r.expectTag(index, TagLength4); err != nil {
		return 0, err
	}
	n, err := r.u32("subblock length")
	if err != nil {
		return 0, err
	}
	end := r.off + int(n)
	if int(n) < 0 || end > r.end {
		return 0, truncated("subblock", r.off)
	}
	return end, nil
}

func (r *taggedReader) readString(index int) (string, error) {
	end, err := r.readSubblock(index)
	if err != nil {
		return "", err
	}
	n, err := r.varuint("string length")
	if err != nil {
		return "", err
	}
	if _, err := r.u8("string flag"); err != nil {
		return "", err
	}
	if r.off+int(n) > end {
		return "", truncated("string", r.off)
	}
	b, err := r.bytes(int(n), "string")
	if err != nil {
		return "", err
	}
	r.off = end
	return string(b), nil
}

// readLWWString reads a last-writer-wins register holding a string.
func (r *taggedReader) readLWWString(index int) (string, error) {
	end, err := r.readSubblock(index)
	if err != nil {
		return "", err
	}
	if _, err := r.readID(1); err != nil {
		return "", err
	}
	s, err := r.readString(2)
	if err != nil {
		return "", err
	}
	r.off = end
	return s, nil
}

func (r *taggedReader) readLWWBool(index int) (bool, error) {
	end, err := r.readSubblock(index)
	if err != nil {
		return false, err
	}
	if _, err := r.readID(1); err != nil {
		return false, err
	}
	b, err := r.readBool(2)
	if err != nil {
		return false, err
	}
	r.off = end
	return b, nil
}
