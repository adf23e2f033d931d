package rm

import (
	"encoding/binary"
	"math"
)

// cursor reads little-endian values from a byte slice.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) remaining() int { return len(c.buf) - c.off }

func (c *cursor) need(n int, what string) error {
	if n < 0 || c.remaining() < n {
		return truncated(what, c.off)
	}
	return nil
}

func (c *cursor) bytes(n int, what string) ([]byte, error) {
	if err := c.need(n, what); err != nil {
		return nil, err
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) u8(what string) (uint8, error) {
	if err := c.need(1, what); err != nil {
		return 0, err
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

func (c *cursor) u16(what string) (uint16, error) {
	b, err := c.bytes(2, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) u32(what string) (uint32, error) {
	b, err := c.bytes(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) f32(what string) (float64, error) {
	v, err := c.u32(what)
	if err != nil {
		return 0, err
	}
	return float64(math.Float32frombits(v)), nil
}

func (c *cursor) f64(what string) (float64, error) {
	b, err := c.bytes(8, what)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (c *cursor) varuint(what string) (uint64, error) {
	v, n := binary.Uvarint(c.buf[c.off:])
	if n <= 0 {
		return 0, truncated(what, c.off)
	}
	c.off += n
	return v, nil
}
