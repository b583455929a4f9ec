package cell

import (
	"crypto/sha256"
	"encoding/binary"
)

// Hash returns the representation hash of an ordinary cell: SHA-256 over
// the two descriptor bytes, the padded data, then each child's depth and hash
func (c *Cell) Hash() [32]byte {
	h := sha256.New()

	full := c.bitLen / 8
	padded := (c.bitLen + 7) / 8
	h.Write([]byte{byte(len(c.refs)), byte(full + padded)})

	data := make([]byte, padded)
	copy(data, c.data)
	if rem := c.bitLen % 8; rem != 0 {
		// completion tag: a single 1 after the last data bit, then zeros
		data[padded-1] &= 0xff << (8 - rem)
		data[padded-1] |= 0x80 >> rem
	}
	h.Write(data)

	var depth [2]byte
	for _, r := range c.refs {
		binary.BigEndian.PutUint16(depth[:], uint16(r.Depth())) //nolint:gosec,G115 // bounded by MaxDepth
		h.Write(depth[:])
	}
	for _, r := range c.refs {
		rh := r.Hash()
		h.Write(rh[:])
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
