package cell

import (
	"fmt"
	"math/big"
)

// Builder accumulates bits and references for a new cell.
// The first error is sticky: later stores are no-ops and EndCell reports it.
type Builder struct {
	data   []byte
	bitLen int
	refs   []*Cell
	err    error
}

// BeginCell starts a new builder
func BeginCell() *Builder {
	return &Builder{}
}

// BitsLeft returns the remaining bit capacity
func (b *Builder) BitsLeft() int {
	return MaxBits - b.bitLen
}

// RefsLeft returns the remaining reference capacity
func (b *Builder) RefsLeft() int {
	return MaxRefs - len(b.refs)
}

// Err returns the first error met while building
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) appendBit(v bool) {
	if b.bitLen%8 == 0 {
		b.data = append(b.data, 0)
	}
	if v {
		b.data[b.bitLen/8] |= 0x80 >> (b.bitLen % 8)
	}
	b.bitLen++
}

func (b *Builder) reserve(bits int) bool {
	if b.err != nil {
		return false
	}
	if bits > b.BitsLeft() {
		b.err = fmt.Errorf("%w: need %d bits, %d left", ErrOverflow, bits, b.BitsLeft())
		return false
	}
	return true
}

// StoreBit appends a single bit
func (b *Builder) StoreBit(v bool) *Builder {
	if b.reserve(1) {
		b.appendBit(v)
	}
	return b
}

// StoreUInt appends v as an unsigned big-endian integer of the given width (at most 64)
func (b *Builder) StoreUInt(v uint64, bits int) *Builder {
	if b.err != nil {
		return b
	}
	if bits < 0 || bits > 64 {
		b.err = fmt.Errorf("invalid integer width %d", bits)
		return b
	}
	if bits < 64 && v>>uint(bits) != 0 {
		b.err = fmt.Errorf("value %d does not fit in %d bits", v, bits)
		return b
	}
	if !b.reserve(bits) {
		return b
	}
	for i := bits - 1; i >= 0; i-- {
		b.appendBit(v>>uint(i)&1 == 1)
	}
	return b
}

// StoreInt appends v as a two's complement integer of the given width (at most 64)
func (b *Builder) StoreInt(v int64, bits int) *Builder {
	if b.err != nil {
		return b
	}
	if bits <= 0 || bits > 64 {
		b.err = fmt.Errorf("invalid integer width %d", bits)
		return b
	}
	if bits < 64 {
		limit := int64(1) << uint(bits-1)
		if v < -limit || v >= limit {
			b.err = fmt.Errorf("value %d does not fit in %d signed bits", v, bits)
			return b
		}
	}
	u := uint64(v)
	if bits < 64 {
		u &= (uint64(1) << uint(bits)) - 1
	}
	return b.StoreUInt(u, bits)
}

// StoreBigUInt appends a non-negative big integer of the given width
func (b *Builder) StoreBigUInt(v *big.Int, bits int) *Builder {
	if b.err != nil {
		return b
	}
	if v.Sign() < 0 || v.BitLen() > bits {
		b.err = fmt.Errorf("value %s does not fit in %d bits", v.String(), bits)
		return b
	}
	if !b.reserve(bits) {
		return b
	}
	for i := bits - 1; i >= 0; i-- {
		b.appendBit(v.Bit(i) == 1)
	}
	return b
}

// StoreSlice appends the first bits of data
func (b *Builder) StoreSlice(data []byte, bits int) *Builder {
	if b.err != nil {
		return b
	}
	if bits > len(data)*8 {
		b.err = fmt.Errorf("%w: %d bits requested from %d bytes", ErrUnderflow, bits, len(data))
		return b
	}
	if !b.reserve(bits) {
		return b
	}
	for i := 0; i < bits; i++ {
		b.appendBit(data[i/8]&(0x80>>(i%8)) != 0)
	}
	return b
}

// StoreBytes appends all bytes of data
func (b *Builder) StoreBytes(data []byte) *Builder {
	return b.StoreSlice(data, len(data)*8)
}

// StoreRef appends a child reference
func (b *Builder) StoreRef(c *Cell) *Builder {
	if b.err != nil {
		return b
	}
	if c == nil {
		b.err = fmt.Errorf("nil reference")
		return b
	}
	if b.RefsLeft() == 0 {
		b.err = ErrTooManyRefs
		return b
	}
	b.refs = append(b.refs, c)
	return b
}

// StoreMaybeRef appends a presence bit followed by the reference when present
func (b *Builder) StoreMaybeRef(c *Cell) *Builder {
	if c == nil {
		return b.StoreBit(false)
	}
	return b.StoreBit(true).StoreRef(c)
}

// StoreAddr appends an address in MsgAddress form
func (b *Builder) StoreAddr(a Address) *Builder {
	if a.IsNone() {
		return b.StoreUInt(0, 2)
	}
	return b.StoreUInt(0b100, 3).
		StoreInt(int64(a.workchain), 8).
		StoreBytes(a.hash[:])
}

// StoreSliceRemainder appends the unread bits and references of s
func (b *Builder) StoreSliceRemainder(s *Slice) *Builder {
	if b.err != nil {
		return b
	}
	if !b.reserve(s.BitsLeft()) {
		return b
	}
	for i := s.bitPos; i < s.cell.bitLen; i++ {
		b.appendBit(s.cell.bit(i))
	}
	for i := s.refPos; i < len(s.cell.refs); i++ {
		b.StoreRef(s.cell.refs[i])
	}
	return b
}

// EndCell finalizes the cell
func (b *Builder) EndCell() (*Cell, error) {
	if b.err != nil {
		return nil, b.err
	}
	data := make([]byte, len(b.data))
	copy(data, b.data)
	refs := make([]*Cell, len(b.refs))
	copy(refs, b.refs)
	return &Cell{data: data, bitLen: b.bitLen, refs: refs}, nil
}

// MustEndCell finalizes the cell and panics on a build error.
// Reserved for layouts whose size is fixed at compile time.
func (b *Builder) MustEndCell() *Cell {
	c, err := b.EndCell()
	if err != nil {
		panic(err)
	}
	return c
}

// StoreVarUInt appends v as a byte-length prefix of lenBits bits followed by
// the minimal big-endian bytes of v. Coins use lenBits = 4.
func (b *Builder) StoreVarUInt(v uint64, lenBits int) *Builder {
	n := 0
	for x := v; x != 0; x >>= 8 {
		n++
	}
	if b.err == nil && n >= 1<<uint(lenBits) {
		b.err = fmt.Errorf("value %d does not fit in a %d-bit length prefix", v, lenBits)
		return b
	}
	b.StoreUInt(uint64(n), lenBits)
	if n > 0 {
		b.StoreUInt(v, n*8)
	}
	return b
}
