package cell

import (
	"fmt"
	"math/big"
)

// Slice is a read cursor over a cell's bits and references
type Slice struct {
	cell   *Cell
	bitPos int
	refPos int
}

// BitsLeft returns the number of unread bits
func (s *Slice) BitsLeft() int {
	return s.cell.bitLen - s.bitPos
}

// RefsLeft returns the number of unread references
func (s *Slice) RefsLeft() int {
	return len(s.cell.refs) - s.refPos
}

// IsEmpty reports whether both bits and references are exhausted
func (s *Slice) IsEmpty() bool {
	return s.BitsLeft() == 0 && s.RefsLeft() == 0
}

func (s *Slice) need(bits int) error {
	if bits > s.BitsLeft() {
		return fmt.Errorf("%w: need %d bits, %d left", ErrUnderflow, bits, s.BitsLeft())
	}
	return nil
}

// LoadBit reads a single bit
func (s *Slice) LoadBit() (bool, error) {
	if err := s.need(1); err != nil {
		return false, err
	}
	v := s.cell.bit(s.bitPos)
	s.bitPos++
	return v, nil
}

// LoadUInt reads an unsigned big-endian integer of the given width (at most 64)
func (s *Slice) LoadUInt(bits int) (uint64, error) {
	if bits < 0 || bits > 64 {
		return 0, fmt.Errorf("invalid integer width %d", bits)
	}
	if err := s.need(bits); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < bits; i++ {
		v <<= 1
		if s.cell.bit(s.bitPos) {
			v |= 1
		}
		s.bitPos++
	}
	return v, nil
}

// LoadInt reads a two's complement integer of the given width (at most 64)
func (s *Slice) LoadInt(bits int) (int64, error) {
	u, err := s.LoadUInt(bits)
	if err != nil {
		return 0, err
	}
	if bits == 0 || bits == 64 {
		return int64(u), nil
	}
	if u&(uint64(1)<<uint(bits-1)) != 0 {
		u |= ^uint64(0) << uint(bits)
	}
	return int64(u), nil
}

// LoadBigUInt reads an unsigned integer of arbitrary width
func (s *Slice) LoadBigUInt(bits int) (*big.Int, error) {
	if err := s.need(bits); err != nil {
		return nil, err
	}
	v := new(big.Int)
	for i := 0; i < bits; i++ {
		v.Lsh(v, 1)
		if s.cell.bit(s.bitPos) {
			v.SetBit(v, 0, 1)
		}
		s.bitPos++
	}
	return v, nil
}

// LoadSlice reads the given number of bits, packed most-significant first
func (s *Slice) LoadSlice(bits int) ([]byte, error) {
	if err := s.need(bits); err != nil {
		return nil, err
	}
	out := make([]byte, (bits+7)/8)
	for i := 0; i < bits; i++ {
		if s.cell.bit(s.bitPos) {
			out[i/8] |= 0x80 >> (i % 8)
		}
		s.bitPos++
	}
	return out, nil
}

// LoadRef reads the next child reference
func (s *Slice) LoadRef() (*Cell, error) {
	if s.RefsLeft() == 0 {
		return nil, fmt.Errorf("%w: no references left", ErrUnderflow)
	}
	r := s.cell.refs[s.refPos]
	s.refPos++
	return r, nil
}

// LoadMaybeRef reads a presence bit and, when set, the following reference
func (s *Slice) LoadMaybeRef() (*Cell, error) {
	present, err := s.LoadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return s.LoadRef()
}

// LoadAddr reads an address in MsgAddress form. Only addr_none and
// addr_std without anycast are accepted.
func (s *Slice) LoadAddr() (Address, error) {
	tag, err := s.LoadUInt(2)
	if err != nil {
		return Address{}, err
	}
	switch tag {
	case 0b00:
		return Address{}, nil
	case 0b10:
	default:
		return Address{}, fmt.Errorf("%w: tag %02b", ErrUnsupportedAddress, tag)
	}
	anycast, err := s.LoadBit()
	if err != nil {
		return Address{}, err
	}
	if anycast {
		return Address{}, fmt.Errorf("%w: anycast", ErrUnsupportedAddress)
	}
	wc, err := s.LoadInt(8)
	if err != nil {
		return Address{}, err
	}
	hash, err := s.LoadSlice(256)
	if err != nil {
		return Address{}, err
	}
	var h [32]byte
	copy(h[:], hash)
	return NewAddress(int8(wc), h), nil
}

// ToCell copies the unread remainder into a standalone cell
func (s *Slice) ToCell() (*Cell, error) {
	cp := *s
	return BeginCell().StoreSliceRemainder(&cp).EndCell()
}

// LoadVarUInt reads a value written by Builder.StoreVarUInt
func (s *Slice) LoadVarUInt(lenBits int) (uint64, error) {
	n, err := s.LoadUInt(lenBits)
	if err != nil {
		return 0, err
	}
	if n > 8 {
		return 0, fmt.Errorf("variable integer of %d bytes does not fit in 64 bits", n)
	}
	return s.LoadUInt(int(n) * 8)
}
