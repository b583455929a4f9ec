package cell

import (
	"bytes"
	"errors"
)

const (
	// MaxBits is the payload capacity of a single cell
	MaxBits = 1023
	// MaxRefs is the number of child references a single cell may hold
	MaxRefs = 4
	// MaxDepth bounds reference chains accepted from the transport
	MaxDepth = 1024
)

var (
	// ErrOverflow is returned when a builder runs past MaxBits
	ErrOverflow = errors.New("cell overflow")
	// ErrTooManyRefs is returned when a builder runs past MaxRefs
	ErrTooManyRefs = errors.New("cell references overflow")
	// ErrUnderflow is returned when a slice is read past its end
	ErrUnderflow = errors.New("cell underflow")
	// ErrTooDeep is returned when a decoded cell tree exceeds MaxDepth
	ErrTooDeep = errors.New("cell tree too deep")
)

// Cell is an immutable unit of at most MaxBits bits and MaxRefs references.
// Bits are packed most-significant first.
type Cell struct {
	data   []byte
	bitLen int
	refs   []*Cell
}

// Empty returns a cell with no bits and no references
func Empty() *Cell {
	return &Cell{}
}

// BitsSize returns the number of data bits in the cell
func (c *Cell) BitsSize() int {
	return c.bitLen
}

// RefsNum returns the number of child references
func (c *Cell) RefsNum() int {
	return len(c.refs)
}

// Ref returns the i-th child reference, or nil when absent
func (c *Cell) Ref(i int) *Cell {
	if i < 0 || i >= len(c.refs) {
		return nil
	}
	return c.refs[i]
}

// BeginParse returns a slice positioned at the first bit and first reference
func (c *Cell) BeginParse() *Slice {
	return &Slice{cell: c}
}

// Depth returns the longest reference path below the cell
func (c *Cell) Depth() int {
	depth := 0
	for _, r := range c.refs {
		if d := r.Depth() + 1; d > depth {
			depth = d
		}
	}
	return depth
}

// Equal reports whether both trees hold the same bits and references
func (c *Cell) Equal(other *Cell) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.bitLen != other.bitLen || len(c.refs) != len(other.refs) {
		return false
	}
	if !bytes.Equal(c.data, other.data) {
		return false
	}
	for i := range c.refs {
		if !c.refs[i].Equal(other.refs[i]) {
			return false
		}
	}
	return true
}

// bit returns the value of the i-th data bit
func (c *Cell) bit(i int) bool {
	return c.data[i/8]&(0x80>>(i%8)) != 0
}
