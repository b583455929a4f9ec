package cell

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding so equal trees always
// serialize to identical bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encOptions := cbor.CoreDetEncOptions()
	// Address has no exported fields; it travels as its raw text form.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("cell: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		// each tree level costs a map and an array
		MaxNestedLevels: 2*MaxDepth + 8,
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("cell: CBOR decoder initialization failed: " + err.Error())
	}
}

// wireCell is the transport shape of a cell tree
type wireCell struct {
	Bits []byte     `cbor:"1,keyasint"`
	Len  int        `cbor:"2,keyasint"`
	Refs []wireCell `cbor:"3,keyasint,omitempty"`
}

func toWire(c *Cell) wireCell {
	w := wireCell{Bits: c.data, Len: c.bitLen}
	for _, r := range c.refs {
		w.Refs = append(w.Refs, toWire(r))
	}
	return w
}

func fromWire(w wireCell, depth int) (*Cell, error) {
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}
	if w.Len < 0 || w.Len > MaxBits {
		return nil, fmt.Errorf("%w: %d bits", ErrOverflow, w.Len)
	}
	if len(w.Bits) != (w.Len+7)/8 {
		return nil, fmt.Errorf("bit length %d does not match %d data bytes", w.Len, len(w.Bits))
	}
	if len(w.Refs) > MaxRefs {
		return nil, ErrTooManyRefs
	}
	b := BeginCell().StoreSlice(w.Bits, w.Len)
	for _, rw := range w.Refs {
		r, err := fromWire(rw, depth+1)
		if err != nil {
			return nil, err
		}
		b.StoreRef(r)
	}
	return b.EndCell()
}

// MarshalCBOR implements cbor.Marshaler
func (c *Cell) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(toWire(c))
}

// UnmarshalCBOR implements cbor.Unmarshaler
func (c *Cell) UnmarshalCBOR(data []byte) error {
	var w wireCell
	if err := decMode.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode cell: %w", err)
	}
	parsed, err := fromWire(w, 0)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// Marshal encodes v to deterministic CBOR. Cells and addresses inside v
// use their own encodings.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR produced by Marshal
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
