package cell

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupportedAddress is returned for MsgAddress variants this codec does not handle
var ErrUnsupportedAddress = errors.New("unsupported address")

// Address is a MsgAddressInt identity. The zero value is addr_none, which
// the protocol uses to mean "absent".
type Address struct {
	present   bool
	workchain int8
	hash      [32]byte
}

// NewAddress returns a standard address in the given workchain
func NewAddress(workchain int8, hash [32]byte) Address {
	return Address{present: true, workchain: workchain, hash: hash}
}

// ParseAddress parses the raw "<workchain>:<64 hex chars>" form.
// An empty string parses to addr_none.
func ParseAddress(raw string) (Address, error) {
	if raw == "" {
		return Address{}, nil
	}
	wcPart, hashPart, ok := strings.Cut(raw, ":")
	if !ok {
		return Address{}, fmt.Errorf("invalid address %q: missing workchain separator", raw)
	}
	wc, err := strconv.ParseInt(wcPart, 10, 8)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	decoded, err := hex.DecodeString(hashPart)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	if len(decoded) != 32 {
		return Address{}, fmt.Errorf("invalid address %q: hash must be 32 bytes", raw)
	}
	var h [32]byte
	copy(h[:], decoded)
	return NewAddress(int8(wc), h), nil
}

// MustParseAddress is ParseAddress that panics, for constants and tests
func MustParseAddress(raw string) Address {
	a, err := ParseAddress(raw)
	if err != nil {
		panic(err)
	}
	return a
}

// IsNone reports whether the address is addr_none
func (a Address) IsNone() bool {
	return !a.present
}

// Workchain returns the workchain id
func (a Address) Workchain() int8 {
	return a.workchain
}

// Hash returns the 256-bit account id
func (a Address) Hash() [32]byte {
	return a.hash
}

// Equal compares two addresses; addr_none equals only addr_none
func (a Address) Equal(other Address) bool {
	return a == other
}

// String returns the raw form, or "" for addr_none
func (a Address) String() string {
	if a.IsNone() {
		return ""
	}
	return fmt.Sprintf("%d:%s", a.workchain, hex.EncodeToString(a.hash[:]))
}

// MarshalText implements encoding.TextMarshaler
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
