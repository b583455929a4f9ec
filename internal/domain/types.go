package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/feral-file/ff-sbt/internal/cell"
)

// Coins is an amount in nano units
type Coins uint64

// ParseCoins parses a decimal coin amount such as "0.05" into nano units
func ParseCoins(s string) (Coins, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > 9 {
		return 0, fmt.Errorf("invalid amount %q: more than 9 decimals", s)
	}
	var w uint64
	if whole != "" {
		var err error
		w, err = strconv.ParseUint(whole, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}
	var f uint64
	if frac != "" {
		var err error
		f, err = strconv.ParseUint(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}
	if w > (^uint64(0)-f)/NanoPerCoin {
		return 0, fmt.Errorf("invalid amount %q: overflow", s)
	}
	return Coins(w*NanoPerCoin + f), nil
}

// MustParseCoins is ParseCoins that panics, for constants and tests
func MustParseCoins(s string) Coins {
	c, err := ParseCoins(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String formats the amount in whole coins
func (c Coins) String() string {
	whole := uint64(c) / NanoPerCoin
	frac := uint64(c) % NanoPerCoin
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%09d", whole, frac), "0")
}

// ItemState is the lifecycle stage of an item. The set of
// implementations is closed: Uninitialized, Active, Destroyed.
type ItemState interface {
	itemState()
	// Name returns a stable lower-case label for storage and logs
	Name() string
}

// Uninitialized is an item deployed by its collection but not yet given an owner
type Uninitialized struct{}

// Active is a live item with an owner and an optional authority
type Active struct {
	Owner     cell.Address
	Authority cell.Address
}

// Destroyed is terminal: owner and authority are gone for good
type Destroyed struct{}

func (Uninitialized) itemState() {}
func (Active) itemState()        {}
func (Destroyed) itemState()     {}

func (Uninitialized) Name() string { return "uninitialized" }
func (Active) Name() string        { return "active" }
func (Destroyed) Name() string     { return "destroyed" }

// Item is the persistent state of one soulbound token
type Item struct {
	Address    cell.Address
	Index      uint64
	Collection cell.Address
	State      ItemState
	// Content is the item's individual content chain; nil until initialized
	Content *cell.Cell
	// RevokedAt is a unix timestamp, zero while not revoked
	RevokedAt uint64
}

// NewUninitializedItem returns the state a collection deploys
func NewUninitializedItem(address cell.Address, index uint64, collection cell.Address) *Item {
	return &Item{Address: address, Index: index, Collection: collection, State: Uninitialized{}}
}

// Initialized reports whether the item has left the Uninitialized state
func (it *Item) Initialized() bool {
	_, ok := it.State.(Uninitialized)
	return it.State != nil && !ok
}

// Owner returns the owner, or addr_none when the item is not active
func (it *Item) Owner() cell.Address {
	if a, ok := it.State.(Active); ok {
		return a.Owner
	}
	return cell.Address{}
}

// Authority returns the authority, or addr_none when the item is not active
func (it *Item) Authority() cell.Address {
	if a, ok := it.State.(Active); ok {
		return a.Authority
	}
	return cell.Address{}
}

// Revoked reports whether the authority has revoked the item
func (it *Item) Revoked() bool {
	return it.RevokedAt != 0
}

// Clone returns a copy safe to mutate; cells are immutable and shared
func (it *Item) Clone() *Item {
	cp := *it
	return &cp
}

// Message is an internal or external message travelling between accounts
type Message struct {
	Source      cell.Address `cbor:"1,keyasint"`
	Destination cell.Address `cbor:"2,keyasint"`
	Value       Coins        `cbor:"3,keyasint"`
	Bounce      bool         `cbor:"4,keyasint"`
	Bounced     bool         `cbor:"5,keyasint"`
	External    bool         `cbor:"6,keyasint"`
	Body        *cell.Cell   `cbor:"7,keyasint"`
	// CreatedAt is the unix time the message was emitted
	CreatedAt uint64 `cbor:"8,keyasint"`
}

// OpCode peeks the leading op code of the body. For bounced messages it
// skips the bounce marker and returns the original op.
func (m *Message) OpCode() (OpCode, bool) {
	if m.Body == nil {
		return 0, false
	}
	s := m.Body.BeginParse()
	if m.Bounced {
		if _, err := s.LoadUInt(32); err != nil {
			return 0, false
		}
	}
	op, err := s.LoadUInt(32)
	if err != nil {
		return 0, false
	}
	return OpCode(op), true
}
