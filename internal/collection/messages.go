package collection

import (
	"fmt"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
	"github.com/feral-file/ff-sbt/internal/sbt"
)

// MintSBT asks the collection to deploy one item and initialize it
type MintSBT struct {
	QueryID uint64
	Index   uint64
	// ForwardAmount is sent along with the init body and stays on the item
	ForwardAmount domain.Coins
	Init          sbt.InitBody
}

// ToCell encodes op query_id index:uint64 forward_amount:Coins init:^Cell
func (m MintSBT) ToCell() (*cell.Cell, error) {
	init, err := m.Init.ToCell()
	if err != nil {
		return nil, fmt.Errorf("init body: %w", err)
	}
	return cell.BeginCell().
		StoreUInt(uint64(domain.OpMintSBT), 32).
		StoreUInt(m.QueryID, 64).
		StoreUInt(m.Index, 64).
		StoreVarUInt(uint64(m.ForwardAmount), 4).
		StoreRef(init).
		EndCell()
}

func parseMintSBT(queryID uint64, s *cell.Slice) (*MintSBT, error) {
	index, err := s.LoadUInt(64)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	amount, err := s.LoadVarUInt(4)
	if err != nil {
		return nil, fmt.Errorf("forward amount: %w", err)
	}
	ref, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("init body: %w", err)
	}
	init, err := sbt.ParseInitBody(ref.BeginParse())
	if err != nil {
		return nil, fmt.Errorf("init body: %w", err)
	}
	return &MintSBT{
		QueryID:       queryID,
		Index:         index,
		ForwardAmount: domain.Coins(amount),
		Init:          *init,
	}, nil
}

// ChangeOwner encodes op query_id new_owner:address
type ChangeOwner struct {
	QueryID  uint64
	NewOwner cell.Address
}

func (m ChangeOwner) ToCell() (*cell.Cell, error) {
	return cell.BeginCell().
		StoreUInt(uint64(domain.OpChangeOwner), 32).
		StoreUInt(m.QueryID, 64).
		StoreAddr(m.NewOwner).
		EndCell()
}
