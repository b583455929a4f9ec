package collection

import (
	"errors"
	"fmt"

	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/content"
)

// ErrCommonContentTooLong is returned when the common prefix does not fit a single cell
var ErrCommonContentTooLong = errors.New("common content must fit in one cell")

// NftContent joins the common prefix with an item's individual content:
// 0x01 followed by the prefix bits, with the individual chain as the
// only reference. Decoding it off-chain yields prefix ++ individual.
func NftContent(common, individual *cell.Cell) (*cell.Cell, error) {
	if common == nil {
		common = cell.Empty()
	}
	if common.RefsNum() > 0 {
		return nil, ErrCommonContentTooLong
	}
	b := cell.BeginCell().
		StoreUInt(uint64(content.OffChainPrefix), 8).
		StoreSliceRemainder(common.BeginParse())
	if individual != nil {
		b.StoreRef(individual)
	}
	c, err := b.EndCell()
	if err != nil {
		if errors.Is(err, cell.ErrOverflow) {
			return nil, ErrCommonContentTooLong
		}
		return nil, fmt.Errorf("failed to build nft content: %w", err)
	}
	return c, nil
}

// ResolveURI returns the full content URI of an item
func ResolveURI(common, individual *cell.Cell) (string, error) {
	c, err := NftContent(common, individual)
	if err != nil {
		return "", err
	}
	return content.DecodeOffChain(c)
}
