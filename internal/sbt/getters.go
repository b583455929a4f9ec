package sbt

import (
	"github.com/feral-file/ff-sbt/internal/cell"
	"github.com/feral-file/ff-sbt/internal/domain"
)

// NftData is the get_nft_data view of an item
type NftData struct {
	Initialized bool
	Index       uint64
	Collection  cell.Address
	// Owner is addr_none when the item is uninitialized or destroyed
	Owner cell.Address
	// Content is the individual content; join it with the collection's common content to resolve
	Content *cell.Cell
}

// GetNftData implements get_nft_data
func GetNftData(item *domain.Item) NftData {
	return NftData{
		Initialized: item.Initialized(),
		Index:       item.Index,
		Collection:  item.Collection,
		Owner:       item.Owner(),
		Content:     item.Content,
	}
}

// GetAuthorityAddress implements get_authority_address
func GetAuthorityAddress(item *domain.Item) cell.Address {
	return item.Authority()
}

// GetRevokedTime implements get_revoked_time; zero means not revoked
func GetRevokedTime(item *domain.Item) uint64 {
	return item.RevokedAt
}

// GetEditor implements get_editor. Soulbound items have no editor.
func GetEditor(*domain.Item) (cell.Address, error) {
	return cell.Address{}, domain.NewExitError(domain.ExitNoSuchMethod, domain.ErrNoSuchMethod)
}
